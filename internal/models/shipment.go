package models

import "time"

// Shipment lifecycle statuses.
const (
	StatusPending        = "PENDING"
	StatusPickedUp       = "PICKED_UP"
	StatusInTransit      = "IN_TRANSIT"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
	StatusOnHold         = "ON_HOLD"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

type Location struct {
	ID         uint64
	Address    string
	City       string
	State      *string
	Country    string
	PostalCode *string
	Latitude   *float64
	Longitude  *float64
}

type Dimensions struct {
	ID     uint64
	Length float64
	Width  float64
	Height float64
}

// TrackingEvent is an append-only history entry. Status here is a free-text
// label, not the shipment status enum.
type TrackingEvent struct {
	ID          uint64
	ShipmentID  uint64
	Status      string
	EventTime   time.Time
	LocationID  *uint64
	Location    *Location
	Description *string
	CreatedAt   time.Time
}

type Shipment struct {
	ID             uint64
	TrackingNumber string

	ShipperName    string
	ShipperPhone   *string
	ConsigneeName  string
	ConsigneePhone *string

	PickupLocationID   uint64
	DeliveryLocationID uint64
	PickupLocation     *Location
	DeliveryLocation   *Location

	DimensionsID *uint64
	Dimensions   *Dimensions

	CarrierName  string
	CarrierPhone *string
	Weight       *float64
	Rate         *float64
	Currency     string

	Status     string
	IsFlagged  bool
	FlagReason *string

	PickupDate        *time.Time
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time

	Notes *string

	CreatedByID uint64
	UpdatedByID uint64
	CreatedBy   *User
	UpdatedBy   *User

	Events []*TrackingEvent

	CreatedAt time.Time
	UpdatedAt time.Time
}

type LocationInput struct {
	Address    string
	City       string
	State      *string
	Country    string
	PostalCode *string
	Latitude   *float64
	Longitude  *float64
}

type DimensionsInput struct {
	Length float64
	Width  float64
	Height float64
}

type ShipmentCreateInput struct {
	TrackingNumber string

	ShipperName    string
	ShipperPhone   *string
	ConsigneeName  string
	ConsigneePhone *string

	PickupLocation   LocationInput
	DeliveryLocation LocationInput
	Dimensions       *DimensionsInput

	CarrierName  string
	CarrierPhone *string
	Weight       *float64
	Rate         *float64
	Currency     string

	PickupDate        *time.Time
	EstimatedDelivery *time.Time
	Notes             *string
}

// ShipmentUpdateInput carries optional field updates. Nil means "leave as is".
type ShipmentUpdateInput struct {
	ShipperName    *string
	ShipperPhone   *string
	ConsigneeName  *string
	ConsigneePhone *string

	PickupLocation   *LocationInput
	DeliveryLocation *LocationInput
	Dimensions       *DimensionsInput

	CarrierName  *string
	CarrierPhone *string
	Weight       *float64
	Rate         *float64
	Currency     *string

	PickupDate        *time.Time
	EstimatedDelivery *time.Time
	Notes             *string
}

type DateRange struct {
	From *time.Time
	To   *time.Time
}

type RateRange struct {
	Min *float64
	Max *float64
}

type ShipmentFilter struct {
	Status      []string
	CarrierName *string
	IsFlagged   *bool
	DateRange   *DateRange
	RateRange   *RateRange
	SearchTerm  *string
}

const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

type ShipmentSort struct {
	Field string
	Order string
}

type PageInput struct {
	Page  int
	Limit int
}

type PageInfo struct {
	CurrentPage     int
	TotalPages      int
	TotalCount      int
	HasNextPage     bool
	HasPreviousPage bool
}

type ShipmentPage struct {
	Items    []*Shipment
	PageInfo PageInfo
}

type StatusCount struct {
	Status string
	Count  int
}

type ShipmentStats struct {
	Total           int
	PerStatusCounts []StatusCount
	AverageRate     float64
}
