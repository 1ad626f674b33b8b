package messages

import "time"

// ShipmentStatusChanged is published after every status mutation.
type ShipmentStatusChanged struct {
	ShipmentID     uint64    `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	ChangedAt      time.Time `json:"changed_at"`
	ChangedByID    uint64    `json:"changed_by_id"`
}

// CarrierEvent arrives from external carrier feeds and is appended to the
// shipment's tracking history by tracking number.
type CarrierEvent struct {
	TrackingNumber string     `json:"tracking_number"`
	Status         string     `json:"status"`
	EventTime      time.Time  `json:"event_time"`
	Description    *string    `json:"description,omitempty"`
	Location       *EventLocation `json:"location,omitempty"`
}

type EventLocation struct {
	Address    string   `json:"address"`
	City       string   `json:"city"`
	State      *string  `json:"state,omitempty"`
	Country    string   `json:"country"`
	PostalCode *string  `json:"postal_code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}
