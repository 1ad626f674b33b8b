package graphql_api

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"shipdesk/internal/apperr"
	"shipdesk/internal/models"
)

func parseID(v interface{}) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, apperr.New(apperr.KindBadInput, "id must be a string")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.KindBadInput, "invalid id %q", s)
	}
	return id, nil
}

func shipmentCursor(id uint64) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("shipment:%d", id)))
}

func optString(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

func optBool(m map[string]interface{}, key string) *bool {
	if v, ok := m[key].(bool); ok {
		return &v
	}
	return nil
}

func optFloat(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func optTime(m map[string]interface{}, key string) *time.Time {
	if v, ok := m[key].(time.Time); ok {
		return &v
	}
	return nil
}

func reqString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func reqFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func decodeLocationInput(m map[string]interface{}) models.LocationInput {
	return models.LocationInput{
		Address:    reqString(m, "address"),
		City:       reqString(m, "city"),
		State:      optString(m, "state"),
		Country:    reqString(m, "country"),
		PostalCode: optString(m, "postalCode"),
		Latitude:   optFloat(m, "latitude"),
		Longitude:  optFloat(m, "longitude"),
	}
}

func decodeDimensionsInput(m map[string]interface{}) *models.DimensionsInput {
	return &models.DimensionsInput{
		Length: reqFloat(m, "length"),
		Width:  reqFloat(m, "width"),
		Height: reqFloat(m, "height"),
	}
}

func decodeCreateInput(m map[string]interface{}) models.ShipmentCreateInput {
	in := models.ShipmentCreateInput{
		TrackingNumber:    reqString(m, "trackingNumber"),
		ShipperName:       reqString(m, "shipperName"),
		ShipperPhone:      optString(m, "shipperPhone"),
		ConsigneeName:     reqString(m, "consigneeName"),
		ConsigneePhone:    optString(m, "consigneePhone"),
		CarrierName:       reqString(m, "carrierName"),
		CarrierPhone:      optString(m, "carrierPhone"),
		Weight:            optFloat(m, "weight"),
		Rate:              optFloat(m, "rate"),
		Currency:          reqString(m, "currency"),
		PickupDate:        optTime(m, "pickupDate"),
		EstimatedDelivery: optTime(m, "estimatedDelivery"),
		Notes:             optString(m, "notes"),
	}
	if v, ok := m["pickupLocation"].(map[string]interface{}); ok {
		in.PickupLocation = decodeLocationInput(v)
	}
	if v, ok := m["deliveryLocation"].(map[string]interface{}); ok {
		in.DeliveryLocation = decodeLocationInput(v)
	}
	if v, ok := m["dimensions"].(map[string]interface{}); ok {
		in.Dimensions = decodeDimensionsInput(v)
	}
	return in
}

func decodeUpdateInput(m map[string]interface{}) models.ShipmentUpdateInput {
	in := models.ShipmentUpdateInput{
		ShipperName:       optString(m, "shipperName"),
		ShipperPhone:      optString(m, "shipperPhone"),
		ConsigneeName:     optString(m, "consigneeName"),
		ConsigneePhone:    optString(m, "consigneePhone"),
		CarrierName:       optString(m, "carrierName"),
		CarrierPhone:      optString(m, "carrierPhone"),
		Weight:            optFloat(m, "weight"),
		Rate:              optFloat(m, "rate"),
		Currency:          optString(m, "currency"),
		PickupDate:        optTime(m, "pickupDate"),
		EstimatedDelivery: optTime(m, "estimatedDelivery"),
		Notes:             optString(m, "notes"),
	}
	if v, ok := m["pickupLocation"].(map[string]interface{}); ok {
		l := decodeLocationInput(v)
		in.PickupLocation = &l
	}
	if v, ok := m["deliveryLocation"].(map[string]interface{}); ok {
		l := decodeLocationInput(v)
		in.DeliveryLocation = &l
	}
	if v, ok := m["dimensions"].(map[string]interface{}); ok {
		in.Dimensions = decodeDimensionsInput(v)
	}
	return in
}

func decodeFilter(m map[string]interface{}) models.ShipmentFilter {
	f := models.ShipmentFilter{
		CarrierName: optString(m, "carrierName"),
		IsFlagged:   optBool(m, "isFlagged"),
		SearchTerm:  optString(m, "searchTerm"),
	}
	if v, ok := m["status"].([]interface{}); ok {
		for _, s := range v {
			if st, ok := s.(string); ok {
				f.Status = append(f.Status, st)
			}
		}
	}
	if v, ok := m["dateRange"].(map[string]interface{}); ok {
		f.DateRange = &models.DateRange{From: optTime(v, "from"), To: optTime(v, "to")}
	}
	if v, ok := m["rateRange"].(map[string]interface{}); ok {
		f.RateRange = &models.RateRange{Min: optFloat(v, "min"), Max: optFloat(v, "max")}
	}
	return f
}

func decodeSort(m map[string]interface{}) *models.ShipmentSort {
	s := &models.ShipmentSort{
		Field: reqString(m, "field"),
		Order: reqString(m, "order"),
	}
	if s.Order == "" {
		s.Order = models.SortDesc
	}
	return s
}

func decodePage(m map[string]interface{}) models.PageInput {
	var p models.PageInput
	if v, ok := m["page"].(int); ok {
		p.Page = v
	}
	if v, ok := m["limit"].(int); ok {
		p.Limit = v
	}
	return p
}
