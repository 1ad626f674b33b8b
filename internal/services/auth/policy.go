package auth

import "shipdesk/internal/models"

type Action string

const (
	ActionViewShipment   Action = "shipment:view"
	ActionCreateShipment Action = "shipment:create"
	ActionUpdateShipment Action = "shipment:update"
	ActionDeleteShipment Action = "shipment:delete"
)

// Allowed is the single place shipment permissions are decided. Status and
// flag changes count as updates.
func Allowed(actor *models.User, action Action, shipment *models.Shipment) bool {
	if actor == nil || !actor.IsActive {
		return false
	}

	switch action {
	case ActionViewShipment, ActionCreateShipment:
		return true
	case ActionUpdateShipment:
		if actor.Role == models.RoleAdmin {
			return true
		}
		return shipment != nil && shipment.CreatedByID == actor.ID
	case ActionDeleteShipment:
		return actor.Role == models.RoleAdmin
	}
	return false
}
