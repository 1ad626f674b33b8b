package pgshipments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

const initialEventStatus = "Shipment Created"

const shipmentCols = `
  id, tracking_number,
  shipper_name, shipper_phone, consignee_name, consignee_phone,
  pickup_location_id, delivery_location_id, dimensions_id,
  carrier_name, carrier_phone, weight, rate, currency,
  status, is_flagged, flag_reason,
  pickup_date, estimated_delivery, actual_delivery,
  notes, created_by_id, updated_by_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*models.Shipment, error) {
	var sh models.Shipment
	if err := row.Scan(
		&sh.ID, &sh.TrackingNumber,
		&sh.ShipperName, &sh.ShipperPhone, &sh.ConsigneeName, &sh.ConsigneePhone,
		&sh.PickupLocationID, &sh.DeliveryLocationID, &sh.DimensionsID,
		&sh.CarrierName, &sh.CarrierPhone, &sh.Weight, &sh.Rate, &sh.Currency,
		&sh.Status, &sh.IsFlagged, &sh.FlagReason,
		&sh.PickupDate, &sh.EstimatedDelivery, &sh.ActualDelivery,
		&sh.Notes, &sh.CreatedByID, &sh.UpdatedByID, &sh.CreatedAt, &sh.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sh, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func insertLocation(ctx context.Context, tx pgx.Tx, in models.LocationInput) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx, `
INSERT INTO locations (address, city, state, country, postal_code, latitude, longitude)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, in.Address, in.City, in.State, in.Country, in.PostalCode, in.Latitude, in.Longitude).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert location")
	}
	return id, nil
}

func updateLocation(ctx context.Context, tx pgx.Tx, id uint64, in models.LocationInput) error {
	_, err := tx.Exec(ctx, `
UPDATE locations
SET address = $2, city = $3, state = $4, country = $5, postal_code = $6, latitude = $7, longitude = $8
WHERE id = $1
`, id, in.Address, in.City, in.State, in.Country, in.PostalCode, in.Latitude, in.Longitude)
	return errors.Wrap(err, "update location")
}

// CreateShipment writes both locations, the optional dimensions, the shipment
// row and the initial tracking event in one transaction.
func (s *Storage) CreateShipment(ctx context.Context, in models.ShipmentCreateInput, createdByID uint64) (*models.Shipment, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pickupID, err := insertLocation(ctx, tx, in.PickupLocation)
	if err != nil {
		return nil, err
	}
	deliveryID, err := insertLocation(ctx, tx, in.DeliveryLocation)
	if err != nil {
		return nil, err
	}

	var dimsID *uint64
	if in.Dimensions != nil {
		var id uint64
		err := tx.QueryRow(ctx, `
INSERT INTO dimensions (length, width, height) VALUES ($1,$2,$3) RETURNING id
`, in.Dimensions.Length, in.Dimensions.Width, in.Dimensions.Height).Scan(&id)
		if err != nil {
			return nil, errors.Wrap(err, "insert dimensions")
		}
		dimsID = &id
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	var shipmentID uint64
	err = tx.QueryRow(ctx, `
INSERT INTO shipments (
  tracking_number,
  shipper_name, shipper_phone, consignee_name, consignee_phone,
  pickup_location_id, delivery_location_id, dimensions_id,
  carrier_name, carrier_phone, weight, rate, currency,
  status, pickup_date, estimated_delivery, notes,
  created_by_id, updated_by_id, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18,$19,$19)
RETURNING id
`, in.TrackingNumber,
		in.ShipperName, in.ShipperPhone, in.ConsigneeName, in.ConsigneePhone,
		pickupID, deliveryID, dimsID,
		in.CarrierName, in.CarrierPhone, in.Weight, in.Rate, currency,
		models.StatusPending, in.PickupDate, in.EstimatedDelivery, in.Notes,
		createdByID, now).Scan(&shipmentID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert shipment")
	}

	_, err = tx.Exec(ctx, `
INSERT INTO tracking_events (shipment_id, status, event_time, created_at)
VALUES ($1,$2,$3,$3)
`, shipmentID, initialEventStatus, now)
	if err != nil {
		return nil, errors.Wrap(err, "insert initial event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetShipmentByID(ctx, shipmentID)
}

// GetShipmentByID returns (nil, nil) when the shipment does not exist.
// Dimensions and tracking events (with their locations) are eagerly attached;
// pickup/delivery locations and users are left to the relation loaders.
func (s *Storage) GetShipmentByID(ctx context.Context, id uint64) (*models.Shipment, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shipmentCols+` FROM shipments WHERE id = $1`, id)
	sh, err := scanShipment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	if err := s.hydrate(ctx, []*models.Shipment{sh}); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Storage) GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	row := s.db.QueryRow(ctx, `SELECT`+shipmentCols+` FROM shipments WHERE tracking_number = $1`, trackingNumber)
	sh, err := scanShipment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment by tracking number")
	}
	if err := s.hydrate(ctx, []*models.Shipment{sh}); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Storage) ListShipments(ctx context.Context, q ListQuery) ([]*models.Shipment, error) {
	sql := fmt.Sprintf(`SELECT%s FROM shipments %s %s LIMIT %d OFFSET %d`,
		shipmentCols, q.Where, q.OrderBy, q.Limit, q.Offset)

	rows, err := s.db.Query(ctx, sql, q.Args...)
	if err != nil {
		return nil, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()

	out := make([]*models.Shipment, 0, q.Limit)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	if err := s.hydrate(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountShipments must share q with ListShipments so the count can never use a
// different predicate than the rows.
func (s *Storage) CountShipments(ctx context.Context, q ListQuery) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM shipments "+q.Where, q.Args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count shipments")
	}
	return n, nil
}

// UpdateShipment mutates the referenced location/dimensions rows in place,
// creating and linking them when absent. Returns (nil, nil) when the shipment
// does not exist.
func (s *Storage) UpdateShipment(ctx context.Context, id uint64, in models.ShipmentUpdateInput, updatedByID uint64) (*models.Shipment, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var pickupID, deliveryID uint64
	var dimsID *uint64
	err = tx.QueryRow(ctx, `
SELECT pickup_location_id, delivery_location_id, dimensions_id FROM shipments WHERE id = $1 FOR UPDATE
`, id).Scan(&pickupID, &deliveryID, &dimsID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment for update")
	}

	if in.PickupLocation != nil {
		if err := updateLocation(ctx, tx, pickupID, *in.PickupLocation); err != nil {
			return nil, err
		}
	}
	if in.DeliveryLocation != nil {
		if err := updateLocation(ctx, tx, deliveryID, *in.DeliveryLocation); err != nil {
			return nil, err
		}
	}

	sets := []string{}
	args := []any{id}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Dimensions != nil {
		if dimsID == nil {
			var newID uint64
			err := tx.QueryRow(ctx, `
INSERT INTO dimensions (length, width, height) VALUES ($1,$2,$3) RETURNING id
`, in.Dimensions.Length, in.Dimensions.Width, in.Dimensions.Height).Scan(&newID)
			if err != nil {
				return nil, errors.Wrap(err, "insert dimensions")
			}
			set("dimensions_id", newID)
		} else {
			_, err := tx.Exec(ctx, `
UPDATE dimensions SET length = $2, width = $3, height = $4 WHERE id = $1
`, *dimsID, in.Dimensions.Length, in.Dimensions.Width, in.Dimensions.Height)
			if err != nil {
				return nil, errors.Wrap(err, "update dimensions")
			}
		}
	}

	if in.ShipperName != nil {
		set("shipper_name", *in.ShipperName)
	}
	if in.ShipperPhone != nil {
		set("shipper_phone", *in.ShipperPhone)
	}
	if in.ConsigneeName != nil {
		set("consignee_name", *in.ConsigneeName)
	}
	if in.ConsigneePhone != nil {
		set("consignee_phone", *in.ConsigneePhone)
	}
	if in.CarrierName != nil {
		set("carrier_name", *in.CarrierName)
	}
	if in.CarrierPhone != nil {
		set("carrier_phone", *in.CarrierPhone)
	}
	if in.Weight != nil {
		set("weight", *in.Weight)
	}
	if in.Rate != nil {
		set("rate", *in.Rate)
	}
	if in.Currency != nil {
		set("currency", *in.Currency)
	}
	if in.PickupDate != nil {
		set("pickup_date", *in.PickupDate)
	}
	if in.EstimatedDelivery != nil {
		set("estimated_delivery", *in.EstimatedDelivery)
	}
	if in.Notes != nil {
		set("notes", *in.Notes)
	}
	set("updated_by_id", updatedByID)

	sets = append(sets, "updated_at = now()")
	_, err = tx.Exec(ctx, "UPDATE shipments SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	if err != nil {
		return nil, errors.Wrap(err, "update shipment")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetShipmentByID(ctx, id)
}

// UpdateShipmentStatus sets the status and appends a tracking event in one
// transaction. A transition to DELIVERED stamps actual_delivery when unset;
// leaving DELIVERED never clears it.
func (s *Storage) UpdateShipmentStatus(ctx context.Context, id uint64, status string, updatedByID uint64) (*models.Shipment, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE shipments
SET
  status = $2,
  actual_delivery = CASE WHEN $2 = $3 AND actual_delivery IS NULL THEN now() ELSE actual_delivery END,
  updated_by_id = $4,
  updated_at = now()
WHERE id = $1
`, id, status, models.StatusDelivered, updatedByID)
	if err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	_, err = tx.Exec(ctx, `
INSERT INTO tracking_events (shipment_id, status, event_time, created_at)
VALUES ($1,$2,now(),now())
`, id, status)
	if err != nil {
		return nil, errors.Wrap(err, "insert status event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetShipmentByID(ctx, id)
}

// SetShipmentFlag flips the flag without touching the tracking history.
func (s *Storage) SetShipmentFlag(ctx context.Context, id uint64, flagged bool, reason *string, updatedByID uint64) (*models.Shipment, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE shipments
SET is_flagged = $2, flag_reason = $3, updated_by_id = $4, updated_at = now()
WHERE id = $1
`, id, flagged, reason, updatedByID)
	if err != nil {
		return nil, errors.Wrap(err, "set flag")
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return s.GetShipmentByID(ctx, id)
}

// DeleteShipment removes the tracking events and the shipment row in one
// transaction. Locations, dimensions and users are left untouched.
func (s *Storage) DeleteShipment(ctx context.Context, id uint64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tracking_events WHERE shipment_id = $1`, id); err != nil {
		return false, errors.Wrap(err, "delete events")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete shipment")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit tx")
	}
	return tag.RowsAffected() > 0, nil
}
