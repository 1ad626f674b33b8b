package pgshipments

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

type TrackingEventInput struct {
	Status      string
	EventTime   time.Time
	Description *string
	Location    *models.LocationInput
}

// AppendTrackingEvent adds one history entry, creating a location row when the
// event carries one. Returns (nil, nil) when the shipment does not exist.
func (s *Storage) AppendTrackingEvent(ctx context.Context, shipmentID uint64, in TrackingEventInput) (*models.TrackingEvent, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shipments WHERE id = $1)`, shipmentID).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "check shipment")
	}
	if !exists {
		return nil, nil
	}

	var locID *uint64
	if in.Location != nil {
		id, err := insertLocation(ctx, tx, *in.Location)
		if err != nil {
			return nil, err
		}
		locID = &id
	}

	var ev models.TrackingEvent
	err = tx.QueryRow(ctx, `
INSERT INTO tracking_events (shipment_id, status, event_time, location_id, description, created_at)
VALUES ($1,$2,$3,$4,$5,now())
RETURNING id, shipment_id, status, event_time, location_id, description, created_at
`, shipmentID, in.Status, in.EventTime.UTC(), locID, in.Description).Scan(
		&ev.ID, &ev.ShipmentID, &ev.Status, &ev.EventTime, &ev.LocationID, &ev.Description, &ev.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert tracking event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return &ev, nil
}

// hydrate attaches dimensions and tracking events (newest first, with their
// locations) to the given shipments. Pickup/delivery locations and user
// references stay unresolved here.
func (s *Storage) hydrate(ctx context.Context, shipments []*models.Shipment) error {
	if len(shipments) == 0 {
		return nil
	}

	shipmentIDs := make([]uint64, 0, len(shipments))
	byID := make(map[uint64]*models.Shipment, len(shipments))
	var dimIDs []uint64
	for _, sh := range shipments {
		shipmentIDs = append(shipmentIDs, sh.ID)
		byID[sh.ID] = sh
		if sh.DimensionsID != nil {
			dimIDs = append(dimIDs, *sh.DimensionsID)
		}
	}

	if len(dimIDs) > 0 {
		rows, err := s.db.Query(ctx, `
SELECT id, length, width, height FROM dimensions WHERE id = ANY($1)
`, dimIDs)
		if err != nil {
			return errors.Wrap(err, "select dimensions")
		}
		defer rows.Close()

		dims := make(map[uint64]*models.Dimensions, len(dimIDs))
		for rows.Next() {
			var d models.Dimensions
			if err := rows.Scan(&d.ID, &d.Length, &d.Width, &d.Height); err != nil {
				return errors.Wrap(err, "scan dimensions")
			}
			dims[d.ID] = &d
		}
		if rows.Err() != nil {
			return errors.Wrap(rows.Err(), "rows")
		}
		for _, sh := range shipments {
			if sh.DimensionsID != nil {
				sh.Dimensions = dims[*sh.DimensionsID]
			}
		}
	}

	rows, err := s.db.Query(ctx, `
SELECT id, shipment_id, status, event_time, location_id, description, created_at
FROM tracking_events
WHERE shipment_id = ANY($1)
ORDER BY event_time DESC, id DESC
`, shipmentIDs)
	if err != nil {
		return errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var locIDs []uint64
	var events []*models.TrackingEvent
	for rows.Next() {
		var ev models.TrackingEvent
		if err := rows.Scan(&ev.ID, &ev.ShipmentID, &ev.Status, &ev.EventTime, &ev.LocationID, &ev.Description, &ev.CreatedAt); err != nil {
			return errors.Wrap(err, "scan event")
		}
		if ev.LocationID != nil {
			locIDs = append(locIDs, *ev.LocationID)
		}
		events = append(events, &ev)
	}
	if rows.Err() != nil {
		return errors.Wrap(rows.Err(), "rows")
	}

	if len(locIDs) > 0 {
		locs, err := s.GetLocationsByIDs(ctx, locIDs)
		if err != nil {
			return err
		}
		locsByID := make(map[uint64]*models.Location, len(locs))
		for _, l := range locs {
			locsByID[l.ID] = l
		}
		for _, ev := range events {
			if ev.LocationID != nil {
				ev.Location = locsByID[*ev.LocationID]
			}
		}
	}

	for _, ev := range events {
		sh := byID[ev.ShipmentID]
		sh.Events = append(sh.Events, ev)
	}
	return nil
}
