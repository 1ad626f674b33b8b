package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"shipdesk/internal/apperr"
	"shipdesk/internal/broker/messages"
	"shipdesk/internal/cache"
	"shipdesk/internal/loader"
	"shipdesk/internal/models"
	authsvc "shipdesk/internal/services/auth"
	"shipdesk/internal/storage/pgshipments"
)

type Repository interface {
	CreateShipment(ctx context.Context, in models.ShipmentCreateInput, createdByID uint64) (*models.Shipment, error)
	GetShipmentByID(ctx context.Context, id uint64) (*models.Shipment, error)
	GetShipmentByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	ListShipments(ctx context.Context, q pgshipments.ListQuery) ([]*models.Shipment, error)
	CountShipments(ctx context.Context, q pgshipments.ListQuery) (int, error)
	UpdateShipment(ctx context.Context, id uint64, in models.ShipmentUpdateInput, updatedByID uint64) (*models.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, id uint64, status string, updatedByID uint64) (*models.Shipment, error)
	SetShipmentFlag(ctx context.Context, id uint64, flagged bool, reason *string, updatedByID uint64) (*models.Shipment, error)
	DeleteShipment(ctx context.Context, id uint64) (bool, error)
	AppendTrackingEvent(ctx context.Context, shipmentID uint64, in pgshipments.TrackingEventInput) (*models.TrackingEvent, error)
	GetShipmentStats(ctx context.Context) (*models.ShipmentStats, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo Repository

	cache       cache.BytesCache
	trackingTTL time.Duration

	producer    Publisher
	statusTopic string
}

func New(repo Repository, c cache.BytesCache, trackingTTL time.Duration, producer Publisher, statusTopic string) *Service {
	return &Service{
		repo:        repo,
		cache:       c,
		trackingTTL: trackingTTL,
		producer:    producer,
		statusTopic: statusTopic,
	}
}

func (s *Service) authorize(actor *models.User, action authsvc.Action, sh *models.Shipment) error {
	if actor == nil {
		return apperr.New(apperr.KindUnauthenticated, "authentication required")
	}
	if !authsvc.Allowed(actor, action, sh) {
		return apperr.New(apperr.KindForbidden, "permission denied")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor *models.User, in models.ShipmentCreateInput, loaders *loader.Loaders) (*models.Shipment, error) {
	if err := s.authorize(actor, authsvc.ActionCreateShipment, nil); err != nil {
		return nil, err
	}
	if in.TrackingNumber == "" {
		return nil, apperr.New(apperr.KindBadInput, "trackingNumber is required")
	}
	if in.ShipperName == "" || in.ConsigneeName == "" {
		return nil, apperr.New(apperr.KindBadInput, "shipperName and consigneeName are required")
	}
	if in.CarrierName == "" {
		return nil, apperr.New(apperr.KindBadInput, "carrierName is required")
	}
	if err := validateLocation("pickupLocation", in.PickupLocation); err != nil {
		return nil, err
	}
	if err := validateLocation("deliveryLocation", in.DeliveryLocation); err != nil {
		return nil, err
	}

	sh, err := s.repo.CreateShipment(ctx, in, actor.ID)
	if errors.Is(err, pgshipments.ErrDuplicate) {
		return nil, apperr.Newf(apperr.KindBadInput, "tracking number %q already exists", in.TrackingNumber)
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func validateLocation(field string, in models.LocationInput) error {
	if in.Address == "" || in.City == "" || in.Country == "" {
		return apperr.Newf(apperr.KindBadInput, "%s requires address, city and country", field)
	}
	return nil
}

// GetByID returns (nil, nil) for an unknown id; the API surfaces that as null.
func (s *Service) GetByID(ctx context.Context, actor *models.User, id uint64, loaders *loader.Loaders) (*models.Shipment, error) {
	if err := s.authorize(actor, authsvc.ActionViewShipment, nil); err != nil {
		return nil, err
	}
	sh, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil || sh == nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// GetByTrackingNumber is the public lookup. Hydrated results are cached with
// a short TTL; every mutation of the shipment invalidates the entry.
func (s *Service) GetByTrackingNumber(ctx context.Context, trackingNumber string, loaders *loader.Loaders) (*models.Shipment, error) {
	if trackingNumber == "" {
		return nil, apperr.New(apperr.KindBadInput, "trackingNumber is required")
	}

	if s.cache != nil && s.trackingTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, trackingKey(trackingNumber)); err == nil && ok {
			var sh models.Shipment
			if json.Unmarshal(b, &sh) == nil {
				return &sh, nil
			}
		}
	}

	sh, err := s.repo.GetShipmentByTrackingNumber(ctx, trackingNumber)
	if err != nil || sh == nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}

	if s.cache != nil && s.trackingTTL > 0 {
		if b, err := json.Marshal(sh); err == nil {
			_ = s.cache.Set(ctx, trackingKey(trackingNumber), b, s.trackingTTL)
		}
	}
	return sh, nil
}

func (s *Service) Stats(ctx context.Context, actor *models.User) (*models.ShipmentStats, error) {
	if err := s.authorize(actor, authsvc.ActionViewShipment, nil); err != nil {
		return nil, err
	}
	return s.repo.GetShipmentStats(ctx)
}

func (s *Service) Update(ctx context.Context, actor *models.User, id uint64, in models.ShipmentUpdateInput, loaders *loader.Loaders) (*models.Shipment, error) {
	existing, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}
	if err := s.authorize(actor, authsvc.ActionUpdateShipment, existing); err != nil {
		return nil, err
	}

	sh, err := s.repo.UpdateShipment(ctx, id, in, actor.ID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}

	s.invalidateTracking(ctx, sh.TrackingNumber)
	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// UpdateStatus allows any status to follow any status. A transition to
// DELIVERED stamps actualDelivery when unset; a previously set value is never
// cleared. Every status change appends a tracking event.
func (s *Service) UpdateStatus(ctx context.Context, actor *models.User, id uint64, status string, loaders *loader.Loaders) (*models.Shipment, error) {
	if !models.ValidStatus(status) {
		return nil, apperr.Newf(apperr.KindBadInput, "unknown status %q", status)
	}

	existing, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}
	if err := s.authorize(actor, authsvc.ActionUpdateShipment, existing); err != nil {
		return nil, err
	}

	sh, err := s.repo.UpdateShipmentStatus(ctx, id, status, actor.ID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}

	s.invalidateTracking(ctx, sh.TrackingNumber)
	s.publishStatusChanged(ctx, existing.Status, sh, actor.ID)

	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Flag marks a shipment for attention. Flagging never appends a tracking
// event, only status changes do.
func (s *Service) Flag(ctx context.Context, actor *models.User, id uint64, reason string, loaders *loader.Loaders) (*models.Shipment, error) {
	if reason == "" {
		return nil, apperr.New(apperr.KindBadInput, "reason is required")
	}
	return s.setFlag(ctx, actor, id, true, &reason, loaders)
}

func (s *Service) Unflag(ctx context.Context, actor *models.User, id uint64, loaders *loader.Loaders) (*models.Shipment, error) {
	return s.setFlag(ctx, actor, id, false, nil, loaders)
}

func (s *Service) setFlag(ctx context.Context, actor *models.User, id uint64, flagged bool, reason *string, loaders *loader.Loaders) (*models.Shipment, error) {
	existing, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}
	if err := s.authorize(actor, authsvc.ActionUpdateShipment, existing); err != nil {
		return nil, err
	}

	sh, err := s.repo.SetShipmentFlag(ctx, id, flagged, reason, actor.ID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, apperr.New(apperr.KindNotFound, "shipment not found")
	}

	s.invalidateTracking(ctx, sh.TrackingNumber)
	if err := s.attachRelations(ctx, loaders, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) Delete(ctx context.Context, actor *models.User, id uint64) (bool, error) {
	existing, err := s.repo.GetShipmentByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, apperr.New(apperr.KindNotFound, "shipment not found")
	}
	if err := s.authorize(actor, authsvc.ActionDeleteShipment, existing); err != nil {
		return false, err
	}

	ok, err := s.repo.DeleteShipment(ctx, id)
	if err != nil {
		return false, err
	}
	s.invalidateTracking(ctx, existing.TrackingNumber)
	return ok, nil
}

// ApplyCarrierEvent ingests an external carrier feed entry. Unknown tracking
// numbers are skipped, not failed: the feed covers more carriers than we do.
func (s *Service) ApplyCarrierEvent(ctx context.Context, msg messages.CarrierEvent) error {
	if msg.TrackingNumber == "" {
		return errors.New("tracking_number is required")
	}
	if msg.Status == "" {
		return errors.New("status is required")
	}
	if msg.EventTime.IsZero() {
		msg.EventTime = time.Now().UTC()
	}

	sh, err := s.repo.GetShipmentByTrackingNumber(ctx, msg.TrackingNumber)
	if err != nil {
		return err
	}
	if sh == nil {
		slog.Info("carrier event for unknown tracking number, skipping", "tracking_number", msg.TrackingNumber)
		return nil
	}

	in := pgshipments.TrackingEventInput{
		Status:      msg.Status,
		EventTime:   msg.EventTime,
		Description: msg.Description,
	}
	if msg.Location != nil {
		in.Location = &models.LocationInput{
			Address:    msg.Location.Address,
			City:       msg.Location.City,
			State:      msg.Location.State,
			Country:    msg.Location.Country,
			PostalCode: msg.Location.PostalCode,
			Latitude:   msg.Location.Latitude,
			Longitude:  msg.Location.Longitude,
		}
	}

	if _, err := s.repo.AppendTrackingEvent(ctx, sh.ID, in); err != nil {
		return err
	}
	s.invalidateTracking(ctx, sh.TrackingNumber)
	return nil
}

func (s *Service) publishStatusChanged(ctx context.Context, oldStatus string, sh *models.Shipment, changedByID uint64) {
	if s.producer == nil || s.statusTopic == "" {
		return
	}
	msg := messages.ShipmentStatusChanged{
		ShipmentID:     sh.ID,
		TrackingNumber: sh.TrackingNumber,
		OldStatus:      oldStatus,
		NewStatus:      sh.Status,
		ChangedAt:      time.Now().UTC(),
		ChangedByID:    changedByID,
	}
	b, _ := json.Marshal(msg)
	if err := s.producer.Publish(ctx, s.statusTopic, []byte(strconv.FormatUint(sh.ID, 10)), b); err != nil {
		// Best effort: the row is already committed.
		slog.Error("publish status change failed", "shipment_id", sh.ID, "err", err)
	}
}

func (s *Service) invalidateTracking(ctx context.Context, trackingNumber string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, trackingKey(trackingNumber))
}

func trackingKey(trackingNumber string) string {
	return fmt.Sprintf("shipment:tn:%s", trackingNumber)
}
