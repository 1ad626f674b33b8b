package shipments

import (
	"context"

	"golang.org/x/sync/errgroup"

	"shipdesk/internal/apperr"
	"shipdesk/internal/loader"
	"shipdesk/internal/models"
	authsvc "shipdesk/internal/services/auth"
	"shipdesk/internal/storage/pgshipments"
)

// List runs the filter → sort → paginate pipeline. Rows and the total count
// share one predicate and run concurrently; relations for the whole page are
// batch-resolved afterwards.
func (s *Service) List(ctx context.Context, actor *models.User, filter models.ShipmentFilter, sort *models.ShipmentSort, page models.PageInput, loaders *loader.Loaders) (*models.ShipmentPage, error) {
	if err := s.authorize(actor, authsvc.ActionViewShipment, nil); err != nil {
		return nil, err
	}
	for _, st := range filter.Status {
		if !models.ValidStatus(st) {
			return nil, apperr.Newf(apperr.KindBadInput, "unknown status %q", st)
		}
	}

	q := pgshipments.BuildListQuery(filter, sort, &page)

	var (
		items []*models.Shipment
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListShipments(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountShipments(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.attachRelations(ctx, loaders, items...); err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}

	return &models.ShipmentPage{
		Items: items,
		PageInfo: models.PageInfo{
			CurrentPage:     q.Page,
			TotalPages:      totalPages,
			TotalCount:      total,
			HasNextPage:     q.Page < totalPages,
			HasPreviousPage: q.Page > 1,
		},
	}, nil
}

// attachRelations resolves the locations and audit users for a set of
// shipments in at most one round trip per entity type. A dangling reference
// leaves the relation nil rather than failing the query.
func (s *Service) attachRelations(ctx context.Context, loaders *loader.Loaders, items ...*models.Shipment) error {
	if loaders == nil || len(items) == 0 {
		return nil
	}

	locIDs := make([]uint64, 0, len(items)*2)
	userIDs := make([]uint64, 0, len(items)*2)
	for _, sh := range items {
		locIDs = append(locIDs, sh.PickupLocationID, sh.DeliveryLocationID)
		userIDs = append(userIDs, sh.CreatedByID, sh.UpdatedByID)
	}

	var (
		locs  map[uint64]*models.Location
		users map[uint64]*models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locs, err = loaders.Locations.LoadMany(gctx, locIDs)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = loaders.Users.LoadMany(gctx, userIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, sh := range items {
		sh.PickupLocation = locs[sh.PickupLocationID]
		sh.DeliveryLocation = locs[sh.DeliveryLocationID]
		sh.CreatedBy = users[sh.CreatedByID]
		sh.UpdatedBy = users[sh.UpdatedByID]
	}
	return nil
}
