package loader

import (
	"context"

	"shipdesk/internal/models"
)

// Source is the storage slice the relation loaders batch against.
type Source interface {
	GetLocationsByIDs(ctx context.Context, ids []uint64) ([]*models.Location, error)
	GetUsersByIDs(ctx context.Context, ids []uint64) ([]*models.User, error)
}

// Loaders bundles the per-request relation loaders. Construct one at request
// start, pass it down the call chain, discard it at request end.
type Loaders struct {
	Locations *Loader[uint64, *models.Location]
	Users     *Loader[uint64, *models.User]
}

func NewLoaders(src Source) *Loaders {
	return &Loaders{
		Locations: New(func(ctx context.Context, ids []uint64) (map[uint64]*models.Location, error) {
			locs, err := src.GetLocationsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[uint64]*models.Location, len(locs))
			for _, l := range locs {
				out[l.ID] = l
			}
			return out, nil
		}),
		Users: New(func(ctx context.Context, ids []uint64) (map[uint64]*models.User, error) {
			users, err := src.GetUsersByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			out := make(map[uint64]*models.User, len(users))
			for _, u := range users {
				out[u.ID] = u
			}
			return out, nil
		}),
	}
}
