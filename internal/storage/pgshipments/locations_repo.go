package pgshipments

import (
	"context"

	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

// GetLocationsByIDs is the batch fetch behind the location relation loader.
func (s *Storage) GetLocationsByIDs(ctx context.Context, ids []uint64) ([]*models.Location, error) {
	if len(ids) == 0 {
		return []*models.Location{}, nil
	}

	rows, err := s.db.Query(ctx, `
SELECT id, address, city, state, country, postal_code, latitude, longitude
FROM locations
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select locations")
	}
	defer rows.Close()

	out := make([]*models.Location, 0, len(ids))
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Address, &l.City, &l.State, &l.Country, &l.PostalCode, &l.Latitude, &l.Longitude); err != nil {
			return nil, errors.Wrap(err, "scan location")
		}
		out = append(out, &l)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
