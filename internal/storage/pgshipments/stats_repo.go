package pgshipments

import (
	"context"

	"github.com/pkg/errors"

	"shipdesk/internal/models"
)

func (s *Storage) GetShipmentStats(ctx context.Context) (*models.ShipmentStats, error) {
	var stats models.ShipmentStats
	err := s.db.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(AVG(rate), 0) FROM shipments
`).Scan(&stats.Total, &stats.AverageRate)
	if err != nil {
		return nil, errors.Wrap(err, "select totals")
	}

	rows, err := s.db.Query(ctx, `
SELECT status, COUNT(*) FROM shipments GROUP BY status ORDER BY status
`)
	if err != nil {
		return nil, errors.Wrap(err, "select status counts")
	}
	defer rows.Close()

	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, errors.Wrap(err, "scan status count")
		}
		stats.PerStatusCounts = append(stats.PerStatusCounts, sc)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return &stats, nil
}
