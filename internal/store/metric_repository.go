package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seamark-project/backend/internal/contracts"
)

// MetricRepository implements contracts.MetricRepository.
type MetricRepository struct {
	pool *pgxpool.Pool
}

// NewMetricRepository creates a new metric repository.
func NewMetricRepository(pool *pgxpool.Pool) *MetricRepository {
	return &MetricRepository{pool: pool}
}

// LoadSet loads every metric with its type classifications into a MetricSet.
// Called once per run; the set is passed by reference into each component
// that needs it.
func (r *MetricRepository) LoadSet(ctx context.Context) (*contracts.MetricSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.name, m.daily, m.calculated, t.id, t.name, t.weight
		FROM metrics m
		LEFT JOIN metric_type_members mm ON mm.metric_id = m.id
		LEFT JOIN metric_types t ON t.id = mm.type_id
		ORDER BY m.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*contracts.Metric)
	var order []*contracts.Metric
	for rows.Next() {
		var (
			m          contracts.Metric
			typeID     *int64
			typeName   *string
			typeWeight *float64
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Daily, &m.Calculated, &typeID, &typeName, &typeWeight); err != nil {
			return nil, err
		}
		metric, seen := byID[m.ID]
		if !seen {
			metric = &m
			byID[m.ID] = metric
			order = append(order, metric)
		}
		if typeID != nil {
			metric.Types = append(metric.Types, contracts.MetricType{
				ID:     *typeID,
				Name:   *typeName,
				Weight: *typeWeight,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contracts.NewMetricSet(order), nil
}
