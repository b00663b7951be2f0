package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seamark-project/backend/internal/contracts"
)

// ObservationRepository implements contracts.ObservationRepository.
// Unique key: (asset_id, metric_id, date).
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// NewObservationRepository creates a new observation repository.
func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

const observationColumns = `id, asset_id, metric_id, date, value, trailing_median, trailing_std, score`

// ListByAsset returns all observations for the asset in (metric, date) order.
func (r *ObservationRepository) ListByAsset(ctx context.Context, assetID int64) ([]*contracts.Observation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+observationColumns+`
		FROM observations
		WHERE asset_id = $1
		ORDER BY metric_id, date
	`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

// ListByAssetAndMetric returns the asset's time-ordered series for one metric.
func (r *ObservationRepository) ListByAssetAndMetric(ctx context.Context, assetID, metricID int64) ([]*contracts.Observation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+observationColumns+`
		FROM observations
		WHERE asset_id = $1 AND metric_id = $2
		ORDER BY date
	`, assetID, metricID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

// InsertBatch inserts observations in one round trip. A concurrent insert of
// an existing key is resolved by the store's conflict clause, not by a prior
// existence check.
func (r *ObservationRepository) InsertBatch(ctx context.Context, obs []*contracts.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(`
			INSERT INTO observations (asset_id, metric_id, date, value)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (asset_id, metric_id, date) DO NOTHING
		`, o.AssetID, o.MetricID, o.Date, o.Value)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// UpdateBatch updates observation values by surrogate id.
func (r *ObservationRepository) UpdateBatch(ctx context.Context, obs []*contracts.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(`
			UPDATE observations
			SET value = $2, last_modified = now()
			WHERE id = $1
		`, o.ID, o.Value)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// UpdateScores writes the derived trailing statistics by surrogate id.
func (r *ObservationRepository) UpdateScores(ctx context.Context, obs []*contracts.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(`
			UPDATE observations
			SET trailing_median = $2, trailing_std = $3, score = $4
			WHERE id = $1
		`, o.ID, o.Median, o.Std, o.Score)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func scanObservations(rows pgx.Rows) ([]*contracts.Observation, error) {
	var obs []*contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(&o.ID, &o.AssetID, &o.MetricID, &o.Date, &o.Value, &o.Median, &o.Std, &o.Score); err != nil {
			return nil, err
		}
		obs = append(obs, &o)
	}
	return obs, rows.Err()
}
