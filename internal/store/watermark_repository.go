package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seamark-project/backend/internal/contracts"
)

// WatermarkRepository implements contracts.WatermarkRepository.
// Unique key: (price_id, horizon, high_mark). Insert-only: watermarks are
// never updated once written.
type WatermarkRepository struct {
	pool *pgxpool.Pool
}

// NewWatermarkRepository creates a new watermark repository.
func NewWatermarkRepository(pool *pgxpool.Pool) *WatermarkRepository {
	return &WatermarkRepository{pool: pool}
}

// LastMarkedDate returns the latest price date with watermark coverage for
// the asset, or the zero time when none exists.
func (r *WatermarkRepository) LastMarkedDate(ctx context.Context, assetID int64) (time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT max(p.date)
		FROM prices p
		JOIN watermarks w ON w.price_id = p.id
		WHERE p.asset_id = $1
	`, assetID).Scan(&last)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// InsertBatch inserts watermark rows, silently skipping keys that already
// exist.
func (r *WatermarkRepository) InsertBatch(ctx context.Context, marks []*contracts.Watermark) error {
	if len(marks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range marks {
		batch.Queue(`
			INSERT INTO watermarks
				(price_id, horizon, high_mark, mo_01, mo_06, yr_01, yr_05, yr_10, yr_20, weighted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (price_id, horizon, high_mark) DO NOTHING
		`, m.PriceID, m.Horizon, m.HighMark, m.Mo01, m.Mo06, m.Yr01, m.Yr05, m.Yr10, m.Yr20, m.Weighted)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListByPrice returns all watermark rows for one price record.
func (r *WatermarkRepository) ListByPrice(ctx context.Context, priceID int64) ([]*contracts.Watermark, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT price_id, horizon, high_mark, mo_01, mo_06, yr_01, yr_05, yr_10, yr_20, weighted
		FROM watermarks
		WHERE price_id = $1
		ORDER BY horizon, high_mark
	`, priceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var marks []*contracts.Watermark
	for rows.Next() {
		var m contracts.Watermark
		if err := rows.Scan(&m.PriceID, &m.Horizon, &m.HighMark,
			&m.Mo01, &m.Mo06, &m.Yr01, &m.Yr05, &m.Yr10, &m.Yr20, &m.Weighted); err != nil {
			return nil, err
		}
		marks = append(marks, &m)
	}
	return marks, rows.Err()
}
