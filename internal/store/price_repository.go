package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seamark-project/backend/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository.
// Unique key: (asset_id, date).
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

const priceColumns = `id, asset_id, date, price, believability, confidence`

// ListByAsset returns the asset's full price history in ascending date order.
func (r *PriceRepository) ListByAsset(ctx context.Context, assetID int64) ([]*contracts.Price, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE asset_id = $1
		ORDER BY date
	`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// LatestByAsset returns the most recent price record, or nil when the asset
// has no price history.
func (r *PriceRepository) LatestByAsset(ctx context.Context, assetID int64) (*contracts.Price, error) {
	var p contracts.Price
	err := r.pool.QueryRow(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE asset_id = $1
		ORDER BY date DESC
		LIMIT 1
	`, assetID).Scan(&p.ID, &p.AssetID, &p.Date, &p.Price, &p.Believability, &p.Confidence)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertBatch inserts price records, ignoring keys that already exist.
func (r *PriceRepository) InsertBatch(ctx context.Context, prices []*contracts.Price) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			INSERT INTO prices (asset_id, date, price)
			VALUES ($1, $2, $3)
			ON CONFLICT (asset_id, date) DO NOTHING
		`, p.AssetID, p.Date, p.Price)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// UpdateBatch updates price values by surrogate id (the rare correction case).
func (r *PriceRepository) UpdateBatch(ctx context.Context, prices []*contracts.Price) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			UPDATE prices
			SET price = $2, last_modified = now()
			WHERE id = $1
		`, p.ID, p.Price)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// UpdateBelievability writes the aggregated believability/confidence pair by
// surrogate id.
func (r *PriceRepository) UpdateBelievability(ctx context.Context, prices []*contracts.Price) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			UPDATE prices
			SET believability = $2, confidence = $3
			WHERE id = $1
		`, p.ID, p.Believability, p.Confidence)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// EarliestWithoutBelievability returns the first price record lacking a
// believability value, or nil when the history is fully scored.
func (r *PriceRepository) EarliestWithoutBelievability(ctx context.Context, assetID int64) (*contracts.Price, error) {
	var p contracts.Price
	err := r.pool.QueryRow(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE asset_id = $1 AND believability IS NULL
		ORDER BY date
		LIMIT 1
	`, assetID).Scan(&p.ID, &p.AssetID, &p.Date, &p.Price, &p.Believability, &p.Confidence)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteFrom removes the asset's price records dated at or after from.
// Dependent watermarks go with them via the store's cascade; this is the
// correction path only, never part of normal reconciliation.
func (r *PriceRepository) DeleteFrom(ctx context.Context, assetID int64, from time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM prices
		WHERE asset_id = $1 AND date >= $2
	`, assetID, from)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPrices(rows pgx.Rows) ([]*contracts.Price, error) {
	var prices []*contracts.Price
	for rows.Next() {
		var p contracts.Price
		if err := rows.Scan(&p.ID, &p.AssetID, &p.Date, &p.Price, &p.Believability, &p.Confidence); err != nil {
			return nil, err
		}
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}
