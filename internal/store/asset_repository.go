// Package store implements the persisted-store contract from
// internal/contracts over PostgreSQL. Record schemas and unique keys are
// declared explicitly here; nothing is discovered by reflection at runtime.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seamark-project/backend/internal/contracts"
)

// AssetRepository implements contracts.AssetRepository.
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// List returns all tracked assets ordered by id.
func (r *AssetRepository) List(ctx context.Context) ([]*contracts.Asset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, symbol
		FROM assets
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*contracts.Asset
	for rows.Next() {
		var a contracts.Asset
		if err := rows.Scan(&a.ID, &a.Symbol); err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

// GetBySymbol returns the asset with the given display symbol, or nil.
func (r *AssetRepository) GetBySymbol(ctx context.Context, symbol string) (*contracts.Asset, error) {
	var a contracts.Asset
	err := r.pool.QueryRow(ctx, `
		SELECT id, symbol
		FROM assets
		WHERE symbol = $1
	`, symbol).Scan(&a.ID, &a.Symbol)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
