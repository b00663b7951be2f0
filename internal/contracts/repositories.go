package contracts

import (
	"context"
	"time"
)

// Repository interfaces define the persisted-store contract the pipeline
// depends on. The core never touches store internals (schema reflection,
// connection pooling); those live behind these interfaces.

// AssetRepository lists tracked assets. Onboarding is external; the pipeline
// only reads.
type AssetRepository interface {
	List(ctx context.Context) ([]*Asset, error)
	GetBySymbol(ctx context.Context, symbol string) (*Asset, error)
}

// MetricRepository loads the static metric reference data, including type
// classifications and their believability weights.
type MetricRepository interface {
	LoadSet(ctx context.Context) (*MetricSet, error)
}

// ObservationRepository manages metric observations and their derived
// trailing statistics.
type ObservationRepository interface {
	ListByAsset(ctx context.Context, assetID int64) ([]*Observation, error)
	ListByAssetAndMetric(ctx context.Context, assetID, metricID int64) ([]*Observation, error)
	// InsertBatch inserts new observations, resolving key conflicts with the
	// store's native ignore-on-conflict semantics.
	InsertBatch(ctx context.Context, obs []*Observation) error
	// UpdateBatch updates existing observations by surrogate id.
	UpdateBatch(ctx context.Context, obs []*Observation) error
	// UpdateScores writes trailing median, std and score by surrogate id.
	UpdateScores(ctx context.Context, obs []*Observation) error
}

// PriceRepository manages price observations and their believability columns.
type PriceRepository interface {
	ListByAsset(ctx context.Context, assetID int64) ([]*Price, error)
	LatestByAsset(ctx context.Context, assetID int64) (*Price, error)
	InsertBatch(ctx context.Context, prices []*Price) error
	UpdateBatch(ctx context.Context, prices []*Price) error
	// UpdateBelievability writes believability and confidence by surrogate id.
	UpdateBelievability(ctx context.Context, prices []*Price) error
	// EarliestWithoutBelievability returns the first price record for the
	// asset that has no believability value, or nil when every record has one.
	EarliestWithoutBelievability(ctx context.Context, assetID int64) (*Price, error)
	// DeleteFrom removes the asset's price records at or after the given date.
	// This is the correction cascade's only deletion path.
	DeleteFrom(ctx context.Context, assetID int64, from time.Time) (int64, error)
}

// WatermarkRepository manages the insert-only watermark history.
type WatermarkRepository interface {
	// LastMarkedDate returns the latest price date for which the asset has
	// watermarks, or the zero time when it has none.
	LastMarkedDate(ctx context.Context, assetID int64) (time.Time, error)
	// InsertBatch inserts watermarks, ignoring rows whose key already exists.
	InsertBatch(ctx context.Context, marks []*Watermark) error
	ListByPrice(ctx context.Context, priceID int64) ([]*Watermark, error)
}
