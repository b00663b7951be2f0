package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/scoring"
	"github.com/seamark-project/backend/internal/source"
	"github.com/seamark-project/backend/internal/watermark"
	"github.com/seamark-project/backend/pkg/logger"
)

type fakeObservationRepo struct {
	observations []*contracts.Observation
	scoreWrites  int
	scoredRows   int
}

func (r *fakeObservationRepo) ListByAsset(context.Context, int64) ([]*contracts.Observation, error) {
	return r.observations, nil
}

func (r *fakeObservationRepo) ListByAssetAndMetric(_ context.Context, _, metricID int64) ([]*contracts.Observation, error) {
	var out []*contracts.Observation
	for _, o := range r.observations {
		if o.MetricID == metricID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeObservationRepo) InsertBatch(_ context.Context, obs []*contracts.Observation) error {
	r.observations = append(r.observations, obs...)
	return nil
}

func (r *fakeObservationRepo) UpdateBatch(context.Context, []*contracts.Observation) error {
	return nil
}

func (r *fakeObservationRepo) UpdateScores(_ context.Context, obs []*contracts.Observation) error {
	r.scoreWrites++
	r.scoredRows += len(obs)
	return nil
}

type fakePriceRepo struct{}

func (r *fakePriceRepo) ListByAsset(context.Context, int64) ([]*contracts.Price, error) {
	return nil, nil
}
func (r *fakePriceRepo) LatestByAsset(context.Context, int64) (*contracts.Price, error) {
	return nil, nil
}
func (r *fakePriceRepo) InsertBatch(context.Context, []*contracts.Price) error         { return nil }
func (r *fakePriceRepo) UpdateBatch(context.Context, []*contracts.Price) error         { return nil }
func (r *fakePriceRepo) UpdateBelievability(context.Context, []*contracts.Price) error { return nil }
func (r *fakePriceRepo) EarliestWithoutBelievability(context.Context, int64) (*contracts.Price, error) {
	return nil, nil
}
func (r *fakePriceRepo) DeleteFrom(context.Context, int64, time.Time) (int64, error) {
	return 0, nil
}

type fakeMarkRepo struct{}

func (r *fakeMarkRepo) LastMarkedDate(context.Context, int64) (time.Time, error) {
	return time.Time{}, nil
}
func (r *fakeMarkRepo) InsertBatch(context.Context, []*contracts.Watermark) error { return nil }
func (r *fakeMarkRepo) ListByPrice(context.Context, int64) ([]*contracts.Watermark, error) {
	return nil, nil
}

type emptyFetcher struct{}

func (emptyFetcher) Fetch(context.Context, string, time.Time) ([]source.PricePoint, error) {
	return nil, nil
}

func quarterlySeries(metricID int64, values []*float64) []*contracts.Observation {
	start := day("2022-03-31")
	out := make([]*contracts.Observation, len(values))
	for i := range values {
		out[i] = &contracts.Observation{
			ID:       int64(i + 1),
			AssetID:  1,
			MetricID: metricID,
			Date:     start.AddDate(0, 3*i, 0),
			Value:    values[i],
		}
	}
	return out
}

func TestRescore_CorrectedValueInvalidatesDownstreamScores(t *testing.T) {
	metrics := contracts.NewMetricSet([]*contracts.Metric{
		{ID: 20, Name: "eps"},
	})

	values := []*float64{
		contracts.Float(100), contracts.Float(110), contracts.Float(121),
		contracts.Float(133.1), contracts.Float(80), contracts.Float(161.051),
		contracts.Float(177.1561), contracts.Float(194.87171),
	}
	series := quarterlySeries(20, values)

	// Scores computed before the mid-series value was corrected to 80: every
	// stored statistic is stale.
	stale := 999.0
	for _, o := range series {
		o.Median, o.Std, o.Score = contracts.Float(stale), contracts.Float(stale), contracts.Float(stale)
	}

	obsRepo := &fakeObservationRepo{observations: series}
	prices := &fakePriceRepo{}
	engine := watermark.NewEngine(prices, &fakeMarkRepo{}, logger.NewNop())
	pipe := New(metrics, obsRepo, prices, emptyFetcher{}, engine, logger.NewNop())

	require.NoError(t, pipe.Run(context.Background(), &contracts.Asset{ID: 1, Symbol: "AAPL"}))
	require.Equal(t, 1, obsRepo.scoreWrites, "stale statistics must be rewritten")

	expected := scoring.NewCalculator(4).Series(values)
	for i, o := range series {
		want := expected[i]
		if want.Score == nil {
			assert.Nil(t, o.Score, "position %d", i)
			continue
		}
		require.NotNil(t, o.Score, "position %d", i)
		assert.InDelta(t, *want.Score, *o.Score, 1e-9, "position %d", i)
		assert.NotEqual(t, stale, *o.Score, "position %d keeps a pre-correction score", i)
	}

	// With the store now consistent, a second run writes nothing.
	require.NoError(t, pipe.Run(context.Background(), &contracts.Asset{ID: 1, Symbol: "AAPL"}))
	assert.Equal(t, 1, obsRepo.scoreWrites, "an unchanged series must be a no-op")
}
