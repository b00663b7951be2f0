package watermark

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

func TestMinPeriods(t *testing.T) {
	tests := []struct {
		window int
		want   int
	}{
		{21, 10},
		{126, 63},
		{252, 126},
		{1260, 252},
		{2520, 252},
		{5040, 252},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MinPeriods(tt.window), "window %d", tt.window)
	}
}

func TestWeightedMark_ExcludesMissingWindows(t *testing.T) {
	got := WeightedMark([]*float64{
		contracts.Float(0.2), // mo_01, weight 4
		nil,                  // mo_06
		contracts.Float(0.1), // yr_01, weight 2
		nil, nil, nil,
	})

	require.NotNil(t, got)
	// (0.2*4 + 0.1*2) / (4+2); missing windows shrink the denominator.
	assert.InDelta(t, 1.0/6, *got, 1e-9)
}

func TestWeightedMark_AllPresent(t *testing.T) {
	got := WeightedMark([]*float64{
		contracts.Float(1), contracts.Float(1), contracts.Float(1),
		contracts.Float(1), contracts.Float(1), contracts.Float(1),
	})
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)
}

func TestWeightedMark_AllMissing(t *testing.T) {
	assert.Nil(t, WeightedMark(make([]*float64, 6)))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "stale", StateStale.String())
	assert.Equal(t, "up-to-date", StateUpToDate.String())
}

// compoundingHistory builds n daily prices growing 1% per day.
func compoundingHistory(n int) []*contracts.Price {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]*contracts.Price, n)
	for i := range out {
		out[i] = &contracts.Price{
			ID:      int64(i + 1),
			AssetID: 1,
			Date:    start.AddDate(0, 0, i),
			Price:   contracts.Float(100 * math.Pow(1.01, float64(i))),
		}
	}
	return out
}

func TestCompute_ShortHistoryEmitsShortWindowsOnly(t *testing.T) {
	history := compoundingHistory(12)

	rows := Compute(history, time.Time{})

	// Only the one-period horizon reaches the one-month window's floor of ten
	// movements, and only at the last two dates. High and low per date.
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.Equal(t, 1, row.Horizon)
		require.NotNil(t, row.Mo01)
		assert.InDelta(t, 0.01, *row.Mo01, 1e-9)
		assert.Nil(t, row.Mo06)
		assert.Nil(t, row.Yr20)
		require.NotNil(t, row.Weighted)
		assert.InDelta(t, 0.01, *row.Weighted, 1e-9)
	}
}

func TestCompute_HighAndLowPerHorizon(t *testing.T) {
	history := compoundingHistory(12)

	rows := Compute(history, history[10].Date)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].HighMark)
	assert.False(t, rows[1].HighMark)
	assert.Equal(t, history[11].ID, rows[0].PriceID)
	assert.Equal(t, history[11].ID, rows[1].PriceID)
}

func TestCompute_OnlyDatesAfterCursor(t *testing.T) {
	history := compoundingHistory(12)

	all := Compute(history, time.Time{})
	incremental := Compute(history, history[10].Date)

	assert.Greater(t, len(all), len(incremental))
	for _, row := range incremental {
		assert.Equal(t, history[11].ID, row.PriceID, "rows only for the unmarked tail")
	}
}

func TestCompute_MissingPricesBreakMovements(t *testing.T) {
	history := compoundingHistory(13)
	history[5].Price = nil

	rows := Compute(history, time.Time{})

	// Movements touching the hole vanish; coverage only clears the floor at
	// the final date.
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, history[12].ID, row.PriceID)
	}
}

type fakePriceRepo struct {
	prices []*contracts.Price
}

func (r *fakePriceRepo) ListByAsset(context.Context, int64) ([]*contracts.Price, error) {
	return r.prices, nil
}

func (r *fakePriceRepo) LatestByAsset(context.Context, int64) (*contracts.Price, error) {
	if len(r.prices) == 0 {
		return nil, nil
	}
	return r.prices[len(r.prices)-1], nil
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

type fakeMarkRepo struct {
	lastMarked time.Time
	inserted   []*contracts.Watermark
}

func (r *fakeMarkRepo) LastMarkedDate(context.Context, int64) (time.Time, error) {
	return r.lastMarked, nil
}

func (r *fakeMarkRepo) InsertBatch(_ context.Context, marks []*contracts.Watermark) error {
	r.inserted = append(r.inserted, marks...)
	return nil
}

func (r *fakeMarkRepo) ListByPrice(context.Context, int64) ([]*contracts.Watermark, error) {
	return nil, nil
}

func TestEngine_StateOf(t *testing.T) {
	history := compoundingHistory(12)

	engine := NewEngine(&fakePriceRepo{}, &fakeMarkRepo{}, logger.NewNop())
	state, err := engine.StateOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, state)

	engine = NewEngine(&fakePriceRepo{prices: history}, &fakeMarkRepo{}, logger.NewNop())
	state, err = engine.StateOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateStale, state)

	engine = NewEngine(
		&fakePriceRepo{prices: history},
		&fakeMarkRepo{lastMarked: history[11].Date},
		logger.NewNop(),
	)
	state, err = engine.StateOf(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateUpToDate, state)
}

func TestEngine_RunShortCircuitsWhenCurrent(t *testing.T) {
	history := compoundingHistory(12)
	marks := &fakeMarkRepo{lastMarked: history[11].Date}
	engine := NewEngine(&fakePriceRepo{prices: history}, marks, logger.NewNop())

	n, err := engine.Run(context.Background(), &contracts.Asset{ID: 1, Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, marks.inserted)
}

func TestEngine_RunInsertsUnmarkedTail(t *testing.T) {
	history := compoundingHistory(12)
	marks := &fakeMarkRepo{lastMarked: history[10].Date}
	engine := NewEngine(&fakePriceRepo{prices: history}, marks, logger.NewNop())

	n, err := engine.Run(context.Background(), &contracts.Asset{ID: 1, Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, marks.inserted, 2)
}
