package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fs(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

func TestCalculator_WindowAndFloor(t *testing.T) {
	quarterly := NewCalculator(4)
	assert.Equal(t, 80, quarterly.Window())
	assert.Equal(t, 4, quarterly.MinPeriods())

	daily := NewCalculator(252)
	assert.Equal(t, 5040, daily.Window())
	assert.Equal(t, 252, daily.MinPeriods())
}

func TestCalculator_BelowMinPeriodsYieldsNothing(t *testing.T) {
	calc := NewCalculator(4)
	points := calc.Series(fs(100, 110, 121))

	for i, p := range points {
		assert.Nil(t, p.Median, "position %d", i)
		assert.Nil(t, p.Std, "position %d", i)
		assert.Nil(t, p.Score, "position %d", i)
	}
}

func TestCalculator_CompoundingSeries(t *testing.T) {
	// 10% compounding quarterly series; statistics kick in at the fourth value.
	calc := NewCalculator(4)
	points := calc.Series(fs(100, 110, 121, 133.1, 146.41))

	require.NotNil(t, points[3].Median)
	assert.InDelta(t, 115.5, *points[3].Median, 1e-9)
	require.NotNil(t, points[3].Std)
	assert.InDelta(t, 14.25257288, *points[3].Std, 1e-6)
	require.NotNil(t, points[3].Score)
	assert.InDelta(t, 0.9467673, *points[3].Score, 1e-6)

	// Earlier positions stay nil, later ones keep scoring.
	assert.Nil(t, points[2].Score)
	require.NotNil(t, points[4].Score)
	assert.Greater(t, *points[4].Score, 0.5, "value above trailing median scores above midpoint")
}

func TestCalculator_ScoreFormula(t *testing.T) {
	calc := NewCalculator(4)
	p := calc.At(fs(1, 2, 3, 4), 3)

	require.NotNil(t, p.Score)
	// median 2.5, sample std sqrt(5/3); score = 0.5 + 1.5/(2*1.382*std).
	assert.InDelta(t, 2.5, *p.Median, 1e-9)
	assert.InDelta(t, 1.290994449, *p.Std, 1e-6)
	assert.InDelta(t, 0.920367, *p.Score, 1e-5)
}

func TestCalculator_ZeroStdYieldsNilScore(t *testing.T) {
	calc := NewCalculator(4)
	p := calc.At(fs(7, 7, 7, 7), 3)

	require.NotNil(t, p.Median)
	assert.Equal(t, 7.0, *p.Median)
	require.NotNil(t, p.Std)
	assert.Zero(t, *p.Std)
	assert.Nil(t, p.Score, "indeterminate score on zero variance, not a division error")
}

func TestCalculator_NilValueGetsStatsButNoScore(t *testing.T) {
	calc := NewCalculator(4)
	values := fs(1, 2, 3, 4, 5)
	values = append(values, nil)

	p := calc.At(values, 5)
	assert.NotNil(t, p.Median)
	assert.NotNil(t, p.Std)
	assert.Nil(t, p.Score)
}

func TestCalculator_GapsConsumeSlotsNotCoverage(t *testing.T) {
	calc := NewCalculator(4)
	values := []*float64{fs(1)[0], nil, fs(2)[0], fs(3)[0]}

	// Only three real values in the window: below the floor of four.
	p := calc.At(values, 3)
	assert.Nil(t, p.Median)
}

func TestCalculator_TrailingWindowExcludesOldValues(t *testing.T) {
	calc := NewCalculator(1) // window 20
	values := make([]*float64, 25)
	for i := range values {
		v := float64(i)
		values[i] = &v
	}

	p := calc.At(values, 24)
	require.NotNil(t, p.Median)
	// Window covers values 5..24.
	assert.InDelta(t, 14.5, *p.Median, 1e-9)
}

func TestCalculator_OutOfRangeIndex(t *testing.T) {
	calc := NewCalculator(4)
	assert.Equal(t, Point{}, calc.At(fs(1, 2, 3, 4), -1))
	assert.Equal(t, Point{}, calc.At(fs(1, 2, 3, 4), 4))
}

func TestMedian_EvenAndOdd(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}
