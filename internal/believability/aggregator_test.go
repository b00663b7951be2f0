package believability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamark-project/backend/internal/contracts"
)

func testMetrics() *contracts.MetricSet {
	core := contracts.MetricType{ID: 1, Name: "core", Weight: 2}
	aux := contracts.MetricType{ID: 2, Name: "auxiliary", Weight: 1}
	return contracts.NewMetricSet([]*contracts.Metric{
		{ID: 10, Name: "net_income", Types: []contracts.MetricType{core}},
		{ID: 11, Name: "sales_revenue", Types: []contracts.MetricType{core, aux}},
		{ID: 12, Name: "pe_ratio", Daily: true, Calculated: true, Types: []contracts.MetricType{aux}},
		{ID: 13, Name: "unclassified"},
	})
}

func TestAggregate_WeightedMean(t *testing.T) {
	agg := NewAggregator(testMetrics())

	res := agg.Aggregate(map[int64]*float64{
		10: contracts.Float(0.8), // weight 2
		11: contracts.Float(0.2), // weight 3
	})

	require.NotNil(t, res.Believability)
	// (0.8*2 + 0.2*3) / 5
	assert.InDelta(t, 0.44, *res.Believability, 1e-9)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 1.0, *res.Confidence, 1e-9)
	assert.Equal(t, 2, res.Scored)
	assert.Equal(t, 2, res.Applicable)
}

func TestAggregate_NilScoresCountTowardConfidenceOnly(t *testing.T) {
	agg := NewAggregator(testMetrics())

	res := agg.Aggregate(map[int64]*float64{
		10: contracts.Float(0.8),
		11: nil,
	})

	require.NotNil(t, res.Believability)
	assert.InDelta(t, 0.8, *res.Believability, 1e-9, "nil score excluded from the mean, not treated as zero")
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.5, *res.Confidence, 1e-9)
}

func TestAggregate_NothingScored(t *testing.T) {
	agg := NewAggregator(testMetrics())

	res := agg.Aggregate(map[int64]*float64{10: nil, 11: nil})
	assert.Nil(t, res.Believability)
	assert.Nil(t, res.Confidence)

	res = agg.Aggregate(nil)
	assert.Nil(t, res.Believability)
	assert.Nil(t, res.Confidence)
}

func TestAggregate_ZeroWeightMetric(t *testing.T) {
	agg := NewAggregator(testMetrics())

	// Only an unclassified metric scored: no weighted mean, but confidence
	// still reflects coverage.
	res := agg.Aggregate(map[int64]*float64{13: contracts.Float(0.9)})
	assert.Nil(t, res.Believability)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 1.0, *res.Confidence, 1e-9)
}

func TestBlend_SampleCountWeighting(t *testing.T) {
	daily := Result{
		Believability: contracts.Float(0.6),
		Confidence:    contracts.Float(1.0),
		Scored:        4,
		Applicable:    4,
	}
	quarterly := Result{
		Believability: contracts.Float(0.9),
		Confidence:    contracts.Float(0.5),
		Scored:        6,
		Applicable:    12,
	}

	res := Blend(daily, quarterly)

	require.NotNil(t, res.Believability)
	// (0.6*4 + 0.9*6) / 10
	assert.InDelta(t, 0.78, *res.Believability, 1e-9)
	require.NotNil(t, res.Confidence)
	// (4+6) / (4+12)
	assert.InDelta(t, 0.625, *res.Confidence, 1e-9)
}

func TestBlend_OneSideEmpty(t *testing.T) {
	quarterly := Result{
		Believability: contracts.Float(0.7),
		Confidence:    contracts.Float(0.75),
		Scored:        3,
		Applicable:    4,
	}

	res := Blend(Result{}, quarterly)
	require.NotNil(t, res.Believability)
	assert.InDelta(t, 0.7, *res.Believability, 1e-9)
	assert.InDelta(t, 0.75, *res.Confidence, 1e-9)
}

func TestBlend_UnweightedSideExcludedFromMean(t *testing.T) {
	// The daily side scored metrics, but all of them are zero-weight so it
	// carries no believability. It must not drag the blend toward zero.
	daily := Result{
		Confidence: contracts.Float(1.0),
		Scored:     2,
		Applicable: 2,
	}
	quarterly := Result{
		Believability: contracts.Float(0.8),
		Confidence:    contracts.Float(0.5),
		Scored:        3,
		Applicable:    6,
	}

	res := Blend(daily, quarterly)

	require.NotNil(t, res.Believability)
	assert.InDelta(t, 0.8, *res.Believability, 1e-9)
	require.NotNil(t, res.Confidence)
	// (2+3) / (2+6): counts still feed confidence.
	assert.InDelta(t, 0.625, *res.Confidence, 1e-9)

	res = Blend(daily, Result{Scored: 1, Applicable: 1})
	assert.Nil(t, res.Believability, "no side carries a believability value")
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 1.0, *res.Confidence, 1e-9)
}

func TestBlend_BothEmpty(t *testing.T) {
	res := Blend(Result{}, Result{})
	assert.Nil(t, res.Believability)
	assert.Nil(t, res.Confidence)
}
