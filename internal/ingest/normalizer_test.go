package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

func testMetrics() *contracts.MetricSet {
	return contracts.NewMetricSet([]*contracts.Metric{
		{ID: 1, Name: "net_income"},
		{ID: 2, Name: "sales_revenue"},
	})
}

func testAsset() *contracts.Asset {
	return &contracts.Asset{ID: 1, Symbol: "AAPL"}
}

func TestQuarterEnd(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-03-31"},
		{"2024-03-31", "2024-03-31"},
		{"2024-04-01", "2024-06-30"},
		{"2024-08-09", "2024-09-30"},
		{"2024-11-30", "2024-12-31"},
		{"2024-12-31", "2024-12-31"},
	}
	for _, tt := range tests {
		in, err := time.Parse("2006-01-02", tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, QuarterEnd(in).Format("2006-01-02"), "input %s", tt.in)
	}
}

func TestNormalize_WideToLong(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	records, err := n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income", "sales_revenue"},
		Rows: [][]string{
			{"2024-02-10", "1,234.5", "9000"},
			{"2024-05-01", "1300", ""},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, int64(1), records[0].MetricID)
	assert.Equal(t, "2024-03-31", records[0].Date.Format(contracts.DateFormat))
	require.NotNil(t, records[0].Value)
	assert.InDelta(t, 1234.5, *records[0].Value, 1e-9, "thousands separators are stripped")

	// Empty cell becomes a nil value, not zero.
	assert.Nil(t, records[3].Value)
}

func TestNormalize_UnmappedColumnsDropped(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	records, err := n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income", "mystery_metric"},
		Rows: [][]string{
			{"2024-02-10", "100", "42"},
		},
	})
	require.NoError(t, err)

	// The unknown column is dropped; the mapped one still ingests.
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].MetricID)
}

func TestNormalize_BadDateColumn(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	_, err := n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income"},
		Rows: [][]string{
			{"2024-02-10", "100"},
			{"not a date", "200"},
		},
	})
	assert.ErrorIs(t, err, ErrBadDateColumn, "the whole table is rejected, never partially ingested")
}

func TestNormalize_EmptyTable(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	records, err := n.Normalize(testAsset(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income"},
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNormalize_BlankDateRowsSkipped(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	records, err := n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income"},
		Rows: [][]string{
			{"", "999"},
			{"2024-02-10", "100"},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 100, *records[0].Value, 1e-9)
}

func TestNormalize_DateLayouts(t *testing.T) {
	n := NewNormalizer(testMetrics(), logger.NewNop())

	records, err := n.Normalize(testAsset(), &RawTable{
		Symbol: "AAPL",
		Header: []string{"date", "net_income"},
		Rows: [][]string{
			{"02/10/2024", "1"},
			{"2024-05-10 00:00:00", "2"},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-03-31", records[0].Date.Format(contracts.DateFormat))
	assert.Equal(t, "2024-06-30", records[1].Date.Format(contracts.DateFormat))
}
