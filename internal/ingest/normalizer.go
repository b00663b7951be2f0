// Package ingest converts heterogeneous raw per-asset tables into canonical
// long-form observation records ready for reconciliation.
package ingest

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

// ErrBadDateColumn marks a table whose date column is not date-typed. The
// asset is skipped entirely rather than partially processed.
var ErrBadDateColumn = errors.New("date column is not date-typed")

// RawTable is one asset's wide table: a date column followed by one column
// per metric name. Cell values arrive as strings and are defensively checked.
type RawTable struct {
	Symbol string
	Header []string
	Rows   [][]string
}

// Normalizer reshapes raw wide tables into canonical observations.
type Normalizer struct {
	metrics *contracts.MetricSet
	logger  *logger.Logger
}

// NewNormalizer creates a normalizer using the run's metric lookup table.
func NewNormalizer(metrics *contracts.MetricSet, log *logger.Logger) *Normalizer {
	return &Normalizer{metrics: metrics, logger: log}
}

// Normalize converts the asset's raw table into long-form observations with
// dates aligned to quarter-end. Columns whose metric name is unknown are
// dropped and logged; the remaining columns still ingest. An empty table or a
// table without a date column yields zero records. A date column that fails
// to parse as dates returns ErrBadDateColumn.
func (n *Normalizer) Normalize(asset *contracts.Asset, table *RawTable) ([]*contracts.Observation, error) {
	if table == nil || len(table.Header) < 2 || len(table.Rows) == 0 {
		n.logger.WithField("asset", asset.Symbol).Warn("No ingestable data in raw table")
		return nil, nil
	}

	var unmapped []string
	columns := make([]*contracts.Metric, len(table.Header))
	for i, name := range table.Header[1:] {
		metric := n.metrics.ByName(strings.TrimSpace(name))
		if metric == nil {
			unmapped = append(unmapped, name)
			continue
		}
		columns[i+1] = metric
	}
	if len(unmapped) > 0 {
		n.logger.WithFields(map[string]interface{}{
			"asset":   asset.Symbol,
			"columns": unmapped,
		}).Warn("Dropping columns with unmapped metric names")
	}

	var records []*contracts.Observation
	for _, row := range table.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date, err := parseDate(row[0])
		if err != nil {
			n.logger.WithFields(map[string]interface{}{
				"asset": asset.Symbol,
				"cell":  row[0],
			}).Error("Raw table has non-date values in its date column")
			return nil, ErrBadDateColumn
		}
		date = QuarterEnd(date)

		for i := 1; i < len(row) && i < len(table.Header); i++ {
			metric := columns[i]
			if metric == nil {
				continue
			}
			records = append(records, &contracts.Observation{
				AssetID:  asset.ID,
				MetricID: metric.ID,
				Date:     date,
				Value:    parseValue(row[i]),
			})
		}
	}
	return records, nil
}

// QuarterEnd aligns a date to its canonical quarter-end boundary.
func QuarterEnd(t time.Time) time.Time {
	quarterEndMonth := ((int(t.Month())-1)/3 + 1) * 3 // 3, 6, 9, 12
	firstOfNext := time.Date(t.Year(), time.Month(quarterEndMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, cell)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseValue(cell string) *float64 {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}
