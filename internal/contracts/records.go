package contracts

import (
	"fmt"
	"time"
)

// DateFormat is the canonical date encoding used in record keys.
const DateFormat = "2006-01-02"

// Observation is a single (asset, metric, date) -> value data point, plus the
// trailing statistics derived for it. Median, Std and Score stay nil until the
// minimum trailing-period coverage is reached.
type Observation struct {
	ID       int64
	AssetID  int64
	MetricID int64
	Date     time.Time
	Value    *float64

	Median *float64
	Std    *float64
	Score  *float64
}

// UniqueKey returns the declared unique-key encoding for the observation.
func (o *Observation) UniqueKey() string {
	return fmt.Sprintf("%d|%d|%s", o.AssetID, o.MetricID, o.Date.Format(DateFormat))
}

// RowID returns the surrogate id, zero when unsaved.
func (o *Observation) RowID() int64 { return o.ID }

// SetRowID stamps the persisted surrogate id onto the record.
func (o *Observation) SetRowID(id int64) { o.ID = id }

// NumericValue returns the observation value and whether it is present.
func (o *Observation) NumericValue() (float64, bool) {
	if o.Value == nil {
		return 0, false
	}
	return *o.Value, true
}

// Price is a single (asset, date) -> price data point. Believability and
// Confidence are the per-entity aggregates derived for the date; they stay nil
// until the aggregator has run over the date's scores.
type Price struct {
	ID      int64
	AssetID int64
	Date    time.Time
	Price   *float64

	Believability *float64
	Confidence    *float64
}

// UniqueKey returns the declared unique-key encoding for the price record.
func (p *Price) UniqueKey() string {
	return fmt.Sprintf("%d|%s", p.AssetID, p.Date.Format(DateFormat))
}

// RowID returns the surrogate id, zero when unsaved.
func (p *Price) RowID() int64 { return p.ID }

// SetRowID stamps the persisted surrogate id onto the record.
func (p *Price) SetRowID(id int64) { p.ID = id }

// NumericValue returns the price value and whether it is present.
func (p *Price) NumericValue() (float64, bool) {
	if p.Price == nil {
		return 0, false
	}
	return *p.Price, true
}

// Watermark holds the rolling return extrema for one price record, one
// movement horizon and one mark direction. Immutable once computed: the store
// only ever inserts watermarks, never updates them.
type Watermark struct {
	PriceID  int64
	Horizon  int // movement horizon in trading periods (1, 5, 21, 126, 252)
	HighMark bool

	// Extrema per lookback window, nil where the window's minimum-period
	// floor is not yet met.
	Mo01 *float64
	Mo06 *float64
	Yr01 *float64
	Yr05 *float64
	Yr10 *float64
	Yr20 *float64

	// Weighted combination of the non-nil window extrema.
	Weighted *float64
}

// Believability is the per-asset, per-date confidence aggregate.
type Believability struct {
	AssetID       int64
	Date          time.Time
	Believability *float64
	Confidence    *float64
}

// Float returns a pointer to v. Convenience for nullable numeric columns.
func Float(v float64) *float64 { return &v }
