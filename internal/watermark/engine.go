// Package watermark computes multi-horizon rolling return extrema for price
// series and combines them into one weighted signal per price record.
// Watermarks are immutable: once computed over a closed historical window they
// are inserted if absent and never updated.
package watermark

import (
	"context"
	"fmt"
	"time"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

// Horizons are the period-return horizons, in trading periods.
var Horizons = []int{1, 5, 21, 126, 252}

// Window is one extrema lookback window. Shorter windows carry higher weights,
// reflecting recency bias.
type Window struct {
	Name    string
	Periods int
	Weight  float64
}

// Windows are the six extrema lookback windows, shortest first.
var Windows = []Window{
	{Name: "mo_01", Periods: 21, Weight: 4},
	{Name: "mo_06", Periods: 126, Weight: 3},
	{Name: "yr_01", Periods: 252, Weight: 2},
	{Name: "yr_05", Periods: 1260, Weight: 1},
	{Name: "yr_10", Periods: 2520, Weight: 1},
	{Name: "yr_20", Periods: 5040, Weight: 1},
}

// MinPeriods is the coverage floor before a window emits an extremum: half
// the window, capped at one trading year.
func MinPeriods(window int) int {
	mp := window / 2
	if mp > 252 {
		mp = 252
	}
	return mp
}

// State describes an asset's watermark currency.
type State int

const (
	// StateUninitialized: the asset has no price history.
	StateUninitialized State = iota
	// StateStale: the latest price date is newer than the last marked date.
	StateStale
	// StateUpToDate: watermarks exist through the latest price date.
	StateUpToDate
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStale:
		return "stale"
	case StateUpToDate:
		return "up-to-date"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Engine computes and persists watermarks incrementally per asset.
type Engine struct {
	prices contracts.PriceRepository
	marks  contracts.WatermarkRepository
	logger *logger.Logger
}

// NewEngine creates a watermark engine over the given repositories.
func NewEngine(prices contracts.PriceRepository, marks contracts.WatermarkRepository, log *logger.Logger) *Engine {
	return &Engine{prices: prices, marks: marks, logger: log}
}

// StateOf reports the asset's watermark state.
func (e *Engine) StateOf(ctx context.Context, assetID int64) (State, error) {
	latest, err := e.prices.LatestByAsset(ctx, assetID)
	if err != nil {
		return StateUninitialized, err
	}
	if latest == nil {
		return StateUninitialized, nil
	}
	lastMarked, err := e.marks.LastMarkedDate(ctx, assetID)
	if err != nil {
		return StateUninitialized, err
	}
	if !latest.Date.After(lastMarked) {
		return StateUpToDate, nil
	}
	return StateStale, nil
}

// Run computes watermarks for every price date strictly after the last marked
// date and persists them insert-only. It short-circuits when the asset is
// already current and returns the number of rows handed to the store.
func (e *Engine) Run(ctx context.Context, asset *contracts.Asset) (int, error) {
	history, err := e.prices.ListByAsset(ctx, asset.ID)
	if err != nil {
		return 0, fmt.Errorf("load price history: %w", err)
	}
	if len(history) == 0 {
		e.logger.WithField("asset", asset.Symbol).
			Warn("No price history; import prices to get price movement")
		return 0, nil
	}

	lastMarked, err := e.marks.LastMarkedDate(ctx, asset.ID)
	if err != nil {
		return 0, fmt.Errorf("load last marked date: %w", err)
	}

	latest := history[len(history)-1].Date
	if !latest.After(lastMarked) {
		e.logger.WithField("asset", asset.Symbol).Debug("Watermark history is up-to-date")
		return 0, nil
	}

	rows := Compute(history, lastMarked)
	if len(rows) == 0 {
		return 0, nil
	}
	if err := e.marks.InsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("insert watermarks: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"asset": asset.Symbol,
		"rows":  len(rows),
	}).Info("Added watermark records")
	return len(rows), nil
}

// Compute builds watermark rows for every price strictly after the given
// date. The price history must be in ascending date order.
func Compute(history []*contracts.Price, after time.Time) []*contracts.Watermark {
	movements := buildMovements(history)

	start := len(history)
	for i, p := range history {
		if p.Date.After(after) {
			start = i
			break
		}
	}

	var rows []*contracts.Watermark
	for i := start; i < len(history); i++ {
		for h, series := range movements {
			high := markRow(history[i].ID, Horizons[h], true)
			low := markRow(history[i].ID, Horizons[h], false)
			populated := false
			for w, win := range Windows {
				hi, lo, ok := rollingExtrema(series, i, win.Periods)
				if !ok {
					continue
				}
				populated = true
				setWindow(high, w, hi)
				setWindow(low, w, lo)
			}
			if !populated {
				continue
			}
			high.Weighted = WeightedMark(windowValues(high))
			low.Weighted = WeightedMark(windowValues(low))
			rows = append(rows, high, low)
		}
	}
	return rows
}

// WeightedMark combines the six window extrema into one value. Missing
// windows are excluded from both numerator and denominator, never treated as
// zero. All windows missing yields nil.
func WeightedMark(extrema []*float64) *float64 {
	var num, den float64
	for i, v := range extrema {
		if v == nil {
			continue
		}
		num += *v * Windows[i].Weight
		den += Windows[i].Weight
	}
	if den == 0 {
		return nil
	}
	return contracts.Float(num / den)
}

// buildMovements computes the period-return series for each horizon:
// movement[h][i] = price[i]/price[i-h] - 1, nil where history is short or a
// price is missing.
func buildMovements(history []*contracts.Price) [][]*float64 {
	movements := make([][]*float64, len(Horizons))
	for h, horizon := range Horizons {
		series := make([]*float64, len(history))
		for i := range history {
			if i < horizon {
				continue
			}
			cur, base := history[i].Price, history[i-horizon].Price
			if cur == nil || base == nil || *base == 0 {
				continue
			}
			series[i] = contracts.Float(*cur / *base - 1)
		}
		movements[h] = series
	}
	return movements
}

// rollingExtrema returns the max and min of the trailing window ending at i,
// provided the window's minimum-period floor is met.
func rollingExtrema(series []*float64, i, window int) (hi, lo float64, ok bool) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	count := 0
	for _, v := range series[start : i+1] {
		if v == nil {
			continue
		}
		if count == 0 || *v > hi {
			hi = *v
		}
		if count == 0 || *v < lo {
			lo = *v
		}
		count++
	}
	if count < MinPeriods(window) {
		return 0, 0, false
	}
	return hi, lo, true
}

func markRow(priceID int64, horizon int, high bool) *contracts.Watermark {
	return &contracts.Watermark{PriceID: priceID, Horizon: horizon, HighMark: high}
}

func setWindow(m *contracts.Watermark, index int, value float64) {
	v := contracts.Float(value)
	switch index {
	case 0:
		m.Mo01 = v
	case 1:
		m.Mo06 = v
	case 2:
		m.Yr01 = v
	case 3:
		m.Yr05 = v
	case 4:
		m.Yr10 = v
	case 5:
		m.Yr20 = v
	}
}

func windowValues(m *contracts.Watermark) []*float64 {
	return []*float64{m.Mo01, m.Mo06, m.Yr01, m.Yr05, m.Yr10, m.Yr20}
}
