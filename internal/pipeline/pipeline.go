// Package pipeline sequences the per-asset batch run: fetch and reconcile
// prices, derive growth and daily ratio metrics, recompute trailing scores,
// aggregate believability and extend the watermark history. Steps within one
// asset are strictly sequential; assets are processed independently.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seamark-project/backend/internal/believability"
	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/growth"
	"github.com/seamark-project/backend/internal/reconcile"
	"github.com/seamark-project/backend/internal/scoring"
	"github.com/seamark-project/backend/internal/source"
	"github.com/seamark-project/backend/internal/watermark"
	"github.com/seamark-project/backend/pkg/logger"
)

// PriceFetcher is the black-box price source contract.
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol string, start time.Time) ([]source.PricePoint, error)
}

// Pipeline runs the full derivation chain for one asset at a time.
type Pipeline struct {
	metrics      *contracts.MetricSet
	observations contracts.ObservationRepository
	prices       contracts.PriceRepository
	priceSource  PriceFetcher
	marks        *watermark.Engine
	aggregator   *believability.Aggregator
	growthSpecs  []contracts.GrowthSpec
	logger       *logger.Logger
}

// New creates a pipeline. The metric set is loaded once per run and shared.
func New(
	metrics *contracts.MetricSet,
	observations contracts.ObservationRepository,
	prices contracts.PriceRepository,
	priceSource PriceFetcher,
	marks *watermark.Engine,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		metrics:      metrics,
		observations: observations,
		prices:       prices,
		priceSource:  priceSource,
		marks:        marks,
		aggregator:   believability.NewAggregator(metrics),
		growthSpecs:  contracts.DefaultGrowthSpecs(),
		logger:       log,
	}
}

// Run executes the asset's pipeline end to end. Reconciliation fully commits
// before score recomputation reads the new state.
func (p *Pipeline) Run(ctx context.Context, asset *contracts.Asset) error {
	log := p.logger.WithField("asset", asset.Symbol)

	if err := p.refreshPrices(ctx, asset); err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}

	if err := p.deriveGrowth(ctx, asset); err != nil {
		return fmt.Errorf("derive growth: %w", err)
	}

	if err := p.deriveDailyRatios(ctx, asset); err != nil {
		return fmt.Errorf("derive daily ratios: %w", err)
	}

	if err := p.rescore(ctx, asset); err != nil {
		return fmt.Errorf("recompute scores: %w", err)
	}

	if err := p.aggregateBelievability(ctx, asset); err != nil {
		return fmt.Errorf("aggregate believability: %w", err)
	}

	if _, err := p.marks.Run(ctx, asset); err != nil {
		return fmt.Errorf("compute watermarks: %w", err)
	}

	log.Debug("Asset pipeline finished")
	return nil
}

// refreshPrices pulls new prices from the source and reconciles them into the
// store.
func (p *Pipeline) refreshPrices(ctx context.Context, asset *contracts.Asset) error {
	persisted, err := p.prices.ListByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}

	// Default fetch start: twenty years back, matching the scoring window.
	start := time.Now().AddDate(-20, 0, 0)
	if len(persisted) > 0 {
		start = persisted[len(persisted)-1].Date
	}

	points, err := p.priceSource.Fetch(ctx, asset.Symbol, start)
	if err != nil {
		return err
	}
	if len(points) == 0 && len(persisted) == 0 {
		p.logger.WithField("asset", asset.Symbol).Warn("No source or database price records")
		return nil
	}

	incoming := make([]*contracts.Price, 0, len(points))
	for _, pt := range points {
		incoming = append(incoming, &contracts.Price{
			AssetID: asset.ID,
			Date:    pt.Date,
			Price:   contracts.Float(pt.Price),
		})
	}

	inserts, updates := reconcile.Reconcile(incoming, persisted)
	executor := reconcile.NewExecutor[*contracts.Price](p.prices, p.logger)
	if _, err := executor.Apply(ctx, inserts, updates); err != nil {
		return err
	}
	return nil
}

// deriveGrowth synthesizes the annualized growth series for each designated
// base metric and reconciles them back as ordinary calculated metrics.
func (p *Pipeline) deriveGrowth(ctx context.Context, asset *contracts.Asset) error {
	for _, spec := range p.growthSpecs {
		base := p.metrics.ByName(spec.BaseMetric)
		derived := p.metrics.ByName(spec.DerivedMetric)
		if base == nil || derived == nil {
			p.logger.WithFields(map[string]interface{}{
				"asset":  asset.Symbol,
				"metric": spec.BaseMetric,
			}).Warn("Growth spec references unknown metric")
			continue
		}

		series, err := p.observations.ListByAssetAndMetric(ctx, asset.ID, base.ID)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			continue
		}

		values := make([]*float64, len(series))
		for i, o := range series {
			values[i] = o.Value
		}
		grown := growth.Annualized(values, spec.Years, base.PeriodsPerYear())

		incoming := make([]*contracts.Observation, 0, len(grown))
		for i, g := range grown {
			if g == nil {
				continue
			}
			incoming = append(incoming, &contracts.Observation{
				AssetID:  asset.ID,
				MetricID: derived.ID,
				Date:     series[i].Date,
				Value:    g,
			})
		}

		persisted, err := p.observations.ListByAssetAndMetric(ctx, asset.ID, derived.ID)
		if err != nil {
			return err
		}
		inserts, updates := reconcile.Reconcile(incoming, persisted)
		executor := reconcile.NewExecutor[*contracts.Observation](p.observations, p.logger)
		if _, err := executor.Apply(ctx, inserts, updates); err != nil {
			return err
		}
	}
	return nil
}

// ratioTermMetrics are the quarterly base metrics joined to each price when
// deriving the daily valuation ratios.
var ratioTermMetrics = map[string]string{
	"shares_outstanding":  "SharesOutstanding",
	"net_income":          "NetIncome",
	"common_equity":       "CommonEquity",
	"sales_revenue":       "SalesRevenue",
	"operating_cash_flow": "OperatingCashFlow",
	"capital_expenditure": "CapitalExpenditure",
}

// deriveDailyRatios joins each price with its forward-filled quarterly terms
// and reconciles the resulting ratio observations as daily calculated
// metrics.
func (p *Pipeline) deriveDailyRatios(ctx context.Context, asset *contracts.Asset) error {
	prices, err := p.prices.ListByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}

	terms := make(map[string][]*contracts.Observation, len(ratioTermMetrics))
	for name := range ratioTermMetrics {
		metric := p.metrics.ByName(name)
		if metric == nil {
			continue
		}
		series, err := p.observations.ListByAssetAndMetric(ctx, asset.ID, metric.ID)
		if err != nil {
			return err
		}
		terms[name] = series
	}

	incomingByMetric := make(map[int64][]*contracts.Observation)
	for _, price := range prices {
		if price.Price == nil {
			continue
		}
		in := scoring.RatioTerms{
			Price:              *price.Price,
			SharesOutstanding:  latestTerm(terms["shares_outstanding"], price.Date),
			NetIncome:          latestTerm(terms["net_income"], price.Date),
			CommonEquity:       latestTerm(terms["common_equity"], price.Date),
			SalesRevenue:       latestTerm(terms["sales_revenue"], price.Date),
			OperatingCashFlow:  latestTerm(terms["operating_cash_flow"], price.Date),
			CapitalExpenditure: latestTerm(terms["capital_expenditure"], price.Date),
		}
		for name, value := range scoring.DailyRatios(in) {
			if value == nil {
				continue
			}
			metric := p.metrics.ByName(name)
			if metric == nil {
				continue
			}
			incomingByMetric[metric.ID] = append(incomingByMetric[metric.ID], &contracts.Observation{
				AssetID:  asset.ID,
				MetricID: metric.ID,
				Date:     price.Date,
				Value:    value,
			})
		}
	}

	executor := reconcile.NewExecutor[*contracts.Observation](p.observations, p.logger)
	for metricID, incoming := range incomingByMetric {
		persisted, err := p.observations.ListByAssetAndMetric(ctx, asset.ID, metricID)
		if err != nil {
			return err
		}
		inserts, updates := reconcile.Reconcile(incoming, persisted)
		if _, err := executor.Apply(ctx, inserts, updates); err != nil {
			return err
		}
	}
	return nil
}

// rescore recomputes every metric series' trailing statistics in full and
// writes back only the observations whose stored statistics drifted. A
// corrected value therefore invalidates its own score and every later score
// whose trailing window covers it, no matter which path applied the
// correction; an unchanged series is a no-op.
func (p *Pipeline) rescore(ctx context.Context, asset *contracts.Asset) error {
	all, err := p.observations.ListByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}

	byMetric := make(map[int64][]*contracts.Observation)
	for _, o := range all {
		byMetric[o.MetricID] = append(byMetric[o.MetricID], o)
	}

	var stale []*contracts.Observation
	for metricID, series := range byMetric {
		metric := p.metrics.ByID(metricID)
		if metric == nil {
			continue
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

		calc := scoring.NewCalculator(metric.PeriodsPerYear())
		values := make([]*float64, len(series))
		for i, o := range series {
			values[i] = o.Value
		}

		points := calc.Series(values)
		for i, o := range series {
			point := points[i]
			if sameStat(o.Median, point.Median) &&
				sameStat(o.Std, point.Std) &&
				sameStat(o.Score, point.Score) {
				continue
			}
			o.Median, o.Std, o.Score = point.Median, point.Std, point.Score
			stale = append(stale, o)
		}
	}

	if len(stale) == 0 {
		return nil
	}
	if err := p.observations.UpdateScores(ctx, stale); err != nil {
		return err
	}
	p.logger.WithFields(map[string]interface{}{
		"asset":  asset.Symbol,
		"scored": len(stale),
	}).Debug("Updated trailing scores")
	return nil
}

// aggregateBelievability fills the believability/confidence pair for every
// price record that lacks one, blending the daily aggregate at the price date
// with the latest quarterly aggregate at or before it.
func (p *Pipeline) aggregateBelievability(ctx context.Context, asset *contracts.Asset) error {
	prices, err := p.prices.ListByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}
	var pending []*contracts.Price
	for _, price := range prices {
		if price.Believability == nil {
			pending = append(pending, price)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	all, err := p.observations.ListByAsset(ctx, asset.ID)
	if err != nil {
		return err
	}

	// Scores per date, split by frequency class.
	dailyScores := make(map[time.Time]map[int64]*float64)
	quarterlyScores := make(map[time.Time]map[int64]*float64)
	for _, o := range all {
		metric := p.metrics.ByID(o.MetricID)
		if metric == nil {
			continue
		}
		target := quarterlyScores
		if metric.Daily {
			target = dailyScores
		}
		day := o.Date
		if target[day] == nil {
			target[day] = make(map[int64]*float64)
		}
		target[day][o.MetricID] = o.Score
	}

	quarterDates := make([]time.Time, 0, len(quarterlyScores))
	for d := range quarterlyScores {
		quarterDates = append(quarterDates, d)
	}
	sort.Slice(quarterDates, func(i, j int) bool { return quarterDates[i].Before(quarterDates[j]) })

	for _, price := range pending {
		daily := p.aggregator.Aggregate(dailyScores[price.Date])

		var quarterly believability.Result
		for i := len(quarterDates) - 1; i >= 0; i-- {
			if !quarterDates[i].After(price.Date) {
				quarterly = p.aggregator.Aggregate(quarterlyScores[quarterDates[i]])
				break
			}
		}

		blended := believability.Blend(daily, quarterly)
		price.Believability = blended.Believability
		price.Confidence = blended.Confidence
	}

	// Only write rows that actually resolved; the rest stay pending and the
	// corrector treats a persistent hole as a bad tail.
	resolved := pending[:0]
	for _, price := range pending {
		if price.Believability != nil {
			resolved = append(resolved, price)
		}
	}
	if len(resolved) == 0 {
		return nil
	}
	if err := p.prices.UpdateBelievability(ctx, resolved); err != nil {
		return err
	}
	p.logger.WithFields(map[string]interface{}{
		"asset":    asset.Symbol,
		"resolved": len(resolved),
	}).Debug("Updated believability")
	return nil
}

// latestTerm returns the most recent term value at or before the date.
// Series are date-ordered; a missing term stays nil.
func latestTerm(series []*contracts.Observation, date time.Time) *float64 {
	var latest *float64
	for _, o := range series {
		if o.Date.After(date) {
			break
		}
		if o.Value != nil {
			latest = o.Value
		}
	}
	return latest
}

// sameStat compares stored and recomputed statistics. Differences smaller
// than the scorer's own precision do not churn the store.
func sameStat(stored, computed *float64) bool {
	if stored == nil || computed == nil {
		return stored == nil && computed == nil
	}
	return math.Abs(*stored-*computed) < 1e-9
}
