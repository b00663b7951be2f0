// Package believability combines many per-metric scores into one headline
// confidence pair per asset per date, weighted by metric reliability.
package believability

import "github.com/seamark-project/backend/internal/contracts"

// Result is the believability/confidence pair for one asset and date, along
// with the sample counts used when blending frequencies. Believability and
// Confidence are nil when no metric contributed a score; nil means "no data",
// never "worst confidence".
type Result struct {
	Believability *float64
	Confidence    *float64
	Scored        int // metrics that contributed a non-nil score
	Applicable    int // all applicable metrics for the date
}

// Aggregator computes weighted score aggregates using the metric reference
// data loaded for the run.
type Aggregator struct {
	metrics *contracts.MetricSet
}

// NewAggregator creates an aggregator over the given metric set.
func NewAggregator(metrics *contracts.MetricSet) *Aggregator {
	return &Aggregator{metrics: metrics}
}

// Aggregate combines the per-metric scores available for one asset/date into
// a believability/confidence pair. Scores map metric id to score; a nil score
// marks an applicable metric that produced no result. Metrics with zero total
// weight still count toward confidence but contribute nothing to the weighted
// mean.
func (a *Aggregator) Aggregate(scores map[int64]*float64) Result {
	res := Result{Applicable: len(scores)}

	var num, den float64
	for metricID, score := range scores {
		if score == nil {
			continue
		}
		res.Scored++

		metric := a.metrics.ByID(metricID)
		if metric == nil {
			continue
		}
		weight := metric.Weight()
		num += *score * weight
		den += weight
	}

	if res.Applicable == 0 || res.Scored == 0 {
		return res
	}

	if den > 0 {
		res.Believability = contracts.Float(num / den)
	}
	res.Confidence = contracts.Float(float64(res.Scored) / float64(res.Applicable))
	return res
}

// Blend combines a daily-frequency result with a quarterly-frequency result
// for the same asset/date using sample counts:
//
//	believability = (b_day*n_day + b_qtr*n_qtr) / (n_day + n_qtr)
//	confidence    = (n_day + n_qtr) / (total_day + total_qtr)
//
// A side without a believability value drops out of the mean entirely, even
// when it scored metrics (all of them zero-weight); its counts still feed
// confidence. If both sides are empty, the blend is empty.
func Blend(daily, quarterly Result) Result {
	res := Result{
		Scored:     daily.Scored + quarterly.Scored,
		Applicable: daily.Applicable + quarterly.Applicable,
	}
	if res.Scored == 0 || res.Applicable == 0 {
		return res
	}

	var num float64
	var n int
	if daily.Believability != nil {
		num += *daily.Believability * float64(daily.Scored)
		n += daily.Scored
	}
	if quarterly.Believability != nil {
		num += *quarterly.Believability * float64(quarterly.Scored)
		n += quarterly.Scored
	}

	if n > 0 {
		res.Believability = contracts.Float(num / float64(n))
	}
	res.Confidence = contracts.Float(float64(res.Scored) / float64(res.Applicable))
	return res
}
