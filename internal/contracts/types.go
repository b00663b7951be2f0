package contracts

// Asset represents a tracked equity. Assets are onboarded externally and are
// immutable during a pipeline run.
type Asset struct {
	ID     int64
	Symbol string
}

// MetricType is a reliability classification a metric can belong to. The
// believability weight of a metric is the sum of the weights of all types it
// is classified under.
type MetricType struct {
	ID     int64
	Name   string
	Weight float64
}

// Metric is a named financial indicator observed over time. Static reference
// data loaded once per run.
type Metric struct {
	ID         int64
	Name       string
	Daily      bool // true: daily frequency, false: quarterly
	Calculated bool // derived series (growth, ratios), not ingested directly
	Types      []MetricType
}

// PeriodsPerYear returns the number of observation periods per year for the
// metric's frequency class.
func (m *Metric) PeriodsPerYear() int {
	if m.Daily {
		return 252
	}
	return 4
}

// Weight returns the total believability weight across the metric's type
// classifications.
func (m *Metric) Weight() float64 {
	var w float64
	for _, t := range m.Types {
		w += t.Weight
	}
	return w
}

// MetricSet is the id/name lookup table for all known metrics. It is built
// once per run and passed by reference into every component that needs it;
// there is no process-wide metric state.
type MetricSet struct {
	byID   map[int64]*Metric
	byName map[string]*Metric
}

// NewMetricSet builds a MetricSet from the full metric listing.
func NewMetricSet(metrics []*Metric) *MetricSet {
	s := &MetricSet{
		byID:   make(map[int64]*Metric, len(metrics)),
		byName: make(map[string]*Metric, len(metrics)),
	}
	for _, m := range metrics {
		s.byID[m.ID] = m
		s.byName[m.Name] = m
	}
	return s
}

// ByID returns the metric with the given id, or nil.
func (s *MetricSet) ByID(id int64) *Metric { return s.byID[id] }

// ByName returns the metric with the given name, or nil.
func (s *MetricSet) ByName(name string) *Metric { return s.byName[name] }

// All returns every metric in the set.
func (s *MetricSet) All() []*Metric {
	metrics := make([]*Metric, 0, len(s.byID))
	for _, m := range s.byID {
		metrics = append(metrics, m)
	}
	return metrics
}

// Len returns the number of metrics in the set.
func (s *MetricSet) Len() int { return len(s.byID) }

// GrowthSpec designates a base metric whose annualized growth is derived as a
// calculated metric in its own right.
type GrowthSpec struct {
	BaseMetric    string
	DerivedMetric string
	Years         int
}

// DefaultGrowthSpecs lists the base metrics with derived growth series.
func DefaultGrowthSpecs() []GrowthSpec {
	return []GrowthSpec{
		{BaseMetric: "shares_outstanding", DerivedMetric: "shares_outstanding_growth_5y", Years: 5},
		{BaseMetric: "diluted_shares", DerivedMetric: "diluted_shares_growth_5y", Years: 5},
		{BaseMetric: "long_term_debt_to_assets", DerivedMetric: "long_term_debt_to_assets_growth_3y", Years: 3},
		{BaseMetric: "net_working_capital", DerivedMetric: "net_working_capital_growth_5y", Years: 5},
		{BaseMetric: "revenue_per_share", DerivedMetric: "revenue_per_share_growth_5y", Years: 5},
		{BaseMetric: "sales_revenue", DerivedMetric: "sales_revenue_growth_5y", Years: 5},
	}
}
