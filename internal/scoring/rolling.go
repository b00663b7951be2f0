// Package scoring turns raw value series into trailing statistics and
// normalized scores. A score expresses where a value falls relative to its own
// 20-year trailing distribution.
package scoring

import (
	"math"
	"sort"
)

// scoreScale calibrates how many standard deviations span the unit score
// range. Empirically chosen, not a derived statistical bound.
const scoreScale = 1.382

// Point holds the trailing statistics for one position in a series. All
// fields are nil until the minimum trailing-period coverage is reached; Score
// is additionally nil when the value itself is missing or the trailing
// standard deviation is zero.
type Point struct {
	Median *float64
	Std    *float64
	Score  *float64
}

// Calculator computes trailing medians, standard deviations and scores over a
// 20-year window for a given period frequency.
type Calculator struct {
	window     int
	minPeriods int
}

// NewCalculator creates a calculator for series observed periodsPerYear times
// a year (quarterly: 4, daily: 252). The trailing window spans twenty years
// and at least one year of observations is required before a result is
// emitted.
func NewCalculator(periodsPerYear int) *Calculator {
	return &Calculator{
		window:     20 * periodsPerYear,
		minPeriods: periodsPerYear,
	}
}

// Window returns the trailing window length in periods.
func (c *Calculator) Window() int { return c.window }

// MinPeriods returns the coverage floor in periods.
func (c *Calculator) MinPeriods() int { return c.minPeriods }

// Series computes the trailing statistics for every position of the
// time-ordered value series. Missing values participate as gaps: they consume
// a window slot but do not count toward coverage.
func (c *Calculator) Series(values []*float64) []Point {
	points := make([]Point, len(values))
	for i := range values {
		points[i] = c.At(values, i)
	}
	return points
}

// At computes the trailing statistics for position i only. Appending a new
// observation therefore recomputes just that observation's score.
func (c *Calculator) At(values []*float64, i int) Point {
	if i < 0 || i >= len(values) {
		return Point{}
	}

	start := i - c.window + 1
	if start < 0 {
		start = 0
	}
	window := make([]float64, 0, i-start+1)
	for _, v := range values[start : i+1] {
		if v != nil {
			window = append(window, *v)
		}
	}
	if len(window) < c.minPeriods {
		return Point{}
	}

	med := median(window)
	std := sampleStd(window)
	point := Point{Median: &med, Std: &std}

	// Zero variance yields an indeterminate score, never a division error.
	if values[i] == nil || std == 0 {
		return point
	}
	score := 0.5 + (*values[i]-med)/(2*scoreScale*std)
	point.Score = &score
	return point
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStd is the n-1 denominator standard deviation.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
