// Package growth synthesizes annualized geometric growth series from base
// metric series. Derived series are injected back into the scorer as ordinary
// calculated metrics.
package growth

import "math"

// Annualized computes (v_t / v_{t-n})^(1/years) - 1 for every position of the
// time-ordered series, where n = years * periodsPerYear.
//
// The first n positions are nil by construction: there is no history to grow
// from, and forward-filling never manufactures that initial window. After the
// first defined value, nil gaps are bridged by carrying the previous growth
// value forward, covering genuine reporting gaps only.
func Annualized(values []*float64, years, periodsPerYear int) []*float64 {
	n := years * periodsPerYear
	out := make([]*float64, len(values))

	for i := range values {
		if i < n {
			continue
		}
		current, base := values[i], values[i-n]
		if current == nil || base == nil {
			continue
		}
		ratio := *current / *base
		if ratio <= 0 {
			// Sign flips have no real geometric growth rate.
			continue
		}
		g := math.Pow(ratio, 1/float64(years)) - 1
		out[i] = &g
	}

	return forwardFill(out)
}

// forwardFill bridges interior gaps with the previous value. Leading nils are
// preserved.
func forwardFill(values []*float64) []*float64 {
	var last *float64
	for i, v := range values {
		if v != nil {
			last = v
			continue
		}
		if last != nil {
			filled := *last
			values[i] = &filled
		}
	}
	return values
}
