// Package reconcile implements the idempotent diff-and-merge step between
// freshly ingested records and persisted state. It never deletes persisted
// records as part of normal operation; the only deletion path is the explicit
// correction cascade in Corrector.
package reconcile

import "math"

// Record is the capability a record kind implements to take part in
// reconciliation. Implemented by contracts.Observation and contracts.Price.
type Record interface {
	// UniqueKey is the declared unique-key tuple, encoded canonically.
	UniqueKey() string
	// RowID is the persisted surrogate id, zero when unsaved.
	RowID() int64
	SetRowID(id int64)
	// NumericValue returns the record's value and whether it is present.
	NumericValue() (float64, bool)
}

// Values compare equal when they match after rounding to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Reconcile diffs incoming records against persisted ones.
//
// Keys present only in incoming become inserts. Keys present on both sides
// whose values differ at four-decimal tolerance become updates, carrying the
// persisted surrogate id so the update targets the correct row. Persisted-only
// keys are never touched. Records without a value are excluded from both sets
// so gaps are never persisted as real data.
//
// Reconciling the same incoming set twice against the resulting state yields
// zero inserts and zero updates.
func Reconcile[T Record](incoming, persisted []T) (inserts, updates []T) {
	existing := make(map[string]T, len(persisted))
	for _, rec := range persisted {
		existing[rec.UniqueKey()] = rec
	}

	seen := make(map[string]struct{}, len(incoming))
	for _, rec := range incoming {
		key := rec.UniqueKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		value, ok := rec.NumericValue()
		if !ok {
			continue
		}

		prev, found := existing[key]
		if !found {
			inserts = append(inserts, rec)
			continue
		}

		prevValue, prevOK := prev.NumericValue()
		if prevOK && round4(prevValue) == round4(value) {
			continue
		}
		rec.SetRowID(prev.RowID())
		updates = append(updates, rec)
	}
	return inserts, updates
}
