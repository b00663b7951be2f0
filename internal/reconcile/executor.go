package reconcile

import (
	"context"
	"fmt"

	"github.com/seamark-project/backend/pkg/logger"
)

const (
	// Inserts are applied in large batches, updates in small ones; updates are
	// the rare correction case and large update batches hold row locks longer.
	insertBatchSize = 1000
	updateBatchSize = 100
)

// Sink receives reconciled batches. Each call commits independently, so a
// mid-run failure leaves prior batches durably applied and a re-run is safe.
type Sink[T any] interface {
	InsertBatch(ctx context.Context, recs []T) error
	UpdateBatch(ctx context.Context, recs []T) error
}

// Result counts the rows durably applied by an Apply call.
type Result struct {
	Inserted int
	Updated  int
}

// Executor applies reconciliation output to a sink in independent batches.
type Executor[T Record] struct {
	sink   Sink[T]
	logger *logger.Logger

	insertSize int
	updateSize int
}

// NewExecutor creates an executor with the default batch sizes.
func NewExecutor[T Record](sink Sink[T], log *logger.Logger) *Executor[T] {
	return &Executor[T]{
		sink:       sink,
		logger:     log,
		insertSize: insertBatchSize,
		updateSize: updateBatchSize,
	}
}

// WithBatchSizes overrides the default batch sizes. Used by tests.
func (e *Executor[T]) WithBatchSizes(insert, update int) *Executor[T] {
	e.insertSize = insert
	e.updateSize = update
	return e
}

// Apply writes inserts then updates to the sink in batches. On failure it
// returns the rows applied so far; re-running the same reconciliation is
// idempotent because applied rows now compare equal and are excluded.
func (e *Executor[T]) Apply(ctx context.Context, inserts, updates []T) (Result, error) {
	var res Result

	for start := 0; start < len(inserts); start += e.insertSize {
		end := min(start+e.insertSize, len(inserts))
		if err := e.sink.InsertBatch(ctx, inserts[start:end]); err != nil {
			return res, fmt.Errorf("insert batch at offset %d: %w", start, err)
		}
		res.Inserted += end - start
	}

	for start := 0; start < len(updates); start += e.updateSize {
		end := min(start+e.updateSize, len(updates))
		if err := e.sink.UpdateBatch(ctx, updates[start:end]); err != nil {
			return res, fmt.Errorf("update batch at offset %d: %w", start, err)
		}
		res.Updated += end - start
	}

	if res.Inserted > 0 || res.Updated > 0 {
		e.logger.WithFields(map[string]interface{}{
			"inserted": res.Inserted,
			"updated":  res.Updated,
		}).Debug("Reconciliation batches applied")
	}
	return res, nil
}
