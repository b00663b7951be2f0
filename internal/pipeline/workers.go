package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

// Summary aggregates the outcome of one pool run.
type Summary struct {
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// Pool fans a list of assets out over a fixed number of workers. Worker i of
// n owns assets i, i+n, i+2n and so on, and walks its shard sequentially.
// Workers share nothing in memory; a failing asset is logged and skipped so
// one bad entity never takes down the run.
type Pool struct {
	workers int
	logger  *logger.Logger
}

// NewPool creates a pool with the given worker count (at least one).
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, logger: log}
}

// Run processes all assets through fn and returns the aggregate outcome.
// Cancellation stops each worker at its next asset boundary.
func (p *Pool) Run(ctx context.Context, assets []*contracts.Asset, fn func(ctx context.Context, asset *contracts.Asset) error) Summary {
	started := time.Now()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		failed    int
	)

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < len(assets); i += p.workers {
				if ctx.Err() != nil {
					return
				}
				asset := assets[i]
				if err := fn(ctx, asset); err != nil {
					p.logger.WithError(err).WithFields(map[string]interface{}{
						"asset":  asset.Symbol,
						"worker": offset,
					}).Error("Asset pipeline failed")
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				mu.Lock()
				processed++
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	summary := Summary{Processed: processed, Failed: failed, Elapsed: time.Since(started)}
	p.logger.WithFields(map[string]interface{}{
		"processed": summary.Processed,
		"failed":    summary.Failed,
		"elapsed":   summary.Elapsed.String(),
	}).Info("Pipeline run finished")
	return summary
}
