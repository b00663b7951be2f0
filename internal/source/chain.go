package source

import (
	"context"
	"time"

	"github.com/seamark-project/backend/pkg/logger"
)

// Fetcher is the shared shape of the price fetchers in this package.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start time.Time) ([]PricePoint, error)
}

// Chain tries price fetchers in order, falling through on error or an empty
// result. The last fetcher's error is returned when all fail.
type Chain struct {
	fetchers []Fetcher
	logger   *logger.Logger
}

// NewChain creates a fallback chain; at least one fetcher is required.
func NewChain(log *logger.Logger, fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers, logger: log}
}

// Fetch returns the first non-empty result.
func (c *Chain) Fetch(ctx context.Context, symbol string, start time.Time) ([]PricePoint, error) {
	var lastErr error
	for i, f := range c.fetchers {
		points, err := f.Fetch(ctx, symbol, start)
		if err != nil {
			lastErr = err
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"symbol": symbol,
				"source": i,
			}).Warn("Price source failed, trying next")
			continue
		}
		if len(points) > 0 {
			return points, nil
		}
	}
	return nil, lastErr
}
