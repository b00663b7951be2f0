package reconcile

import (
	"context"
	"time"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/pkg/logger"
)

// Corrector is the maintenance routine that repairs a corrupted price tail.
// It scans an asset's price history for the earliest record lacking a
// believability value; if found, that record and everything after it are
// deleted, forcing the full pipeline to rebuild the tail from that date.
type Corrector struct {
	prices contracts.PriceRepository
	logger *logger.Logger
}

// NewCorrector creates a corrector over the given price repository.
func NewCorrector(prices contracts.PriceRepository, log *logger.Logger) *Corrector {
	return &Corrector{prices: prices, logger: log}
}

// PurgeBadTail removes the asset's price records from the first record
// lacking believability onward. It returns the purge date and whether a purge
// happened; a fully-scored history is left untouched.
func (c *Corrector) PurgeBadTail(ctx context.Context, asset *contracts.Asset) (time.Time, bool, error) {
	bad, err := c.prices.EarliestWithoutBelievability(ctx, asset.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	if bad == nil {
		return time.Time{}, false, nil
	}

	deleted, err := c.prices.DeleteFrom(ctx, asset.ID, bad.Date)
	if err != nil {
		return time.Time{}, false, err
	}

	c.logger.WithFields(map[string]interface{}{
		"asset":   asset.Symbol,
		"from":    bad.Date.Format(contracts.DateFormat),
		"deleted": deleted,
	}).Info("Purged price tail without believability")

	return bad.Date, true, nil
}
