// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/pipeline"
	"github.com/seamark-project/backend/internal/report"
	"github.com/seamark-project/backend/pkg/logger"
)

// DailyRunJob runs the full derivation pipeline for every tracked asset and
// refreshes the summary report afterwards.
type DailyRunJob struct {
	assets   contracts.AssetRepository
	prices   contracts.PriceRepository
	pipeline *pipeline.Pipeline
	pool     *pipeline.Pool
	report   *report.Writer
	logger   *logger.Logger
}

// NewDailyRunJob creates the daily pipeline job.
func NewDailyRunJob(
	assets contracts.AssetRepository,
	prices contracts.PriceRepository,
	pipe *pipeline.Pipeline,
	pool *pipeline.Pool,
	writer *report.Writer,
	log *logger.Logger,
) *DailyRunJob {
	return &DailyRunJob{
		assets:   assets,
		prices:   prices,
		pipeline: pipe,
		pool:     pool,
		report:   writer,
		logger:   log,
	}
}

// Name returns the job name.
func (j *DailyRunJob) Name() string {
	return "daily_run"
}

// Schedule runs every day at 10 PM, after market close.
func (j *DailyRunJob) Schedule() string {
	return "0 0 22 * * *"
}

// Run processes all assets and rewrites the report.
func (j *DailyRunJob) Run(ctx context.Context) error {
	assets, err := j.assets.List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	if len(assets) == 0 {
		j.logger.Warn("No assets to process")
		return nil
	}

	summary := j.pool.Run(ctx, assets, j.pipeline.Run)
	if summary.Processed == 0 && summary.Failed > 0 {
		return fmt.Errorf("all %d assets failed", summary.Failed)
	}

	rows := make([]report.Row, 0, len(assets))
	for _, asset := range assets {
		latest, err := j.prices.LatestByAsset(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("latest price for %s: %w", asset.Symbol, err)
		}
		if latest == nil {
			continue
		}
		rows = append(rows, report.Row{
			Symbol:        asset.Symbol,
			Date:          latest.Date,
			Price:         latest.Price,
			Believability: latest.Believability,
			Confidence:    latest.Confidence,
		})
	}
	return j.report.Write(ctx, rows)
}
