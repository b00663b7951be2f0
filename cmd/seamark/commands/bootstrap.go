package commands

import (
	"context"
	"fmt"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/pipeline"
	"github.com/seamark-project/backend/internal/report"
	"github.com/seamark-project/backend/internal/source"
	"github.com/seamark-project/backend/internal/store"
	"github.com/seamark-project/backend/internal/watermark"
	"github.com/seamark-project/backend/pkg/config"
	"github.com/seamark-project/backend/pkg/database"
	"github.com/seamark-project/backend/pkg/httputil"
	"github.com/seamark-project/backend/pkg/logger"
)

// app bundles the wired collaborators every command needs. Commands that only
// touch a subset still go through here; the wiring is cheap and uniform.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB

	assets       *store.AssetRepository
	observations *store.ObservationRepository
	prices       *store.PriceRepository
	marks        *store.WatermarkRepository

	metrics *contracts.MetricSet

	engine   *watermark.Engine
	pipeline *pipeline.Pipeline
	pool     *pipeline.Pool
	report   *report.Writer
}

// newApp loads config, connects to the database and wires the pipeline.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := &app{
		cfg:          cfg,
		logger:       log,
		db:           db,
		assets:       store.NewAssetRepository(db.Pool),
		observations: store.NewObservationRepository(db.Pool),
		prices:       store.NewPriceRepository(db.Pool),
		marks:        store.NewWatermarkRepository(db.Pool),
	}

	metricRepo := store.NewMetricRepository(db.Pool)
	a.metrics, err = metricRepo.LoadSet(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load metric reference data: %w", err)
	}

	a.engine = watermark.NewEngine(a.prices, a.marks, log)

	var priceSource pipeline.PriceFetcher = source.NewPriceSource(cfg, log)
	if cfg.Sources.QuoteBaseURL != "" {
		scraper := source.NewQuoteScraper(
			httputil.New(log).WithPacing(cfg.Sources.PaceEvery),
			cfg.Sources.QuoteBaseURL, log)
		priceSource = source.NewChain(log, priceSource, scraper)
	}
	a.pipeline = pipeline.New(a.metrics, a.observations, a.prices, priceSource, a.engine, log)
	a.pool = pipeline.NewPool(cfg.Workers, log)
	a.report = report.NewWriter(cfg.Report.OutputPath, cfg.Report.TabName, log)

	return a, nil
}

func (a *app) Close() {
	a.db.Close()
}
