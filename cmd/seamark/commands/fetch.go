package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/ingest"
	"github.com/seamark-project/backend/internal/reconcile"
	"github.com/seamark-project/backend/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol...]",
	Short: "Fetch quarterly fundamentals from the provider",
	Long: `Pulls quarterly financial-metric series from the fundamentals provider
and reconciles them into the store. Metric names double as provider field
names; requests are chunked to the provider's field limit and paced.

Example:
  go run ./cmd/seamark fetch
  go run ./cmd/seamark fetch AAPL --years 10`,
	RunE: runFetch,
}

var fetchYears int

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchYears, "years", 20, "how many years back to fetch")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Sources.FundamentalBaseURL == "" {
		return fmt.Errorf("FUNDAMENTAL_BASE_URL is not configured")
	}

	assets, err := resolveAssets(cmd, a, args)
	if err != nil {
		return err
	}

	// Reported quarterly metrics only; calculated ones are derived locally.
	var fields []string
	fieldMetric := make(map[string]*contracts.Metric)
	for _, metric := range a.metrics.All() {
		if metric.Daily || metric.Calculated {
			continue
		}
		fields = append(fields, metric.Name)
		fieldMetric[metric.Name] = metric
	}
	if len(fields) == 0 {
		return fmt.Errorf("no reported quarterly metrics in reference data")
	}

	fundamentals := source.NewFundamentalSource(a.cfg, a.logger)
	executor := reconcile.NewExecutor[*contracts.Observation](a.observations, a.logger)

	to := time.Now()
	from := to.AddDate(-fetchYears, 0, 0)

	for _, asset := range assets {
		series, err := fundamentals.Fetch(ctx, asset.Symbol, fields, "quarterly", from, to)
		if err != nil {
			a.logger.WithError(err).WithField("asset", asset.Symbol).Error("Fundamentals fetch failed")
			continue
		}

		var incoming []*contracts.Observation
		for field, points := range series {
			metric := fieldMetric[field]
			if metric == nil {
				continue
			}
			for _, p := range points {
				incoming = append(incoming, &contracts.Observation{
					AssetID:  asset.ID,
					MetricID: metric.ID,
					Date:     ingest.QuarterEnd(p.Date),
					Value:    contracts.Float(p.Value),
				})
			}
		}

		persisted, err := a.observations.ListByAsset(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("load observations for %s: %w", asset.Symbol, err)
		}
		inserts, updates := reconcile.Reconcile(incoming, persisted)
		res, err := executor.Apply(ctx, inserts, updates)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", asset.Symbol, err)
		}
		a.logger.WithFields(map[string]interface{}{
			"asset":    asset.Symbol,
			"inserted": res.Inserted,
			"updated":  res.Updated,
		}).Info("Fundamentals reconciled")
	}
	return nil
}
