package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/ingest"
	"github.com/seamark-project/backend/internal/reconcile"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a financial-metric workbook",
	Long: `Reads a workbook of per-asset metric tables (one sheet per symbol, one
column per metric, one row per reporting date), normalizes dates to quarter
ends and reconciles the values into the store. Re-running the same workbook
is a no-op.

Sheets for unknown symbols are skipped. A sheet whose date column cannot be
parsed is skipped entirely; partial tables are never ingested.

Example:
  go run ./cmd/seamark ingest
  go run ./cmd/seamark ingest --workbook metrics.xlsx`,
	RunE: runIngest,
}

var ingestWorkbook string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestWorkbook, "workbook", "", "workbook path (defaults to INGEST_WORKBOOK_PATH)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := ingestWorkbook
	if path == "" {
		path = a.cfg.Ingest.WorkbookPath
	}
	if path == "" {
		return fmt.Errorf("no workbook path; pass --workbook or set INGEST_WORKBOOK_PATH")
	}

	tables, err := ingest.LoadWorkbook(path)
	if err != nil {
		return fmt.Errorf("load workbook: %w", err)
	}

	normalizer := ingest.NewNormalizer(a.metrics, a.logger)
	executor := reconcile.NewExecutor[*contracts.Observation](a.observations, a.logger)

	var ingested, skipped int
	for symbol, table := range tables {
		asset, err := a.assets.GetBySymbol(ctx, symbol)
		if err != nil {
			return fmt.Errorf("look up %s: %w", symbol, err)
		}
		if asset == nil {
			a.logger.WithField("symbol", symbol).Warn("Workbook sheet for unknown asset")
			skipped++
			continue
		}

		incoming, err := normalizer.Normalize(asset, table)
		if err != nil {
			if errors.Is(err, ingest.ErrBadDateColumn) {
				a.logger.WithField("symbol", symbol).Warn("Skipping sheet with bad date column")
				skipped++
				continue
			}
			return fmt.Errorf("normalize %s: %w", symbol, err)
		}

		persisted, err := a.observations.ListByAsset(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("load observations for %s: %w", symbol, err)
		}

		inserts, updates := reconcile.Reconcile(incoming, persisted)
		res, err := executor.Apply(ctx, inserts, updates)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", symbol, err)
		}
		a.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"inserted": res.Inserted,
			"updated":  res.Updated,
		}).Info("Sheet ingested")
		ingested++
	}

	fmt.Printf("Ingested %d sheets (%d skipped)\n", ingested, skipped)
	return nil
}
