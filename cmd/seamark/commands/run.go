package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
)

var runCmd = &cobra.Command{
	Use:   "run [symbol...]",
	Short: "Run the derivation pipeline",
	Long: `Runs the full derivation pipeline: fetch and reconcile prices, derive
growth and daily ratios, recompute trailing scores, aggregate believability
and extend the watermark history.

Without arguments every tracked asset is processed, sharded across the
configured worker count. With symbols only those assets run.

Example:
  go run ./cmd/seamark run
  go run ./cmd/seamark run AAPL MSFT`,
	RunE: runPipeline,
}

var runReport bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runReport, "report", false, "write the summary report after the run")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	assets, err := resolveAssets(cmd, a, args)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		a.logger.Warn("No assets to process")
		return nil
	}

	summary := a.pool.Run(ctx, assets, a.pipeline.Run)
	fmt.Printf("Processed %d assets (%d failed) in %s\n",
		summary.Processed, summary.Failed, summary.Elapsed.Round(summaryPrecision))

	if runReport {
		if err := writeReport(ctx, a, assets); err != nil {
			return err
		}
	}

	if summary.Failed > 0 && summary.Processed == 0 {
		return fmt.Errorf("all %d assets failed", summary.Failed)
	}
	return nil
}

// resolveAssets maps symbols to assets, or lists the full universe when no
// symbols are given.
func resolveAssets(cmd *cobra.Command, a *app, symbols []string) ([]*contracts.Asset, error) {
	ctx := cmd.Context()

	if len(symbols) == 0 {
		return a.assets.List(ctx)
	}

	assets := make([]*contracts.Asset, 0, len(symbols))
	for _, symbol := range symbols {
		asset, err := a.assets.GetBySymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("look up %s: %w", symbol, err)
		}
		if asset == nil {
			return nil, fmt.Errorf("unknown asset %s", symbol)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
