package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
)

var statusCmd = &cobra.Command{
	Use:   "status [symbol...]",
	Short: "Show per-asset derivation state",
	Long: `Prints each asset's latest price date, believability pair and watermark
state.

Example:
  go run ./cmd/seamark status
  go run ./cmd/seamark status AAPL`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("%-10s %-12s %12s %14s %12s %-14s\n",
		"SYMBOL", "LATEST", "PRICE", "BELIEVABILITY", "CONFIDENCE", "WATERMARKS")
	for _, asset := range assets {
		latest, err := a.prices.LatestByAsset(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("latest price for %s: %w", asset.Symbol, err)
		}
		state, err := a.engine.StateOf(ctx, asset.ID)
		if err != nil {
			return fmt.Errorf("watermark state for %s: %w", asset.Symbol, err)
		}

		if latest == nil {
			fmt.Printf("%-10s %-12s %12s %14s %12s %-14s\n",
				asset.Symbol, "-", "-", "-", "-", state.String())
			continue
		}
		fmt.Printf("%-10s %-12s %12s %14s %12s %-14s\n",
			asset.Symbol,
			latest.Date.Format(contracts.DateFormat),
			formatValue(latest.Price),
			formatValue(latest.Believability),
			formatValue(latest.Confidence),
			state.String())
	}
	return nil
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}
