package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/report"
)

const summaryPrecision = time.Millisecond

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the summary report workbook",
	Long: `Writes one summary row per tracked asset (latest price, believability,
confidence) into the configured workbook tab, replacing its previous
contents.

Example:
  go run ./cmd/seamark report`,
	RunE: runReportCmd,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	assets, err := a.assets.List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	if err := writeReport(ctx, a, assets); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", a.cfg.Report.OutputPath)
	return nil
}

func writeReport(ctx context.Context, a *app, assets []*contracts.Asset) error {
	rows := make([]report.Row, 0, len(assets))
	for _, asset := range assets {
		latest, err := a.prices.LatestByAsset(ctx, asset.ID)
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
	return a.report.Write(ctx, rows)
}
