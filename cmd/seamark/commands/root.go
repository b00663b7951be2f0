package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "seamark",
	Short: "Seamark - equity metric ingestion and scoring pipeline",
	Long: `Seamark CLI

Batch pipeline that ingests equity prices and financial metrics, reconciles
them idempotently, derives growth and valuation ratios, scores each series
against its trailing distribution and rolls the scores up into a single
believability signal per price record.

Usage:
  go run ./cmd/seamark [command]

Examples:
  go run ./cmd/seamark run
  go run ./cmd/seamark ingest --workbook metrics.xlsx
  go run ./cmd/seamark status AAPL
  go run ./cmd/seamark api`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
