package commands

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/contracts"
	"github.com/seamark-project/backend/internal/reconcile"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill [symbol...]",
	Short: "Purge corrupted price tails and rebuild them",
	Long: `Scans each asset for the earliest price record lacking a believability
value; if one exists, that record and everything after it are deleted and
the pipeline reruns to rebuild the tail from the purge date.

A fully-scored history is left untouched.

Example:
  go run ./cmd/seamark backfill
  go run ./cmd/seamark backfill AAPL`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
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

	corrector := reconcile.NewCorrector(a.prices, a.logger)

	var purged atomic.Int64
	summary := a.pool.Run(ctx, assets, func(ctx context.Context, asset *contracts.Asset) error {
		_, did, err := corrector.PurgeBadTail(ctx, asset)
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		if !did {
			return nil
		}
		purged.Add(1)
		return a.pipeline.Run(ctx, asset)
	})

	fmt.Printf("Backfill finished: %d purged, %d processed, %d failed\n",
		purged.Load(), summary.Processed, summary.Failed)
	return nil
}
