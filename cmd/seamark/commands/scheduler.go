package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seamark-project/backend/internal/scheduler"
	"github.com/seamark-project/backend/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Starts the cron scheduler with the daily pipeline job and blocks until
interrupted. The daily job fetches new data, reruns the derivation chain for
every asset and rewrites the summary report.

Example:
  go run ./cmd/seamark scheduler
  go run ./cmd/seamark scheduler --run-now`,
	RunE: runScheduler,
}

var schedulerRunNow bool

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "trigger the daily job immediately on start")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.logger)

	daily := jobs.NewDailyRunJob(a.assets, a.prices, a.pipeline, a.pool, a.report, a.logger)
	if err := sched.AddJob(daily); err != nil {
		return fmt.Errorf("register daily job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(daily.Name()); err != nil {
			return err
		}
	}

	fmt.Println("Scheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	return nil
}
