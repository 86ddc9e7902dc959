package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/stackradar/internal/report"
	"github.com/amishk599/stackradar/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Start the ingestion daemon",
	Long:  "Runs one pass immediately, then on the configured cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := mustLoad()

	orch, cleanup, err := buildOrchestrator(ctx, cfg, false, logger)
	if err != nil {
		fatal(logger, "failed to set up run", err)
	}
	defer cleanup()

	sched := scheduler.NewScheduler(cfg.Schedule, orch, report.NewLogReporter(logger), logger)
	if err := sched.Run(ctx); err != nil {
		fatal(logger, "scheduler error", err)
	}

	logger.Info("goodbye")
	return nil
}
