package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/stackradar/internal/adapter"
	"github.com/amishk599/stackradar/internal/config"
	"github.com/amishk599/stackradar/internal/maintenance"
	"github.com/amishk599/stackradar/internal/migrations"
	"github.com/amishk599/stackradar/internal/model"
	"github.com/amishk599/stackradar/internal/pipeline"
	"github.com/amishk599/stackradar/internal/report"
	"github.com/amishk599/stackradar/internal/screener"
	"github.com/amishk599/stackradar/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ingestion pass and exit",
	Long:  "Sweeps stale postings, discovers hubs, then fetches, screens and stores new MarTech postings.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline without writing to the store")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := mustLoad()

	orch, cleanup, err := buildOrchestrator(ctx, cfg, dryRun, logger)
	if err != nil {
		fatal(logger, "failed to set up run", err)
	}
	defer cleanup()

	sum, err := orch.Run(ctx)
	report.NewLogReporter(logger).Report(sum)
	if err != nil {
		logger.Error("run failed", "error", err)
	}
	return nil
}

// mustLoad loads the config and builds the logger, exiting on a bad config.
func mustLoad() (*config.Config, *slog.Logger) {
	logger := setupLogger(debug, "")

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatal(logger, "failed to load config", err)
	}
	logger = setupLogger(debug, cfg.LogLevel)
	migrations.SetLogger(logger)

	logger.Info("config loaded",
		"database", cfg.Database.Driver,
		"targets_file", cfg.TargetsFile,
		"workers", cfg.Workers,
		"seeds", len(cfg.EnabledSeeds()),
		"feeds", len(cfg.EnabledFeeds()),
		"run_timeout", cfg.RunTimeout.String(),
	)
	return cfg, logger
}

// buildOrchestrator wires every component of a run. Any error it returns is
// a configuration failure.
func buildOrchestrator(ctx context.Context, cfg *config.Config, dry bool, logger *slog.Logger) (*pipeline.Orchestrator, func(), error) {
	if err := cfg.RequireSearchKey(); err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var st model.Store
	if dry {
		logger.Info("dry-run mode enabled, nothing will be written")
		st = store.NewNopStore()
	} else {
		s, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening store: %w", err)
		}
		st = s
		closers = append(closers, func() {
			if err := s.Close(); err != nil {
				logger.Warn("closing store", "error", err)
			}
		})
	}

	engine, err := setupEngine(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	sources, err := buildSources(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	normalizer, closeCache, err := setupNormalizer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeCache)

	opts := []pipeline.Option{
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithPause(cfg.Pause),
		pipeline.WithDedupWindow(cfg.DedupWindow),
		pipeline.WithTimeout(cfg.RunTimeout),
		pipeline.WithLogger(logger),
		pipeline.WithLocker(setupLocker(ctx, cfg, logger)),
		pipeline.WithSeeds(seedHits(cfg)...),
		pipeline.WithDryRun(dry),
	}
	if cfg.Maintenance.Enabled && !dry {
		ua := cfg.Adapters.UserAgent
		if ua == "" {
			ua = adapter.DefaultUserAgent
		}
		opts = append(opts, pipeline.WithSweeper(maintenance.NewSweeper(st, maintenance.Config{
			UserAgent:  ua,
			Workers:    cfg.Maintenance.Workers,
			StaleAfter: cfg.Maintenance.StaleAfter,
			PinTTL:     cfg.Maintenance.PinTTL,
			FeatureTTL: cfg.Maintenance.FeatureTTL,
		}, logger)))
	}

	orch := pipeline.New(st, sources, engine, normalizer, screener.Default(), opts...)
	return orch, cleanup, nil
}
