package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/stackradar/internal/pipeline"
)

// DefaultSpec runs the pipeline four times a day.
const DefaultSpec = "@every 6h"

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Reporter receives the summary of every finished run.
type Reporter interface {
	Report(sum pipeline.Summary)
}

// Scheduler owns the daemon loop: one immediate run, then a run on every
// cron tick. A tick that fires while a run is still going is skipped.
type Scheduler struct {
	spec     string
	runner   Runner
	reporter Reporter
	logger   *slog.Logger
}

// NewScheduler creates a scheduler for a standard cron spec or descriptor
// such as "@every 6h" or "0 */4 * * *". reporter may be nil.
func NewScheduler(spec string, runner Runner, reporter Reporter, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		spec:     spec,
		runner:   runner,
		reporter: reporter,
		logger:   logger,
	}
}

// Run starts the schedule. It returns nil when ctx is cancelled (graceful
// shutdown), after any in-flight run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("parsing schedule %q: %w", s.spec, err)
	}

	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug))
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogger)).Then(cron.FuncJob(func() {
		s.runOnce(ctx)
	}))

	c := cron.New(cron.WithLogger(cronLogger))
	c.Schedule(schedule, job)

	s.logger.Info("starting scheduler", "schedule", s.spec)
	c.Start()

	// Run one immediate cycle through the same chain so a slow first run
	// also suppresses overlapping ticks.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sum, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("run failed", "error", err)
		return
	}
	if s.reporter != nil {
		s.reporter.Report(sum)
	}
}
