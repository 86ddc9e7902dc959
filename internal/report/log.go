// Package report prints run summaries.
package report

import (
	"log/slog"
	"time"

	"github.com/amishk599/stackradar/internal/pipeline"
)

// LogReporter writes run summaries to the given logger as structured
// messages.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter that logs each summary via slog.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs one line with the run totals and one per non-zero counter.
func (r *LogReporter) Report(sum pipeline.Summary) {
	msg := "run finished"
	if sum.Partial {
		msg = "run finished early (deadline)"
	}
	r.logger.Info(msg,
		"run_id", sum.RunID,
		"dry_run", sum.DryRun,
		"duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond).String(),
		"hubs", sum.Hubs,
		"fetched", sum.Fetched,
		"added", sum.Added,
	)

	for _, c := range []struct {
		name  string
		value int64
	}{
		{"discovered", int64(sum.Discovered)},
		{"failed_hubs", int64(sum.FailedHubs)},
		{"skipped_hubs", int64(sum.SkippedHubs)},
		{"rejected", int64(sum.Rejected)},
		{"irrelevant", int64(sum.Irrelevant)},
		{"dropped_duplicate", int64(sum.DroppedDuplicate)},
		{"dropped_error", int64(sum.DroppedError)},
		{"links_checked", int64(sum.Sweep.Checked)},
		{"links_deactivated", int64(sum.Sweep.Deactivated)},
		{"demoted", sum.Sweep.Demoted},
		{"decayed", sum.Sweep.Decayed},
		{"purged", sum.Sweep.Purged},
	} {
		if c.value == 0 {
			continue
		}
		r.logger.Info("run counter", "run_id", sum.RunID, "counter", c.name, "value", c.value)
	}
}
