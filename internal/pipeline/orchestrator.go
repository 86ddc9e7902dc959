// Package pipeline runs one ingestion pass: maintenance, discovery, then
// fetch, normalize, screen, dedup and insert for every hub found.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/amishk599/stackradar/internal/discovery"
	"github.com/amishk599/stackradar/internal/lock"
	"github.com/amishk599/stackradar/internal/maintenance"
	"github.com/amishk599/stackradar/internal/model"
	"github.com/amishk599/stackradar/internal/screener"
	"github.com/amishk599/stackradar/internal/store"
	"github.com/amishk599/stackradar/internal/urlnorm"
)

const (
	DefaultWorkers     = 8
	DefaultPause       = 500 * time.Millisecond
	DefaultDedupWindow = 30 * 24 * time.Hour
)

// Discoverer finds hubs to ingest.
type Discoverer interface {
	Discover(ctx context.Context) ([]discovery.Hit, error)
}

// Sweeper runs pre-ingest maintenance.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (maintenance.Result, error)
}

// Normalizer canonicalizes free-form locations.
type Normalizer interface {
	Normalize(ctx context.Context, raw string, remoteHint bool) model.NormalizedLocation
}

// Screener scores a posting.
type Screener interface {
	Screen(in screener.Input) model.Verdict
}

// Summary reports what one run did.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Discovered  int
	Hubs        int
	FailedHubs  int
	SkippedHubs int

	Fetched          int
	Added            int
	Rejected         int
	Irrelevant       int
	DroppedDuplicate int
	DroppedError     int

	Sweep   maintenance.Result
	Partial bool // the run deadline or cancellation cut it short
	DryRun  bool
}

type counters struct {
	failedHubs, skippedHubs              atomic.Int64
	fetched, added, rejected, irrelevant atomic.Int64
	droppedDuplicate, droppedError       atomic.Int64
}

// Orchestrator owns the full ingestion run.
type Orchestrator struct {
	store      model.Store
	sources    map[string]model.Source
	discoverer Discoverer
	normalizer Normalizer
	screener   Screener

	sweeper     Sweeper
	locker      lock.Locker
	seeds       []discovery.Hit
	workers     int
	pause       time.Duration
	dedupWindow time.Duration
	timeout     time.Duration
	dryRun      bool
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds how many hubs are fetched concurrently.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithPause sets the sleep after each hub.
func WithPause(d time.Duration) Option {
	return func(o *Orchestrator) { o.pause = d }
}

// WithDedupWindow sets how far back a (title, company) match counts as a
// duplicate.
func WithDedupWindow(d time.Duration) Option {
	return func(o *Orchestrator) { o.dedupWindow = d }
}

// WithTimeout sets the run-wide deadline. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLocker replaces the in-process per-URL lock, e.g. with a Redis lock
// shared by several runners.
func WithLocker(l lock.Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

func WithSweeper(s Sweeper) Option {
	return func(o *Orchestrator) { o.sweeper = s }
}

// WithSeeds adds hubs that are ingested on every run regardless of
// discovery, such as configured boards and feeds.
func WithSeeds(seeds ...discovery.Hit) Option {
	return func(o *Orchestrator) { o.seeds = append(o.seeds, seeds...) }
}

// WithDryRun marks summaries as dry runs. Pair it with a NopStore.
func WithDryRun(dry bool) Option {
	return func(o *Orchestrator) { o.dryRun = dry }
}

// New creates an Orchestrator. sources is keyed by provider name as returned
// by adapter.Route. A nil discoverer runs seeds only.
func New(
	st model.Store,
	sources map[string]model.Source,
	discoverer Discoverer,
	normalizer Normalizer,
	scr Screener,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:       st,
		sources:     sources,
		discoverer:  discoverer,
		normalizer:  normalizer,
		screener:    scr,
		locker:      lock.NewMemoryLocker(),
		workers:     DefaultWorkers,
		pause:       DefaultPause,
		dedupWindow: DefaultDedupWindow,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one ingestion pass. Per-hub and per-record failures are
// logged and counted, never returned. The error is non-nil only when the
// worker pool cannot be created; a deadline yields a partial Summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	sum := Summary{RunID: uuid.NewString(), StartedAt: o.now(), DryRun: o.dryRun}
	logger := o.logger.With("run_id", sum.RunID)
	logger.Info("run started", "dry_run", o.dryRun)

	if o.sweeper != nil {
		res, err := o.sweeper.Sweep(ctx, sum.StartedAt)
		sum.Sweep = res
		if err != nil {
			logger.Error("maintenance sweep failed", "error", err)
		}
	}

	var hits []discovery.Hit
	if o.discoverer != nil {
		found, err := o.discoverer.Discover(ctx)
		if err != nil {
			logger.Error("discovery stopped early", "error", err)
		}
		hits = found
	}
	sum.Discovered = len(hits)
	hubs := o.uniqueHubs(append(hits, o.seeds...))
	sum.Hubs = len(hubs)
	logger.Info("hubs to ingest", "discovered", sum.Discovered, "seeds", len(o.seeds), "unique", len(hubs))

	pool, err := ants.NewPool(o.workers)
	if err != nil {
		return sum, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	var (
		c  counters
		wg sync.WaitGroup
	)
	for _, hub := range hubs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			o.ingestHub(ctx, hub, &c, logger)
			sleep(ctx, o.pause)
		})
		if err != nil {
			wg.Done()
			c.failedHubs.Add(1)
			logger.Error("failed to submit hub", "provider", hub.Provider, "hub", hub.Hub, "error", err)
		}
	}
	wg.Wait()

	sum.FailedHubs = int(c.failedHubs.Load())
	sum.SkippedHubs = int(c.skippedHubs.Load())
	sum.Fetched = int(c.fetched.Load())
	sum.Added = int(c.added.Load())
	sum.Rejected = int(c.rejected.Load())
	sum.Irrelevant = int(c.irrelevant.Load())
	sum.DroppedDuplicate = int(c.droppedDuplicate.Load())
	sum.DroppedError = int(c.droppedError.Load())
	sum.Partial = ctx.Err() != nil
	sum.FinishedAt = o.now()
	return sum, nil
}

// uniqueHubs keeps the first occurrence of every (provider, hub) pair so a
// hub is ingested at most once per run.
func (o *Orchestrator) uniqueHubs(hits []discovery.Hit) []discovery.Hit {
	seen := make(map[string]bool, len(hits))
	out := make([]discovery.Hit, 0, len(hits))
	for _, h := range hits {
		key := h.Provider + "|" + strings.ToLower(h.Hub)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

func (o *Orchestrator) ingestHub(ctx context.Context, hub discovery.Hit, c *counters, logger *slog.Logger) {
	logger = logger.With("provider", hub.Provider, "hub", hub.Hub)

	src, ok := o.sources[hub.Provider]
	if !ok {
		c.skippedHubs.Add(1)
		logger.Debug("no source for provider")
		return
	}

	postings, err := src.FetchPostings(ctx, hub.Hub)
	if err != nil {
		c.failedHubs.Add(1)
		logger.Warn("fetch failed", "error", err)
		return
	}
	c.fetched.Add(int64(len(postings)))

	added := 0
	for _, raw := range postings {
		if ctx.Err() != nil {
			return
		}
		outcome, err := o.ingestPosting(ctx, raw, logger)
		switch {
		case err != nil:
			c.droppedError.Add(1)
			logger.Warn("posting dropped", "url", raw.ApplyURL, "error", err)
		case outcome == outcomeAdded:
			c.added.Add(1)
			added++
		case outcome == outcomeRejected:
			c.rejected.Add(1)
		case outcome == outcomeIrrelevant:
			c.irrelevant.Add(1)
		case outcome == outcomeDuplicate:
			c.droppedDuplicate.Add(1)
		}
	}
	logger.Info("ingested hub", "fetched", len(postings), "added", added)
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAdded
	outcomeRejected
	outcomeIrrelevant
	outcomeDuplicate
)

// ingestPosting runs normalize, screen, dedup and insert for one record.
func (o *Orchestrator) ingestPosting(ctx context.Context, raw model.RawPosting, logger *slog.Logger) (outcome, error) {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.Company)
	if title == "" || company == "" || raw.ApplyURL == "" {
		return outcomeFailed, errors.New("missing title, company or apply url")
	}

	loc := o.normalizer.Normalize(ctx, raw.Location, raw.IsRemoteHint)

	verdict := o.screener.Screen(screener.Input{
		Title:       title,
		Company:     company,
		Location:    loc.Text,
		Description: raw.Description,
		ApplyURL:    raw.ApplyURL,
	})
	if verdict.Score <= 0 {
		if verdict.Status == model.StatusRejected {
			return outcomeRejected, nil
		}
		return outcomeIrrelevant, nil
	}

	canonical := urlnorm.CanonicalizeApplyURL(raw.ApplyURL)
	if canonical == "" {
		return outcomeFailed, fmt.Errorf("apply url %q does not canonicalize", raw.ApplyURL)
	}

	// The (title, company) lock is always taken before the URL lock, so a
	// role cross-posted on two hubs is checked and inserted by one worker
	// at a time.
	unlockTC, err := o.locker.Lock(ctx, "tc:"+store.Fingerprint(title, company))
	if err != nil {
		return outcomeFailed, fmt.Errorf("locking %s at %s: %w", title, company, err)
	}
	defer unlockTC()

	unlock, err := o.locker.Lock(ctx, canonical)
	if err != nil {
		return outcomeFailed, fmt.Errorf("locking %s: %w", canonical, err)
	}
	defer unlock()

	exists, err := o.store.ExistsURL(ctx, canonical)
	if err != nil {
		return outcomeFailed, err
	}
	if exists {
		return outcomeDuplicate, nil
	}

	now := o.now()
	recent, err := o.store.ExistsRecentTitleCompany(ctx, title, company, now.Add(-o.dedupWindow))
	if err != nil {
		return outcomeFailed, err
	}
	if recent {
		return outcomeDuplicate, nil
	}

	p := &model.PersistedPosting{
		Title:       title,
		Company:     company,
		Location:    loc.Text,
		Arrangement: loc.Arrangement,
		Description: raw.Description,
		ApplyURL:    canonical,
		PublishedAt: raw.PublishedAt,
		SourceTag:   raw.SourceTag,
		Score:       verdict.Score,
		Status:      verdict.Status,
		Categories:  verdict.Categories,
		Stack:       verdict.Stack,
		RoleType:    verdict.RoleType,
		Reason:      verdict.Reason,
		Slug:        Slugify(title, company),
		LogoURL:     LogoURL(company),
		Tags:        "auto," + raw.SourceTag,
		IsActive:    verdict.Status == model.StatusApproved,
		ScreenedAt:  now,
		CreatedAt:   now,
	}
	if _, err := o.store.InsertPosting(ctx, p); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return outcomeDuplicate, nil
		}
		return outcomeFailed, err
	}
	logger.Info("new posting",
		"company", p.Company,
		"title", p.Title,
		"location", p.Location,
		"score", p.Score,
		"url", p.ApplyURL,
	)
	return outcomeAdded, nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
