// Package maintenance keeps the stored postings honest between runs: dead
// links are deactivated, stale approvals demoted, pins and features expired
// and rejected records purged.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"

	"github.com/amishk599/stackradar/internal/model"
)

const (
	DefaultStaleAfter = 60 * 24 * time.Hour
	DefaultPinTTL     = 7 * 24 * time.Hour
	DefaultFeatureTTL = 30 * 24 * time.Hour
	DefaultWorkers    = 16
	DefaultPeekBytes  = 5 << 10
)

// softNotFound are phrases that mark a 200 page as a closed posting.
var softNotFound = []string{
	"no longer available",
	"no longer accepting applications",
	"position has been filled",
	"position has been closed",
	"listing has expired",
	"job has expired",
	"job posting has expired",
	"job you are looking for",
	"job is no longer open",
	"posting is closed",
	"this job is closed",
	"page you are looking for doesn't exist",
}

// Config tunes the sweep. Zero fields take the package defaults.
type Config struct {
	Client     *http.Client
	UserAgent  string
	Workers    int
	StaleAfter time.Duration
	PinTTL     time.Duration
	FeatureTTL time.Duration
	PeekBytes  int64
}

// Result counts what one sweep changed.
type Result struct {
	Checked     int
	Deactivated int
	Demoted     int64
	Decayed     int64
	Purged      int64
}

// Sweeper runs the maintenance steps against a store.
type Sweeper struct {
	store  model.Store
	cfg    Config
	logger *slog.Logger
}

func NewSweeper(store model.Store, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.PinTTL <= 0 {
		cfg.PinTTL = DefaultPinTTL
	}
	if cfg.FeatureTTL <= 0 {
		cfg.FeatureTTL = DefaultFeatureTTL
	}
	if cfg.PeekBytes <= 0 {
		cfg.PeekBytes = DefaultPeekBytes
	}
	return &Sweeper{store: store, cfg: cfg, logger: logger}
}

// Sweep probes every active posting, then demotes, decays and purges. A
// failing step is logged and the remaining steps still run; the joined
// errors are returned with the partial result.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	var (
		res  Result
		errs []error
	)

	checked, deactivated, err := s.checkLinks(ctx)
	res.Checked, res.Deactivated = checked, deactivated
	if err != nil {
		errs = append(errs, err)
	}

	if res.Demoted, err = s.store.DemoteStale(ctx, now, s.cfg.StaleAfter); err != nil {
		errs = append(errs, err)
	}
	if res.Decayed, err = s.store.DecayPinsAndFeatures(ctx, now, s.cfg.PinTTL, s.cfg.FeatureTTL); err != nil {
		errs = append(errs, err)
	}
	if res.Purged, err = s.store.PurgeRejected(ctx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("maintenance sweep done",
		"checked", res.Checked,
		"deactivated", res.Deactivated,
		"demoted", res.Demoted,
		"decayed", res.Decayed,
		"purged", res.Purged,
	)
	return res, errors.Join(errs...)
}

func (s *Sweeper) checkLinks(ctx context.Context) (int, int, error) {
	postings, err := s.store.ListActivePostings(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing active postings: %w", err)
	}
	if len(postings) == 0 {
		return 0, 0, nil
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return 0, 0, fmt.Errorf("creating probe pool: %w", err)
	}
	defer pool.Release()

	var (
		wg          sync.WaitGroup
		checked     atomic.Int64
		deactivated atomic.Int64
	)
	for _, p := range postings {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			dead, reason := s.probe(ctx, p.ApplyURL)
			if ctx.Err() != nil {
				return
			}
			checked.Add(1)
			if !dead {
				return
			}
			if err := s.store.UpdateStatus(ctx, p.ID, p.Status, false, reason); err != nil {
				s.logger.Error("failed to deactivate posting", "url", p.ApplyURL, "error", err)
				return
			}
			deactivated.Add(1)
			s.logger.Info("deactivated posting", "url", p.ApplyURL, "reason", reason)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("failed to submit link probe", "url", p.ApplyURL, "error", err)
		}
	}
	wg.Wait()

	return int(checked.Load()), int(deactivated.Load()), nil
}

// probe reports whether url is dead, with a short reason.
func (s *Sweeper) probe(ctx context.Context, url string) (bool, string) {
	resp, err := s.do(ctx, http.MethodHead, url)
	if err != nil {
		return ctx.Err() == nil, "dead link: " + err.Error()
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = s.do(ctx, http.MethodGet, url)
		if err != nil {
			return ctx.Err() == nil, "dead link: " + err.Error()
		}
		resp.Body.Close()
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		// Throttled, not gone.
		return false, ""
	case resp.StatusCode >= 400:
		return true, fmt.Sprintf("dead link: HTTP %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, ""
	}

	phrase, err := s.softNotFound(ctx, url)
	if err != nil {
		s.logger.Debug("soft 404 check failed", "url", url, "error", err)
		return false, ""
	}
	if phrase != "" {
		return true, "soft 404: " + phrase
	}
	return false, ""
}

// softNotFound reads the first PeekBytes of the page and returns the first
// closed-posting phrase found in its text.
func (s *Sweeper) softNotFound(ctx context.Context, url string) (string, error) {
	resp, err := s.do(ctx, http.MethodGet, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.cfg.PeekBytes))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(strings.Join(strings.Fields(doc.Text()), " "))
	text = strings.ReplaceAll(text, "’", "'")

	for _, phrase := range softNotFound {
		if strings.Contains(text, phrase) {
			return phrase, nil
		}
	}
	return "", nil
}

func (s *Sweeper) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	return s.cfg.Client.Do(req)
}
