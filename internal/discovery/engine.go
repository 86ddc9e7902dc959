package discovery

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/adapter"
	"github.com/amishk599/stackradar/internal/ratelimit"
)

// MinSearchDelay is the lower bound on the gap between two search queries.
const MinSearchDelay = time.Second

const searchKey = "search"

// Hit is a routed search result.
type Hit struct {
	Provider string
	Hub      string
	URL      string
}

// EngineConfig controls what Discover searches for. Nil groups and exclusion
// lists take the package defaults.
type EngineConfig struct {
	Groups       []Group
	Targets      []TargetLine
	ExcludeSites []string
	ExcludeHubs  []string
}

// Engine turns target lines into routed ATS hubs.
type Engine struct {
	searcher    Searcher
	limiter     *ratelimit.Limiter
	groups      []Group
	targets     []TargetLine
	excludes    []string
	excludeHubs map[string]bool
	logger      *slog.Logger
}

// NewEngine builds an Engine. A nil limiter gets one with MinSearchDelay.
func NewEngine(searcher Searcher, cfg EngineConfig, limiter *ratelimit.Limiter, logger *slog.Logger) *Engine {
	if cfg.Groups == nil {
		cfg.Groups = DefaultGroups()
	}
	if cfg.ExcludeSites == nil {
		cfg.ExcludeSites = DefaultExcludeSites()
	}
	if cfg.ExcludeHubs == nil {
		cfg.ExcludeHubs = DefaultExcludeHubs()
	}
	if limiter == nil {
		limiter = ratelimit.NewLimiter(MinSearchDelay)
	}
	hubs := make(map[string]bool, len(cfg.ExcludeHubs))
	for _, h := range cfg.ExcludeHubs {
		hubs[strings.ToLower(h)] = true
	}
	return &Engine{
		searcher:    searcher,
		limiter:     limiter,
		groups:      cfg.Groups,
		targets:     cfg.Targets,
		excludes:    cfg.ExcludeSites,
		excludeHubs: hubs,
		logger:      logger,
	}
}

// Queries returns every query Discover would issue, in order.
func (e *Engine) Queries() []string {
	queries := make([]string, 0, len(e.groups)*len(e.targets))
	for _, g := range e.groups {
		for _, t := range e.targets {
			queries = append(queries, BuildQuery(g, t, e.excludes))
		}
	}
	return queries
}

// Discover runs every query one at a time and returns the unique hubs found.
// A failed query is logged and skipped. The only error returned is the
// context's, together with the hits gathered so far.
func (e *Engine) Discover(ctx context.Context) ([]Hit, error) {
	var hits []Hit
	seen := make(map[string]bool)

	for _, g := range e.groups {
		for _, t := range e.targets {
			if err := e.limiter.Wait(ctx, searchKey); err != nil {
				return hits, err
			}

			query := BuildQuery(g, t, e.excludes)
			links, err := e.searcher.Search(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return hits, ctx.Err()
				}
				e.logger.Warn("search query failed", "group", g.Name, "target", t.Raw, "error", err)
				continue
			}

			added := 0
			for _, link := range links {
				target, ok := adapter.Route(link)
				if !ok {
					e.logger.Debug("unroutable search result", "url", link)
					continue
				}
				if e.excluded(target) {
					continue
				}
				key := target.Provider + "|" + strings.ToLower(target.Hub)
				if seen[key] {
					continue
				}
				seen[key] = true
				hits = append(hits, Hit{Provider: target.Provider, Hub: target.Hub, URL: link})
				added++
			}
			e.logger.Info("search query done", "group", g.Name, "target", t.Raw, "results", len(links), "new_hubs", added)
		}
	}
	return hits, nil
}

// excluded reports whether a hub belongs to a MarTech vendor.
func (e *Engine) excluded(t adapter.Target) bool {
	switch t.Provider {
	case "workday", "generic":
		// Opaque hubs are URLs; match on the leading host label.
		host := t.Hub
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		label, _, _ := strings.Cut(host, ".")
		return e.excludeHubs[strings.ToLower(label)]
	default:
		return e.excludeHubs[strings.ToLower(t.Hub)]
	}
}
