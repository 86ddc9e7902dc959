package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/stackradar/internal/adapter"
	"github.com/amishk599/stackradar/internal/ai"
	"github.com/amishk599/stackradar/internal/config"
	"github.com/amishk599/stackradar/internal/discovery"
	"github.com/amishk599/stackradar/internal/location"
	"github.com/amishk599/stackradar/internal/lock"
	"github.com/amishk599/stackradar/internal/model"
	"github.com/amishk599/stackradar/internal/ratelimit"
	"github.com/amishk599/stackradar/internal/retry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stackradar",
	Short: "MarTech job radar",
	Long:  "StackRadar discovers MarTech roles on ATS job boards, screens them and stores the keepers for review.",
	// Bare `stackradar` runs one batch, so cron entries can call the binary directly.
	RunE:          runRun,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: STACKRADAR_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline without writing to the store")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > STACKRADAR_CONFIG env var > "./config.yaml" > built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	return config.Resolve(path)
}

func setupLogger(dbg bool, level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// fatal logs a configuration failure and exits 1. Everything else a run can
// hit is logged and survived.
func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func adapterConfig(cfg *config.Config) adapter.Config {
	return adapter.Config{
		Client:    &http.Client{Timeout: cfg.Adapters.Timeout},
		UserAgent: cfg.Adapters.UserAgent,
		MaxAge:    cfg.Adapters.MaxAge,
	}
}

// setupExtractor returns nil when no model key is configured.
func setupExtractor(cfg *config.Config, logger *slog.Logger) (ai.Extractor, error) {
	if !cfg.AI.Enabled() {
		logger.Info("model api key not set, opaque career sites will be skipped")
		return nil, nil
	}

	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case "langchain":
		p, err := ai.NewLangChainProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("langchain provider: %w", err)
		}
		provider = p
	default:
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
	}

	logger.Info("page extraction enabled", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	return ai.NewPostingExtractor(provider, ai.ExtractPostingTemplate, cfg.AI.Timeout, logger), nil
}

// buildSources creates one adapter per provider. Each gets its own
// provider-wide rate limiter, and retries wrap the limiter so every attempt
// waits its turn.
func buildSources(cfg *config.Config, logger *slog.Logger) (map[string]model.Source, error) {
	acfg := adapterConfig(cfg)

	extractor, err := setupExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var generic model.Source
	if extractor != nil {
		generic = adapter.NewGenericAdapter(acfg, extractor)
	}

	feedCompanies := make(map[string]string)
	for _, f := range cfg.EnabledFeeds() {
		feedCompanies[f.URL] = f.Company
	}

	adapters := []model.Source{
		adapter.NewGreenhouseAdapter(acfg),
		adapter.NewLeverAdapter(acfg),
		adapter.NewAshbyAdapter(acfg),
		adapter.NewWorkableAdapter(acfg),
		adapter.NewSmartRecruitersAdapter(acfg, logger),
		adapter.NewWorkdayAdapter(acfg, generic, logger),
		adapter.NewFeedAdapter(acfg, feedCompanies),
	}
	if generic != nil {
		adapters = append(adapters, generic)
	}

	sources := make(map[string]model.Source, len(adapters))
	for _, a := range adapters {
		limiter := ratelimit.NewLimiter(cfg.RateLimit.MinDelayFor(a.Name()))
		var src model.Source = ratelimit.NewRateLimitedSource(a, limiter)
		src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
		sources[a.Name()] = src
		logger.Debug("registered source", "provider", a.Name(), "min_delay", cfg.RateLimit.MinDelayFor(a.Name()).String())
	}
	return sources, nil
}

// setupNormalizer returns the location normalizer and a close func for its
// cache.
func setupNormalizer(cfg *config.Config, logger *slog.Logger) (*location.Normalizer, func(), error) {
	if !cfg.Geocoder.Enabled {
		return location.NewNormalizer(nil, nil, logger), func() {}, nil
	}

	geocoder := location.NewNominatimGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, nil)

	cache, err := location.OpenBadgerCache(cfg.Geocoder.CacheDir, logger)
	if err != nil {
		return nil, nil, err
	}
	closeCache := func() {
		if err := cache.Close(); err != nil {
			logger.Warn("closing geocode cache", "error", err)
		}
	}
	return location.NewNormalizer(geocoder, cache, logger), closeCache, nil
}

// setupLocker prefers the shared Redis lock when configured and reachable.
func setupLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) lock.Locker {
	if cfg.RedisURL == "" {
		return lock.NewMemoryLocker()
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-process url locks", "error", err)
		return lock.NewMemoryLocker()
	}
	logger.Info("using redis url locks")
	return lock.NewRedisLocker(client, "stackradar:lock:", lock.DefaultTTL, logger)
}

// setupEngine loads the targets file and builds the discovery engine.
func setupEngine(cfg *config.Config, logger *slog.Logger) (*discovery.Engine, error) {
	targets, err := discovery.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return nil, err
	}
	searcher := discovery.NewSerpAPIClient(discovery.SerpAPIConfig{
		Endpoint: cfg.Search.Endpoint,
		APIKey:   cfg.Search.APIKey,
		Engine:   cfg.Search.Engine,
	}, nil)
	return discovery.NewEngine(searcher, discovery.EngineConfig{
		Targets:      targets,
		ExcludeSites: cfg.Search.ExcludeSites,
		ExcludeHubs:  cfg.Search.ExcludeHubs,
	}, ratelimit.NewLimiter(cfg.Search.MinDelay), logger), nil
}

// seedHits turns configured seeds and feeds into hubs ingested every run.
func seedHits(cfg *config.Config) []discovery.Hit {
	var hits []discovery.Hit
	for _, s := range cfg.EnabledSeeds() {
		hits = append(hits, discovery.Hit{Provider: s.Provider, Hub: s.Hub})
	}
	for _, f := range cfg.EnabledFeeds() {
		hits = append(hits, discovery.Hit{Provider: "feed", Hub: f.URL, URL: f.URL})
	}
	return hits
}
