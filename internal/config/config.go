package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/stackradar/internal/model"
)

// DefaultPath is read when neither --config nor STACKRADAR_CONFIG is set.
const DefaultPath = "config.yaml"

// Config is the root configuration for StackRadar.
type Config struct {
	LogLevel    string
	Schedule    string        // cron spec for `stackradar schedule`
	RunTimeout  time.Duration // run-wide deadline, 0 for none
	TargetsFile string
	Workers     int // concurrent hub fetches
	Pause       time.Duration
	DedupWindow time.Duration

	Database    DatabaseConfig
	RedisURL    string // enables the shared per-URL lock when set
	Search      SearchConfig
	Adapters    AdapterConfig
	RateLimit   RateLimitConfig
	Retry       RetryConfig
	AI          AIConfig
	Geocoder    GeocoderConfig
	Maintenance MaintenanceConfig
	Seeds       []SeedConfig
	Feeds       []FeedConfig
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, URL for postgres
}

// SearchConfig controls discovery queries.
type SearchConfig struct {
	APIKey       string
	Endpoint     string
	Engine       string
	MinDelay     time.Duration // gap between queries, at least 1s
	ExcludeSites []string      // nil keeps the built-in vendor list
	ExcludeHubs  []string
}

// AdapterConfig applies to every ATS adapter.
type AdapterConfig struct {
	UserAgent string
	Timeout   time.Duration
	MaxAge    time.Duration // freshness window for timestamped postings
}

// RateLimitConfig controls ATS-level rate limiting.
type RateLimitConfig struct {
	MinDelay     time.Duration            // minimum gap between requests to the same ATS
	ATSOverrides map[string]time.Duration // per-ATS overrides, keyed by provider name
}

// MinDelayFor returns the configured delay for the given ATS, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(ats string) time.Duration {
	if d, ok := r.ATSOverrides[ats]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls retries of transient fetch failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// AIConfig controls the model-backed extractor used for opaque career sites.
type AIConfig struct {
	Provider string        // "openai" or "langchain"
	BaseURL  string        // defaults to https://api.openai.com/v1
	Model    string        // model identifier, e.g. "gpt-4o-mini"
	APIKey   string        // MODEL_API_KEY; the generic adapter is off without it
	Timeout  time.Duration // per-request timeout
}

// Enabled reports whether a model key is configured.
func (a AIConfig) Enabled() bool { return a.APIKey != "" }

// GeocoderConfig controls the location geocoder fallback.
type GeocoderConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	CacheDir  string // badger directory; empty keeps the cache in memory
}

// MaintenanceConfig controls the pre-ingest sweep.
type MaintenanceConfig struct {
	Enabled    bool
	StaleAfter time.Duration
	PinTTL     time.Duration
	FeatureTTL time.Duration
	Workers    int
}

// SeedConfig is a hub ingested on every run in addition to discovered ones.
type SeedConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"` // greenhouse, lever, ashby, workable, smartrecruiters, workday, generic
	Hub      string `yaml:"hub"`      // board token, or the deep link for workday/generic
	Enabled  bool   `yaml:"enabled"`
}

// FeedConfig is an RSS or Atom job feed.
type FeedConfig struct {
	URL     string `yaml:"url"`
	Company string `yaml:"company"`
	Enabled bool   `yaml:"enabled"`
}

const (
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultNominatimURL   = "https://nominatim.openstreetmap.org"
	defaultGeoUserAgent   = "stackradar/1.0 (+https://github.com/amishk599/stackradar)"
	defaultSearchEndpoint = "https://serpapi.com/search.json"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	LogLevel    string               `yaml:"log_level"`
	Schedule    string               `yaml:"schedule"`
	RunTimeout  string               `yaml:"run_timeout"`
	TargetsFile string               `yaml:"targets_file"`
	Workers     int                  `yaml:"workers"`
	Pause       string               `yaml:"pause"`
	DedupWindow string               `yaml:"dedup_window"`
	Database    DatabaseConfig       `yaml:"database"`
	RedisURL    string               `yaml:"redis_url"`
	Search      rawSearchConfig      `yaml:"search"`
	Adapters    rawAdapterConfig     `yaml:"adapters"`
	RateLimit   rawRateLimitConfig   `yaml:"rate_limit"`
	Retry       rawRetryConfig       `yaml:"retry"`
	AI          rawAIConfig          `yaml:"ai"`
	Geocoder    rawGeocoderConfig    `yaml:"geocoder"`
	Maintenance rawMaintenanceConfig `yaml:"maintenance"`
	Seeds       []SeedConfig         `yaml:"seeds"`
	Feeds       []FeedConfig         `yaml:"feeds"`
}

type rawSearchConfig struct {
	APIKey       string   `yaml:"api_key"`
	Endpoint     string   `yaml:"endpoint"`
	Engine       string   `yaml:"engine"`
	MinDelay     string   `yaml:"min_delay"`
	ExcludeSites []string `yaml:"exclude_sites"`
	ExcludeHubs  []string `yaml:"exclude_hubs"`
}

type rawAdapterConfig struct {
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
	MaxAge    string `yaml:"max_age"`
}

type rawRateLimitConfig struct {
	MinDelay     string            `yaml:"min_delay"`
	ATSOverrides map[string]string `yaml:"ats_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawGeocoderConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	CacheDir  string `yaml:"cache_dir"`
}

type rawMaintenanceConfig struct {
	Enabled    *bool  `yaml:"enabled"`
	StaleAfter string `yaml:"stale_after"`
	PinTTL     string `yaml:"pin_ttl"`
	FeatureTTL string `yaml:"feature_ttl"`
	Workers    int    `yaml:"workers"`
}

// Resolve picks the config source: an explicit path must exist; otherwise
// STACKRADAR_CONFIG, then ./config.yaml, then the built-in defaults.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if env := os.Getenv("STACKRADAR_CONFIG"); env != "" {
		return Load(env)
	}
	cfg, err := Load(DefaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return cfg, err
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() (*Config, error) {
	return parse(nil)
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	p := durationParser{}
	cfg := &Config{
		LogLevel:    orDefault(raw.LogLevel, "info"),
		Schedule:    orDefault(raw.Schedule, "@every 6h"),
		RunTimeout:  p.parse("run_timeout", raw.RunTimeout, 45*time.Minute),
		TargetsFile: orDefault(raw.TargetsFile, "hunt_targets.txt"),
		Workers:     raw.Workers,
		Pause:       p.parse("pause", raw.Pause, 500*time.Millisecond),
		DedupWindow: p.parse("dedup_window", raw.DedupWindow, 30*24*time.Hour),
		Database: DatabaseConfig{
			Driver: orDefault(raw.Database.Driver, "sqlite"),
			DSN:    orDefault(raw.Database.DSN, "stackradar.db"),
		},
		RedisURL: raw.RedisURL,
		Search: SearchConfig{
			APIKey:       raw.Search.APIKey,
			Endpoint:     orDefault(raw.Search.Endpoint, defaultSearchEndpoint),
			Engine:       orDefault(raw.Search.Engine, "google"),
			MinDelay:     p.parse("search.min_delay", raw.Search.MinDelay, time.Second),
			ExcludeSites: raw.Search.ExcludeSites,
			ExcludeHubs:  raw.Search.ExcludeHubs,
		},
		Adapters: AdapterConfig{
			UserAgent: raw.Adapters.UserAgent,
			Timeout:   p.parse("adapters.timeout", raw.Adapters.Timeout, 10*time.Second),
			MaxAge:    p.parse("adapters.max_age", raw.Adapters.MaxAge, 14*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			MinDelay:     p.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second),
			ATSOverrides: make(map[string]time.Duration),
		},
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  p.parse("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second),
		},
		AI: AIConfig{
			Provider: orDefault(raw.AI.Provider, "openai"),
			BaseURL:  orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:    orDefault(raw.AI.Model, "gpt-4o-mini"),
			APIKey:   raw.AI.APIKey,
			Timeout:  p.parse("ai.timeout", raw.AI.Timeout, maxCallTimeout),
		},
		Geocoder: GeocoderConfig{
			Enabled:   raw.Geocoder.Enabled == nil || *raw.Geocoder.Enabled,
			BaseURL:   orDefault(raw.Geocoder.BaseURL, defaultNominatimURL),
			UserAgent: orDefault(raw.Geocoder.UserAgent, defaultGeoUserAgent),
			CacheDir:  raw.Geocoder.CacheDir,
		},
		Maintenance: MaintenanceConfig{
			Enabled:    raw.Maintenance.Enabled == nil || *raw.Maintenance.Enabled,
			StaleAfter: p.parse("maintenance.stale_after", raw.Maintenance.StaleAfter, 60*24*time.Hour),
			PinTTL:     p.parse("maintenance.pin_ttl", raw.Maintenance.PinTTL, 7*24*time.Hour),
			FeatureTTL: p.parse("maintenance.feature_ttl", raw.Maintenance.FeatureTTL, 30*24*time.Hour),
			Workers:    raw.Maintenance.Workers,
		},
		Seeds: raw.Seeds,
		Feeds: raw.Feeds,
	}
	for ats, d := range raw.RateLimit.ATSOverrides {
		cfg.RateLimit.ATSOverrides[ats] = p.parse(fmt.Sprintf("rate_limit.ats_overrides[%q]", ats), d, 0)
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.Workers == 0 {
		cfg.Workers = 8
	}
	if cfg.Maintenance.Workers == 0 {
		cfg.Maintenance.Workers = 16
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv lets the environment override secrets and connection strings.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("MODEL_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
}

// RequireSearchKey returns model.ErrMissingSearchKey when discovery cannot
// run. Only commands that search call it.
func (c *Config) RequireSearchKey() error {
	if strings.TrimSpace(c.Search.APIKey) == "" {
		return model.ErrMissingSearchKey
	}
	return nil
}

// EnabledSeeds returns the seeds with enabled: true.
func (c *Config) EnabledSeeds() []SeedConfig {
	var out []SeedConfig
	for _, s := range c.Seeds {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// EnabledFeeds returns the feeds with enabled: true.
func (c *Config) EnabledFeeds() []FeedConfig {
	var out []FeedConfig
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

var knownProviders = map[string]bool{
	"greenhouse": true, "lever": true, "ashby": true, "workable": true,
	"smartrecruiters": true, "workday": true, "generic": true,
}

func validate(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	if cfg.Workers < 1 || cfg.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64, got %d", cfg.Workers)
	}
	if cfg.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative, got %v", cfg.RunTimeout)
	}
	if cfg.DedupWindow <= 0 {
		return fmt.Errorf("dedup_window must be positive, got %v", cfg.DedupWindow)
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}

	if cfg.Search.MinDelay < time.Second {
		return fmt.Errorf("search.min_delay must be at least 1s, got %v", cfg.Search.MinDelay)
	}
	if err := checkCallTimeout("adapters.timeout", cfg.Adapters.Timeout); err != nil {
		return err
	}
	if err := checkCallTimeout("ai.timeout", cfg.AI.Timeout); err != nil {
		return err
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	if cfg.AI.Enabled() {
		switch cfg.AI.Provider {
		case "openai", "langchain":
		default:
			return fmt.Errorf("ai.provider must be \"openai\" or \"langchain\", got %q", cfg.AI.Provider)
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when a model key is set")
		}
	}

	for i, s := range cfg.Seeds {
		if !s.Enabled {
			continue
		}
		if !knownProviders[s.Provider] {
			return fmt.Errorf("seeds[%d]: unknown provider %q", i, s.Provider)
		}
		if s.Hub == "" {
			return fmt.Errorf("seeds[%d]: hub is required", i)
		}
	}
	for i, f := range cfg.Feeds {
		if f.Enabled && !strings.HasPrefix(f.URL, "http") {
			return fmt.Errorf("feeds[%d]: url must be http(s), got %q", i, f.URL)
		}
	}

	return nil
}

// Every outbound call carries a hard timeout within these bounds.
const (
	minCallTimeout = 5 * time.Second
	maxCallTimeout = 15 * time.Second
)

func checkCallTimeout(key string, d time.Duration) error {
	if d < minCallTimeout || d > maxCallTimeout {
		return fmt.Errorf("%s must be between %v and %v, got %v", key, minCallTimeout, maxCallTimeout, d)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// durationParser remembers the first parse failure so that Load can report
// it once after building the whole config.
type durationParser struct {
	err error
}

func (p *durationParser) parse(field, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d
}
