package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/stackradar/internal/config"
	"github.com/amishk599/stackradar/internal/discovery"
	"github.com/amishk599/stackradar/internal/lock"
	"github.com/amishk599/stackradar/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SEARCH_API_KEY", "")
	t.Setenv("MODEL_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg
}

func sourceNames(sources map[string]model.Source) []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestBuildSources_WithoutModelKey(t *testing.T) {
	cfg := defaultConfig(t)

	sources, err := buildSources(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"ashby", "feed", "greenhouse", "lever", "smartrecruiters", "workable", "workday"}, sourceNames(sources))
}

func TestBuildSources_WithModelKey(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.AI.APIKey = "sk-test"

	sources, err := buildSources(cfg, quietLogger())
	require.NoError(t, err)
	assert.Contains(t, sources, "generic")
	assert.Equal(t, "generic", sources["generic"].Name())
}

func TestSeedHits(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Seeds = []config.SeedConfig{
		{Name: "Acme", Provider: "greenhouse", Hub: "acme", Enabled: true},
		{Name: "Off", Provider: "lever", Hub: "off", Enabled: false},
	}
	cfg.Feeds = []config.FeedConfig{
		{URL: "https://jobs.example.com/feed.xml", Company: "Example", Enabled: true},
	}

	assert.Equal(t, []discovery.Hit{
		{Provider: "greenhouse", Hub: "acme"},
		{Provider: "feed", Hub: "https://jobs.example.com/feed.xml", URL: "https://jobs.example.com/feed.xml"},
	}, seedHits(cfg))
}

func TestSetupEngine(t *testing.T) {
	cfg := defaultConfig(t)
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("\"Marketo\" OR \"Eloqua\"\n# comment\nBraze\n"), 0o644))
	cfg.TargetsFile = path

	engine, err := setupEngine(cfg, quietLogger())
	require.NoError(t, err)
	assert.Len(t, engine.Queries(), 2*len(discovery.DefaultGroups()))

	cfg.TargetsFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = setupEngine(cfg, quietLogger())
	assert.Error(t, err)
}

func TestBuildOrchestrator_RequiresSearchKey(t *testing.T) {
	cfg := defaultConfig(t)

	_, _, err := buildOrchestrator(context.Background(), cfg, true, quietLogger())
	assert.ErrorIs(t, err, model.ErrMissingSearchKey)
}

func TestSetupLocker_FallsBackToMemory(t *testing.T) {
	cfg := defaultConfig(t)
	_, ok := setupLocker(context.Background(), cfg, quietLogger()).(*lock.MemoryLocker)
	assert.True(t, ok)

	cfg.RedisURL = "not a url"
	_, ok = setupLocker(context.Background(), cfg, quietLogger()).(*lock.MemoryLocker)
	assert.True(t, ok)
}

func TestSetupNormalizer_Disabled(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Geocoder.Enabled = false

	n, closeFn, err := setupNormalizer(cfg, quietLogger())
	require.NoError(t, err)
	defer closeFn()

	loc := n.Normalize(context.Background(), "Remote - US", false)
	assert.Equal(t, model.ArrangementRemote, loc.Arrangement)
}
