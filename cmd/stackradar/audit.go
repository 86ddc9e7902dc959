package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/stackradar/internal/audit"
	"github.com/amishk599/stackradar/internal/config"
	"github.com/amishk599/stackradar/internal/location"
	"github.com/amishk599/stackradar/internal/model"
	"github.com/amishk599/stackradar/internal/screener"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse a hub's postings and verdicts interactively (TUI)",
	Long:  "Shows the seed hub picker, then the split-pane view of all postings against the ones that screen in. Writes nothing.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Audit runs a TUI; any log output once the alt-screen starts corrupts
	// the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sources, err := buildSources(cfg, silentLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up sources: %v\n", err)
		os.Exit(1)
	}
	normalizer, closeCache, err := setupNormalizer(cfg, silentLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up location normalizer: %v\n", err)
		os.Exit(1)
	}
	defer closeCache()

	runAudit(cfg, sources, normalizer)
	return nil
}

func runAudit(cfg *config.Config, sources map[string]model.Source, normalizer *location.Normalizer) {
	seeds := cfg.EnabledSeeds()
	for _, f := range cfg.EnabledFeeds() {
		seeds = append(seeds, config.SeedConfig{Name: f.Company, Provider: "feed", Hub: f.URL, Enabled: true})
	}
	if len(seeds) == 0 {
		fmt.Println("No enabled seeds or feeds in config.")
		return
	}

	scr := screener.Default()

	for {
		choice, err := audit.RunHubPicker(seeds)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		seed := seeds[choice]

		src, ok := sources[seed.Provider]
		if !ok {
			fmt.Printf("No source for provider %s (is MODEL_API_KEY set?)\n", seed.Provider)
			continue
		}

		raws, err := audit.RunLoader(seed.Name, 0, func(ctx context.Context) ([]model.RawPosting, error) {
			return src.FetchPostings(ctx, seed.Hub)
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		entries := audit.Evaluate(context.Background(), raws, normalizer, scr)

		label := fmt.Sprintf("%s (%s)", seed.Name, seed.Provider)
		wantQuit, err := audit.RunAuditTUI(label, entries)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
