package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Print the discovery queries",
	Long:  "Reads the targets file and prints every search query a run would issue. Does not call the search API.",
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	engine, err := setupEngine(cfg, setupLogger(debug, "error"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load targets: %v\n", err)
		os.Exit(1)
	}

	queries := engine.Queries()
	for i, q := range queries {
		fmt.Printf("%3d  %s\n", i+1, q)
	}
	fmt.Println(strings.Repeat("─", 47))

	seeds := seedHits(cfg)
	for _, s := range seeds {
		fmt.Printf("seed %-16s %s\n", s.Provider, s.Hub)
	}

	fmt.Printf("\nTotal: %d queries from %s, %d seeds\n", len(queries), cfg.TargetsFile, len(seeds))
	return nil
}
