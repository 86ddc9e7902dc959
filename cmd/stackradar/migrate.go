package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/stackradar/internal/migrations"
	"github.com/amishk599/stackradar/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|up-one|down|status|version|reset]",
	Short:     "Manage the database schema",
	Long:      "Runs a goose migration command against the configured database. Defaults to up.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "up-one", "down", "status", "version", "reset"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoad()

	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	ctx := context.Background()
	db, dialect, err := store.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	defer db.Close()

	if err := migrations.Command(ctx, db, dialect, command); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	logger.Info("migration complete", "command", command, "dialect", dialect)
	return nil
}
