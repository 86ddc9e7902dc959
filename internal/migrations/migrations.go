// Package migrations embeds the SQL migrations for each supported database
// and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files, one directory per dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Supported dialects, named the way goose names them.
const (
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// goose keeps its base FS, dialect and logger in package state.
var (
	mu     sync.Mutex
	logger = slog.Default()
)

// SetLogger routes goose output through l.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// gooseLogger adapts slog to goose.Logger.
type gooseLogger struct {
	logger *slog.Logger
}

var _ goose.Logger = gooseLogger{}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}

func dir(dialect string) (string, error) {
	switch dialect {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

// Run applies all pending migrations to db.
func Run(ctx context.Context, db *sql.DB, dialect string) error {
	return Command(ctx, db, dialect, "up")
}

// Command runs a goose command: up, up-one, down, status, version or reset.
func Command(ctx context.Context, db *sql.DB, dialect, command string) error {
	d, err := dir(dialect)
	if err != nil {
		return err
	}
	sub, err := fs.Sub(FS, d)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", dialect, err)
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetLogger(gooseLogger{logger: logger})
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	switch command {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "up-one":
		err = goose.UpByOneContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	case "version":
		err = goose.VersionContext(ctx, db, ".")
	case "reset":
		err = goose.ResetContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
