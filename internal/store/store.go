// Package store persists screened postings. SQLite is the default backend;
// Postgres serves deployments that share the database with the web tier.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/amishk599/stackradar/internal/migrations"
	"github.com/amishk599/stackradar/internal/model"
)

// maxSlugAttempts bounds the -2, -3, ... suffix search on slug collisions.
const maxSlugAttempts = 50

// Open returns the store for driver ("sqlite", "postgres" or "nop") and
// applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (model.Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLiteStore(ctx, dsn)
	case "postgres", "postgresql", "pgx":
		return NewPostgresStore(ctx, dsn)
	case "nop":
		return NewNopStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// OpenDB opens a plain database handle for driver and returns it with the
// goose dialect that matches. Used by the migrate command.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, string, error) {
	switch driver {
	case "sqlite", "":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("opening sqlite db: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("pinging sqlite db: %w", err)
		}
		return db, migrations.SQLite, nil
	case "postgres", "postgresql", "pgx":
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, "", fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, "", fmt.Errorf("postgres ping failed: %w", err)
		}
		return stdlib.OpenDBFromPool(pool), migrations.Postgres, nil
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", driver)
	}
}

// Fingerprint identifies a (title, company) pair independent of case and
// surrounding whitespace.
func Fingerprint(title, company string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(company))))
	return hex.EncodeToString(h.Sum(nil))
}

func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt+1)
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
