package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/amishk599/stackradar/internal/migrations"
	"github.com/amishk599/stackradar/internal/model"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps postings in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and
// migrates the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	err = migrations.Run(ctx, db, migrations.Postgres)
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ExistsURL(ctx context.Context, canonicalURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM postings WHERE apply_url = $1)", canonicalURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking url %s: %w", canonicalURL, err)
	}
	return exists, nil
}

func (s *PostgresStore) ExistsRecentTitleCompany(ctx context.Context, title, company string, since time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM postings WHERE fingerprint = $1 AND created_at >= $2)",
		Fingerprint(title, company), since,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking title/company %q at %q: %w", title, company, err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertPosting(ctx context.Context, p *model.PersistedPosting) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ScreenedAt.IsZero() {
		p.ScreenedAt = p.CreatedAt
	}
	base := p.Slug
	categories, stack := p.Categories, p.Stack
	if categories == nil {
		categories = []string{}
	}
	if stack == nil {
		stack = []string{}
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := slugCandidate(base, attempt)
		var id int64
		err := s.pool.QueryRow(ctx, `INSERT INTO postings (
			title, company, location, arrangement, description, apply_url, published_at, source_tag,
			score, status, categories, stack, role_type, reason,
			slug, logo_url, tags, is_active, pinned, featured, fingerprint, screened_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id`,
			p.Title, p.Company, p.Location, string(p.Arrangement), p.Description, p.ApplyURL, p.PublishedAt, p.SourceTag,
			p.Score, string(p.Status), categories, stack, string(p.RoleType), p.Reason,
			slug, p.LogoURL, p.Tags, p.IsActive, p.Pinned, p.Featured,
			Fingerprint(p.Title, p.Company), p.ScreenedAt, p.CreatedAt,
		).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				switch pgErr.ConstraintName {
				case "postings_apply_url_key":
					return 0, fmt.Errorf("inserting %s: %w", p.ApplyURL, model.ErrDuplicate)
				case "postings_slug_key":
					continue
				}
			}
			return 0, fmt.Errorf("inserting %s: %w", p.ApplyURL, err)
		}
		p.ID = id
		p.Slug = slug
		return id, nil
	}
	return 0, fmt.Errorf("inserting %s: no free slug for %q", p.ApplyURL, base)
}

func (s *PostgresStore) ListActivePostings(ctx context.Context) ([]model.PersistedPosting, error) {
	rows, err := s.pool.Query(ctx, `SELECT
		id, title, company, location, arrangement, description, apply_url, published_at, source_tag,
		score, status, categories, stack, role_type, reason,
		slug, logo_url, tags, is_active, pinned, featured, screened_at, created_at
		FROM postings WHERE is_active ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PersistedPosting, error) {
		var (
			p                         model.PersistedPosting
			arrangement, status, role string
		)
		err := row.Scan(
			&p.ID, &p.Title, &p.Company, &p.Location, &arrangement, &p.Description, &p.ApplyURL, &p.PublishedAt, &p.SourceTag,
			&p.Score, &status, &p.Categories, &p.Stack, &role, &p.Reason,
			&p.Slug, &p.LogoURL, &p.Tags, &p.IsActive, &p.Pinned, &p.Featured, &p.ScreenedAt, &p.CreatedAt,
		)
		p.Arrangement = model.Arrangement(arrangement)
		p.Status = model.Status(status)
		p.RoleType = model.RoleType(role)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status model.Status, isActive bool, reason string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE postings SET status = $1, is_active = $2, reason = COALESCE(NULLIF($3, ''), reason) WHERE id = $4",
		string(status), isActive, reason, id,
	)
	if err != nil {
		return fmt.Errorf("updating status of posting %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) DecayPinsAndFeatures(ctx context.Context, now time.Time, pinTTL, featureTTL time.Duration) (int64, error) {
	var changed int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		pins, err := tx.Exec(ctx, "UPDATE postings SET pinned = FALSE WHERE pinned AND created_at < $1", now.Add(-pinTTL))
		if err != nil {
			return fmt.Errorf("decaying pins: %w", err)
		}
		features, err := tx.Exec(ctx, "UPDATE postings SET featured = FALSE WHERE featured AND created_at < $1", now.Add(-featureTTL))
		if err != nil {
			return fmt.Errorf("decaying features: %w", err)
		}
		changed = pins.RowsAffected() + features.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *PostgresStore) DemoteStale(ctx context.Context, now time.Time, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE postings SET status = $1, is_active = FALSE WHERE status = $2 AND created_at < $3",
		string(model.StatusPending), string(model.StatusApproved), now.Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("demoting stale postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) PurgeRejected(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM postings WHERE status = $1", string(model.StatusRejected))
	if err != nil {
		return 0, fmt.Errorf("purging rejected postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
