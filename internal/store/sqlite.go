package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amishk599/stackradar/internal/migrations"
	"github.com/amishk599/stackradar/internal/model"
)

// Timestamps are stored as fixed-width UTC text so that string comparison
// in SQL orders them correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps postings in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// and migrates the schema.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection serializes writers and keeps PRAGMAs and :memory: state.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrations.Run(ctx, db, migrations.SQLite); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// ExistsURL reports whether a posting with this canonical apply URL exists.
func (s *SQLiteStore) ExistsURL(ctx context.Context, canonicalURL string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM postings WHERE apply_url = ?", canonicalURL).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking url %s: %w", canonicalURL, err)
	}
	return true, nil
}

// ExistsRecentTitleCompany reports whether the same (title, company) pair
// was inserted at or after since.
func (s *SQLiteStore) ExistsRecentTitleCompany(ctx context.Context, title, company string, since time.Time) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM postings WHERE fingerprint = ? AND created_at >= ? LIMIT 1",
		Fingerprint(title, company), formatTime(since),
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking title/company %q at %q: %w", title, company, err)
	}
	return true, nil
}

// InsertPosting writes p, suffixing the slug on collision. p.ID, p.Slug and
// p.CreatedAt are updated to the stored values.
func (s *SQLiteStore) InsertPosting(ctx context.Context, p *model.PersistedPosting) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ScreenedAt.IsZero() {
		p.ScreenedAt = p.CreatedAt
	}
	base := p.Slug

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := slugCandidate(base, attempt)
		res, err := s.db.ExecContext(ctx, `INSERT INTO postings (
			title, company, location, arrangement, description, apply_url, published_at, source_tag,
			score, status, categories, stack, role_type, reason,
			slug, logo_url, tags, is_active, pinned, featured, fingerprint, screened_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Title, p.Company, p.Location, string(p.Arrangement), p.Description, p.ApplyURL,
			formatTimePtr(p.PublishedAt), p.SourceTag,
			p.Score, string(p.Status), joinList(p.Categories), joinList(p.Stack), string(p.RoleType), p.Reason,
			slug, p.LogoURL, p.Tags, p.IsActive, p.Pinned, p.Featured,
			Fingerprint(p.Title, p.Company), formatTime(p.ScreenedAt), formatTime(p.CreatedAt),
		)
		if err != nil {
			switch uniqueViolation(err) {
			case "apply_url":
				return 0, fmt.Errorf("inserting %s: %w", p.ApplyURL, model.ErrDuplicate)
			case "slug":
				continue
			}
			return 0, fmt.Errorf("inserting %s: %w", p.ApplyURL, err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading id for %s: %w", p.ApplyURL, err)
		}
		p.ID = id
		p.Slug = slug
		return id, nil
	}
	return 0, fmt.Errorf("inserting %s: no free slug for %q", p.ApplyURL, base)
}

// ListActivePostings returns every active posting, newest first.
func (s *SQLiteStore) ListActivePostings(ctx context.Context) ([]model.PersistedPosting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, title, company, location, arrangement, description, apply_url, published_at, source_tag,
		score, status, categories, stack, role_type, reason,
		slug, logo_url, tags, is_active, pinned, featured, screened_at, created_at
		FROM postings WHERE is_active = 1 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}
	defer rows.Close()

	var out []model.PersistedPosting
	for rows.Next() {
		var (
			p                         model.PersistedPosting
			arrangement, status, role string
			categories, stack         string
			published                 sql.NullString
			screenedAt, createdAt     string
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Company, &p.Location, &arrangement, &p.Description, &p.ApplyURL, &published, &p.SourceTag,
			&p.Score, &status, &categories, &stack, &role, &p.Reason,
			&p.Slug, &p.LogoURL, &p.Tags, &p.IsActive, &p.Pinned, &p.Featured, &screenedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		p.Arrangement = model.Arrangement(arrangement)
		p.Status = model.Status(status)
		p.RoleType = model.RoleType(role)
		p.Categories = splitList(categories)
		p.Stack = splitList(stack)
		if published.Valid {
			t := parseTime(published.String)
			p.PublishedAt = &t
		}
		p.ScreenedAt = parseTime(screenedAt)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing active postings: %w", err)
	}
	return out, nil
}

// UpdateStatus sets status and is_active. An empty reason keeps the old one.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id int64, status model.Status, isActive bool, reason string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE postings SET status = ?, is_active = ?, reason = COALESCE(NULLIF(?, ''), reason) WHERE id = ?",
		string(status), isActive, reason, id,
	)
	if err != nil {
		return fmt.Errorf("updating status of posting %d: %w", id, err)
	}
	return nil
}

// DecayPinsAndFeatures clears pinned and featured flags on postings created
// more than pinTTL and featureTTL before now. It returns the number of rows
// changed.
func (s *SQLiteStore) DecayPinsAndFeatures(ctx context.Context, now time.Time, pinTTL, featureTTL time.Duration) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("decaying pins: %w", err)
	}
	defer tx.Rollback()

	pins, err := tx.ExecContext(ctx, "UPDATE postings SET pinned = 0 WHERE pinned = 1 AND created_at < ?", formatTime(now.Add(-pinTTL)))
	if err != nil {
		return 0, fmt.Errorf("decaying pins: %w", err)
	}
	features, err := tx.ExecContext(ctx, "UPDATE postings SET featured = 0 WHERE featured = 1 AND created_at < ?", formatTime(now.Add(-featureTTL)))
	if err != nil {
		return 0, fmt.Errorf("decaying features: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("decaying pins and features: %w", err)
	}

	p, _ := pins.RowsAffected()
	f, _ := features.RowsAffected()
	return p + f, nil
}

// DemoteStale moves approved postings older than olderThan back to pending
// and deactivates them.
func (s *SQLiteStore) DemoteStale(ctx context.Context, now time.Time, olderThan time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE postings SET status = ?, is_active = 0 WHERE status = ? AND created_at < ?",
		string(model.StatusPending), string(model.StatusApproved), formatTime(now.Add(-olderThan)),
	)
	if err != nil {
		return 0, fmt.Errorf("demoting stale postings: %w", err)
	}
	return res.RowsAffected()
}

// PurgeRejected deletes every rejected posting.
func (s *SQLiteStore) PurgeRejected(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM postings WHERE status = ?", string(model.StatusRejected))
	if err != nil {
		return 0, fmt.Errorf("purging rejected postings: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// uniqueViolation returns the column named in a UNIQUE constraint failure,
// or "" for any other error.
func uniqueViolation(err error) string {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return ""
	}
	// "UNIQUE constraint failed: postings.apply_url"
	msg := se.Error()
	switch {
	case strings.Contains(msg, "postings.apply_url"):
		return "apply_url"
	case strings.Contains(msg, "postings.slug"):
		return "slug"
	}
	return ""
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
