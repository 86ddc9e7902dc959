package model

import (
	"context"
	"time"
)

// Source fetches postings for one hub identifier from a single provider.
type Source interface {
	Name() string
	FetchPostings(ctx context.Context, hub string) ([]RawPosting, error)
}

// Store is the persistence contract the pipeline and the maintenance sweep
// depend on. The downstream web/admin tier reads from the same store.
type Store interface {
	ExistsURL(ctx context.Context, canonicalURL string) (bool, error)
	ExistsRecentTitleCompany(ctx context.Context, title, company string, since time.Time) (bool, error)
	// InsertPosting writes p and returns its ID. A unique-constraint hit on
	// apply_url returns ErrDuplicate.
	InsertPosting(ctx context.Context, p *PersistedPosting) (int64, error)
	ListActivePostings(ctx context.Context) ([]PersistedPosting, error)
	UpdateStatus(ctx context.Context, id int64, status Status, isActive bool, reason string) error
	DecayPinsAndFeatures(ctx context.Context, now time.Time, pinTTL, featureTTL time.Duration) (int64, error)
	DemoteStale(ctx context.Context, now time.Time, olderThan time.Duration) (int64, error)
	PurgeRejected(ctx context.Context) (int64, error)
	Close() error
}
