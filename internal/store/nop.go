package store

import (
	"context"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It never reports a posting
// as existing and writes nothing, so every posting looks new on each run.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) ExistsURL(context.Context, string) (bool, error) {
	return false, nil
}

func (s *NopStore) ExistsRecentTitleCompany(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}

func (s *NopStore) InsertPosting(context.Context, *model.PersistedPosting) (int64, error) {
	return 0, nil
}

func (s *NopStore) ListActivePostings(context.Context) ([]model.PersistedPosting, error) {
	return nil, nil
}

func (s *NopStore) UpdateStatus(context.Context, int64, model.Status, bool, string) error {
	return nil
}

func (s *NopStore) DecayPinsAndFeatures(context.Context, time.Time, time.Duration, time.Duration) (int64, error) {
	return 0, nil
}

func (s *NopStore) DemoteStale(context.Context, time.Time, time.Duration) (int64, error) {
	return 0, nil
}

func (s *NopStore) PurgeRejected(context.Context) (int64, error) {
	return 0, nil
}

func (s *NopStore) Close() error {
	return nil
}
