package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// Limiter enforces a minimum delay between calls that share a key: one key
// per ATS provider for adapter fetches, "search" for discovery queries.
type Limiter struct {
	mu       sync.Mutex
	next     map[string]time.Time // key: earliest time the next call may start
	minDelay time.Duration
}

// NewLimiter creates a limiter that enforces minDelay between consecutive
// calls for the same key.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		next:     make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the caller may proceed for key. Each caller reserves its
// own slot, so concurrent waiters on one key are spread minDelay apart.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := time.Now()
	slot, ok := l.next[key]
	if !ok || slot.Before(now) {
		slot = now
	}
	l.next[key] = slot.Add(l.minDelay)
	l.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RateLimitedSource is a decorator that enforces provider-level rate
// limiting before delegating to the wrapped Source.
type RateLimitedSource struct {
	inner   model.Source
	limiter *Limiter
}

// NewRateLimitedSource wraps a Source, keyed by its Name. All sources for one
// provider should share the same limiter instance.
func NewRateLimitedSource(inner model.Source, limiter *Limiter) *RateLimitedSource {
	return &RateLimitedSource{inner: inner, limiter: limiter}
}

func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// FetchPostings waits for the limiter, then delegates to the wrapped source.
func (s *RateLimitedSource) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	if err := s.limiter.Wait(ctx, s.inner.Name()); err != nil {
		return nil, err
	}
	return s.inner.FetchPostings(ctx, hub)
}
