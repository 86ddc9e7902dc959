// Package retry re-attempts transient source failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 2 * time.Second

	// maxRetryAfter bounds a server-supplied Retry-After so one hub cannot
	// stall a worker for the rest of the run.
	maxRetryAfter = time.Minute

	jitterFraction = 0.3
)

// RetrySource wraps a Source and retries 429s, 5xx responses and network
// errors with exponential backoff.
type RetrySource struct {
	inner      model.Source
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource wraps inner. maxRetries counts attempts after the first;
// a negative value disables retrying. A non-positive baseDelay takes
// DefaultBaseDelay and doubles on each retry.
func NewRetrySource(inner model.Source, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &RetrySource{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (f *RetrySource) Name() string { return f.inner.Name() }

func (f *RetrySource) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	for attempt := 0; ; attempt++ {
		postings, err := f.inner.FetchPostings(ctx, hub)
		if err == nil {
			return postings, nil
		}
		if attempt == f.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := f.backoffDelay(attempt+1, err)
		f.logger.Warn("retrying after transient error",
			"provider", f.inner.Name(),
			"hub", hub,
			"attempt", attempt+1,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// backoffDelay is baseDelay * 2^(attempt-1) with ±30% jitter, unless the
// error carries a Retry-After.
func (f *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return min(httpErr.RetryAfter, maxRetryAfter)
	}

	delay := f.baseDelay << (attempt - 1)
	jitter := (rand.Float64()*2 - 1) * jitterFraction
	return time.Duration(float64(delay) * (1 + jitter))
}

func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, model.ErrListingRedirect), errors.Is(err, model.ErrExtraction):
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	// Anything else is a network-level failure.
	return true
}
