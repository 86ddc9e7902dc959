package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSource calls a function on each invocation, tracking call count.
type mockSource struct {
	calls int
	fn    func(attempt int) ([]model.RawPosting, error)
}

func (m *mockSource) Name() string { return "lever" }

func (m *mockSource) FetchPostings(_ context.Context, _ string) ([]model.RawPosting, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	postings := []model.RawPosting{{Title: "Marketing Ops Manager", ApplyURL: "https://jobs.lever.co/acme/1"}}
	mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
		return postings, nil
	}}

	rf := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchPostings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Marketing Ops Manager" {
		t.Fatalf("unexpected postings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	postings := []model.RawPosting{{Title: "CRM Manager"}}
	mock := &mockSource{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return postings, nil
	}}

	rf := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.FetchPostings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchPostings(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rf := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rf.FetchPostings(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rf := NewRetrySource(mock, 2, time.Second, discardLogger())
	_, err := rf.FetchPostings(ctx, "acme")
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// Should have made initial call, then been cancelled during backoff.
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	for _, perm := range []error{model.ErrListingRedirect, model.ErrExtraction} {
		mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
			return nil, fmt.Errorf("generic fetch for https://x.test/job/1: %w", perm)
		}}

		rf := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
		_, err := rf.FetchPostings(context.Background(), "https://x.test/job/1")
		if !errors.Is(err, perm) {
			t.Fatalf("expected %v, got %v", perm, err)
		}
		if mock.calls != 1 {
			t.Fatalf("expected 1 call for %v, got %d", perm, mock.calls)
		}
	}
}

func TestRetry_NetworkErrorIsRetried(t *testing.T) {
	mock := &mockSource{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return []model.RawPosting{{Title: "t"}}, nil
	}}

	rf := NewRetrySource(mock, 2, 5*time.Millisecond, discardLogger())
	got, err := rf.FetchPostings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || mock.calls != 3 {
		t.Fatalf("expected success on third call, got %d postings after %d calls", len(got), mock.calls)
	}
	if rf.Name() != "lever" {
		t.Errorf("Name() = %q, want lever", rf.Name())
	}
}

func TestBackoffDelay_HonorsRetryAfter(t *testing.T) {
	rf := NewRetrySource(&mockSource{}, 2, time.Second, discardLogger())
	got := rf.backoffDelay(1, &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second})
	if got != 7*time.Second {
		t.Errorf("backoffDelay = %v, want 7s", got)
	}

	// Second attempt doubles the 1s base, within 30%.
	d := rf.backoffDelay(2, errors.New("x"))
	if d < 1400*time.Millisecond || d > 2600*time.Millisecond {
		t.Errorf("backoffDelay(2) = %v, want 2s +/- 30%%", d)
	}
}

func TestBackoffDelay_CapsRetryAfter(t *testing.T) {
	rf := NewRetrySource(&mockSource{}, 2, time.Second, discardLogger())
	got := rf.backoffDelay(1, &model.HTTPError{StatusCode: 429, RetryAfter: time.Hour})
	if got != maxRetryAfter {
		t.Errorf("backoffDelay = %v, want %v", got, maxRetryAfter)
	}
}

func TestNewRetrySource_Defaults(t *testing.T) {
	rf := NewRetrySource(&mockSource{}, -1, 0, discardLogger())
	if rf.maxRetries != 0 || rf.baseDelay != DefaultBaseDelay {
		t.Errorf("got maxRetries=%d baseDelay=%v", rf.maxRetries, rf.baseDelay)
	}

	mock := &mockSource{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 503}
	}}
	_, err := NewRetrySource(mock, 0, time.Millisecond, discardLogger()).FetchPostings(context.Background(), "acme")
	if err == nil || mock.calls != 1 {
		t.Errorf("zero retries: err=%v calls=%d, want error after 1 call", err, mock.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{&model.HTTPError{StatusCode: 404}, false},
		{&model.HTTPError{StatusCode: 429}, true},
		{&model.HTTPError{StatusCode: 502}, true},
		{fmt.Errorf("lever fetch for acme: %w", &model.HTTPError{StatusCode: 500}), true},
		{model.ErrExtraction, false},
		{errors.New("dial tcp: i/o timeout"), true},
	}
	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
