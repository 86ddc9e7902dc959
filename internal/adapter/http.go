package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// DefaultUserAgent is sent on every provider request. Several ATS hosts
// answer 403 to obviously non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// DefaultMaxAge is the freshness window for providers that expose a timestamp.
const DefaultMaxAge = 14 * 24 * time.Hour

// Config holds what every adapter shares.
type Config struct {
	Client    *http.Client
	UserAgent string
	// MaxAge drops postings whose timestamp is older than this. Zero disables
	// the freshness filter.
	MaxAge time.Duration
	Now    func() time.Time
}

type base struct {
	client    *http.Client
	userAgent string
	fresh     freshness
}

func newBase(cfg Config) base {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return base{
		client:    client,
		userAgent: ua,
		fresh:     freshness{maxAge: cfg.MaxAge, now: now},
	}
}

func (b base) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	return req, nil
}

// doJSON executes req and decodes a 2xx JSON body into out. op prefixes
// every returned error, e.g. "greenhouse fetch for acme".
func (b base) doJSON(req *http.Request, op string, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// checkStatus converts a non-2xx response into a *model.HTTPError.
func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode),
	}
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

type freshness struct {
	maxAge time.Duration
	now    func() time.Time
}

// keep reports whether a posting published at t is inside the window.
// Postings without a timestamp are always kept.
func (f freshness) keep(t *time.Time) bool {
	if t == nil || f.maxAge <= 0 {
		return true
	}
	return f.now().Sub(*t) <= f.maxAge
}
