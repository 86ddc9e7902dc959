package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicate is returned by a Store when an insert hits a unique constraint.
	// The pipeline treats it as a successful no-op.
	ErrDuplicate = errors.New("duplicate posting")

	// ErrListingRedirect means a deep link resolved to a search/listing page
	// instead of a single posting.
	ErrListingRedirect = errors.New("redirected to listing page")

	// ErrExtraction means the model-backed extractor returned unusable output.
	ErrExtraction = errors.New("extraction failed")

	// ErrMissingSearchKey is the one fatal configuration error of a run.
	ErrMissingSearchKey = errors.New("search api key is not set (SEARCH_API_KEY)")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
