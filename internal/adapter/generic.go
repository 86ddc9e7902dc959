package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/stackradar/internal/ai"
	"github.com/amishk599/stackradar/internal/model"
)

const (
	// maxPageChars bounds the compacted page text kept per posting.
	maxPageChars = 60000
	// maxPromptChars bounds the prefix handed to the extractor.
	maxPromptChars = 12000
	maxPageBytes   = 4 << 20
)

// listingSuffixes mark a search or listing page rather than a single posting.
var listingSuffixes = []string{
	"/jobs", "/careers", "/search", "/job-search", "/jobsearch",
	"/openings", "/positions", "/jobs/search", "/jobsearch.ftl",
}

// GenericAdapter extracts a single posting from a deep-linked page on an ATS
// host without a public API. The hub is the canonical deep link.
type GenericAdapter struct {
	base
	extractor ai.Extractor
}

// NewGenericAdapter creates a generic adapter backed by extractor.
func NewGenericAdapter(cfg Config, extractor ai.Extractor) *GenericAdapter {
	return &GenericAdapter{base: newBase(cfg), extractor: extractor}
}

func (a *GenericAdapter) Name() string { return "generic" }

// FetchPostings fetches the page, strips it to text and asks the extractor
// for the posting fields. A redirect onto a listing page returns
// model.ErrListingRedirect.
func (a *GenericAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "generic fetch for " + hub

	text, err := a.fetchPageText(ctx, hub, op)
	if err != nil {
		return nil, err
	}

	ext, err := a.extractor.Extract(ctx, ai.ExtractRequest{
		URL:  hub,
		Text: truncateRunes(text, maxPromptChars),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	desc := ext.DescriptionHTML
	if desc == "" {
		desc = text
	}

	return []model.RawPosting{{
		Title:        ext.Title,
		Company:      ext.Company,
		Location:     ext.Location,
		Description:  desc,
		ApplyURL:     hub,
		IsRemoteHint: ext.IsRemote,
		SourceTag:    a.Name(),
	}}, nil
}

func (a *GenericAdapter) fetchPageText(ctx context.Context, pageURL, op string) (string, error) {
	req, err := a.newRequest(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op); err != nil {
		return "", err
	}

	if final := resp.Request.URL; isListingRedirect(req.URL, final) {
		return "", fmt.Errorf("%s: landed on %s: %w", op, final, model.ErrListingRedirect)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}

	text, err := PageText(string(body))
	if err != nil {
		return "", fmt.Errorf("%s: parse html: %w", op, err)
	}
	return truncateRunes(text, maxPageChars), nil
}

// isListingRedirect reports whether fetching requested ended on a search or
// listing page instead of the posting.
func isListingRedirect(requested, final *url.URL) bool {
	if final.String() == requested.String() {
		return false
	}
	path := strings.ToLower(strings.TrimRight(final.Path, "/"))
	if path == "" {
		return true
	}
	for _, suffix := range listingSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	// Workday and Jobvite drop the /job/ segment when a posting is closed.
	return strings.Contains(strings.ToLower(requested.Path), "/job/") && !strings.Contains(path, "/job/")
}
