package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLeverFetchPostings_Success(t *testing.T) {
	// 2026-02-15T00:00:00Z and 2025-12-01T00:00:00Z in Unix milliseconds
	payload := `[
		{
			"id": "abc-123",
			"text": "Marketing Automation Specialist",
			"description": "<p>Run HubSpot.</p>",
			"lists": [{"text": "Requirements", "content": "<li>Braze</li>"}],
			"additional": "<p>Benefits.</p>",
			"categories": {"location": "Austin, TX", "team": "Marketing"},
			"createdAt": 1771113600000,
			"workplaceType": "remote",
			"hostedUrl": "https://jobs.lever.co/acme/abc-123"
		},
		{
			"id": "old-1",
			"text": "Stale Role",
			"categories": {"location": "NYC"},
			"createdAt": 1764547200000,
			"hostedUrl": "https://jobs.lever.co/acme/old-1"
		}
	]`
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	postings, err := NewLeverAdapter(testConfig(srv)).FetchPostings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v0/postings/acme" || gotQuery != "mode=json" {
		t.Errorf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 fresh posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Company != "Acme" {
		t.Errorf("expected company Acme, got %s", p.Company)
	}
	if p.Location != "Austin, TX" {
		t.Errorf("expected location Austin, TX, got %s", p.Location)
	}
	if !p.IsRemoteHint {
		t.Error("expected remote hint from workplaceType")
	}
	if p.ApplyURL != "https://jobs.lever.co/acme/abc-123" {
		t.Errorf("unexpected apply URL %s", p.ApplyURL)
	}
	for _, part := range []string{"Run HubSpot.", "<h3>Requirements</h3>", "<li>Braze</li>", "Benefits."} {
		if !strings.Contains(p.Description, part) {
			t.Errorf("description missing %q: %s", part, p.Description)
		}
	}
	if p.PublishedAt == nil || !p.PublishedAt.Equal(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected PublishedAt: %v", p.PublishedAt)
	}
}

func TestLeverFetchPostings_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLeverAdapter(testConfig(srv)).FetchPostings(context.Background(), "gone")
	if err == nil {
		t.Fatal("expected error for HTTP 404, got nil")
	}
	if !strings.Contains(err.Error(), "lever fetch for gone") {
		t.Errorf("error should name the hub: %v", err)
	}
}
