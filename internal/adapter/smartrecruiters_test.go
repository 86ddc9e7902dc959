package adapter

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSmartRecruitersFetchPostings(t *testing.T) {
	list := `{
		"content": [
			{
				"id": "744000001",
				"name": "CRM Manager",
				"releasedDate": "2026-02-16T09:30:00.000Z",
				"location": {"city": "Chicago", "region": "IL", "country": "us", "remote": false},
				"company": {"name": "Acme Retail"}
			},
			{
				"id": "744000002",
				"name": "Broken Detail",
				"releasedDate": "2026-02-17T09:30:00.000Z",
				"location": {"country": "us", "remote": true}
			},
			{
				"id": "744000003",
				"name": "Old Posting",
				"releasedDate": "2025-10-01T09:30:00.000Z",
				"location": {"country": "us"}
			}
		]
	}`
	detail := `{
		"jobAd": {"sections": {
			"companyDescription": {"title": "About us", "text": "<p>Retail.</p>"},
			"jobDescription": {"title": "The role", "text": "<p>Salesforce Marketing Cloud.</p>"},
			"qualifications": {"title": "", "text": "<p>SQL.</p>"}
		}}
	}`

	var detailCalls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/companies/acme/postings":
			w.Write([]byte(list))
		case "/v1/companies/acme/postings/744000001":
			detailCalls = append(detailCalls, r.URL.Path)
			w.Write([]byte(detail))
		default:
			detailCalls = append(detailCalls, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	a := NewSmartRecruitersAdapter(testConfig(srv), discardLogger())
	postings, err := a.FetchPostings(context.Background(), "acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The stale posting never gets a detail call.
	if len(detailCalls) != 2 {
		t.Errorf("expected 2 detail calls, got %v", detailCalls)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting (broken detail skipped), got %d", len(postings))
	}

	p := postings[0]
	if p.ApplyURL != "https://jobs.smartrecruiters.com/acme/744000001" {
		t.Errorf("unexpected apply URL %s", p.ApplyURL)
	}
	if p.Location != "Chicago, IL, us" {
		t.Errorf("unexpected location %q", p.Location)
	}
	if p.Company != "Acme Retail" {
		t.Errorf("unexpected company %q", p.Company)
	}
	for _, part := range []string{"<h3>About us</h3>", "Salesforce Marketing Cloud", "<p>SQL.</p>"} {
		if !strings.Contains(p.Description, part) {
			t.Errorf("description missing %q: %s", part, p.Description)
		}
	}
}

func TestSmartRecruitersFetchPostings_ListError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewSmartRecruitersAdapter(testConfig(srv), discardLogger()).FetchPostings(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected error when the list call fails")
	}
}
