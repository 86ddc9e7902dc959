package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/amishk599/stackradar/internal/ai"
	"github.com/amishk599/stackradar/internal/model"
)

// fakeExtractor is a function-field ai.Extractor.
type fakeExtractor struct {
	ExtractFunc func(ctx context.Context, req ai.ExtractRequest) (ai.ExtractedPosting, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, req ai.ExtractRequest) (ai.ExtractedPosting, error) {
	return f.ExtractFunc(ctx, req)
}

const jobPage = `<html><head><title>MOps</title><style>.x{color:red}</style><script>var tracking = 1;</script></head>
<body><nav>Home Jobs</nav><header>Acme careers</header>
<main><h1>Marketing Operations Manager</h1><p>Own   Marketo
and Salesforce.</p></main>
<form>Apply now</form><footer>Privacy</footer></body></html>`

func TestGenericFetchPostings_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(jobPage))
	}))
	defer srv.Close()

	var gotReq ai.ExtractRequest
	ext := &fakeExtractor{ExtractFunc: func(_ context.Context, req ai.ExtractRequest) (ai.ExtractedPosting, error) {
		gotReq = req
		return ai.ExtractedPosting{
			Title:           "Marketing Operations Manager",
			Company:         "Acme",
			Location:        "Austin, TX",
			IsRemote:        true,
			DescriptionHTML: "<p>Own Marketo and Salesforce.</p>",
		}, nil
	}}

	hub := srv.URL + "/en-US/External/job/Austin/MOps_R1"
	a := NewGenericAdapter(Config{Client: srv.Client()}, ext)
	postings, err := a.FetchPostings(context.Background(), hub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.URL != hub {
		t.Errorf("extractor got URL %q", gotReq.URL)
	}
	if gotReq.Text != "MOps Marketing Operations Manager Own Marketo and Salesforce." {
		t.Errorf("unexpected page text %q", gotReq.Text)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}
	p := postings[0]
	if p.ApplyURL != hub || p.SourceTag != "generic" || !p.IsRemoteHint {
		t.Errorf("unexpected posting %+v", p)
	}
	if p.PublishedAt != nil {
		t.Error("generic postings carry no timestamp")
	}
}

func TestGenericFetchPostings_DescriptionFallsBackToPageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(jobPage))
	}))
	defer srv.Close()

	ext := &fakeExtractor{ExtractFunc: func(context.Context, ai.ExtractRequest) (ai.ExtractedPosting, error) {
		return ai.ExtractedPosting{Title: "MOps", Company: "Acme"}, nil
	}}

	postings, err := NewGenericAdapter(Config{Client: srv.Client()}, ext).FetchPostings(context.Background(), srv.URL+"/job/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(postings[0].Description, "Own Marketo and Salesforce.") {
		t.Errorf("expected page text description, got %q", postings[0].Description)
	}
}

func TestGenericFetchPostings_ListingRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/job/closed-123", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/careers/jobs", http.StatusFound)
	})
	mux.HandleFunc("/careers/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>All open roles</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	called := false
	ext := &fakeExtractor{ExtractFunc: func(context.Context, ai.ExtractRequest) (ai.ExtractedPosting, error) {
		called = true
		return ai.ExtractedPosting{}, nil
	}}

	_, err := NewGenericAdapter(Config{Client: srv.Client()}, ext).FetchPostings(context.Background(), srv.URL+"/careers/job/closed-123")
	if !errors.Is(err, model.ErrListingRedirect) {
		t.Fatalf("expected ErrListingRedirect, got %v", err)
	}
	if called {
		t.Error("extractor must not run on a listing page")
	}
}

func TestGenericFetchPostings_ExtractionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(jobPage))
	}))
	defer srv.Close()

	ext := &fakeExtractor{ExtractFunc: func(context.Context, ai.ExtractRequest) (ai.ExtractedPosting, error) {
		return ai.ExtractedPosting{}, model.ErrExtraction
	}}

	_, err := NewGenericAdapter(Config{Client: srv.Client()}, ext).FetchPostings(context.Background(), srv.URL+"/job/1")
	if !errors.Is(err, model.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestGenericFetchPostings_PromptIsBounded(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("é ", maxPageChars) + "</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	var promptLen int
	ext := &fakeExtractor{ExtractFunc: func(_ context.Context, req ai.ExtractRequest) (ai.ExtractedPosting, error) {
		promptLen = utf8.RuneCountInString(req.Text)
		return ai.ExtractedPosting{Title: "t", Company: "c"}, nil
	}}

	postings, err := NewGenericAdapter(Config{Client: srv.Client()}, ext).FetchPostings(context.Background(), srv.URL+"/job/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promptLen != maxPromptChars {
		t.Errorf("prompt text = %d chars, want %d", promptLen, maxPromptChars)
	}
	if n := utf8.RuneCountInString(postings[0].Description); n != maxPageChars {
		t.Errorf("page text = %d chars, want %d", n, maxPageChars)
	}
}

func TestIsListingRedirect(t *testing.T) {
	tests := []struct {
		requested string
		final     string
		want      bool
	}{
		{"https://a.test/job/1", "https://a.test/job/1", false},
		{"https://a.test/job/1", "https://a.test/jobs", true},
		{"https://a.test/job/1", "https://a.test/", true},
		{"https://a.test/careers/job/1", "https://a.test/careers/search?q=x", true},
		{"https://acme.wd5.myworkdayjobs.com/en-US/External/job/A/B_R1", "https://acme.wd5.myworkdayjobs.com/en-US/External", true},
		{"https://a.test/job/1", "https://a.test/job/1/details", false},
	}
	for _, tc := range tests {
		req, _ := url.Parse(tc.requested)
		fin, _ := url.Parse(tc.final)
		if got := isListingRedirect(req, fin); got != tc.want {
			t.Errorf("isListingRedirect(%s -> %s) = %v, want %v", tc.requested, tc.final, got, tc.want)
		}
	}
}
