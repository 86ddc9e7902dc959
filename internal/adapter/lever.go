package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

type leverList struct {
	Text    string `json:"text"`
	Content string `json:"content"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	Description   string          `json:"description"`
	Lists         []leverList     `json:"lists"`
	Additional    string          `json:"additional"`
	Categories    leverCategories `json:"categories"`
	CreatedAt     int64           `json:"createdAt"`
	WorkplaceType string          `json:"workplaceType"`
	HostedURL     string          `json:"hostedUrl"`
}

// LeverAdapter fetches postings from the Lever public postings API. The hub
// is the company slug.
type LeverAdapter struct {
	base
	baseURL string
}

// NewLeverAdapter creates a new Lever adapter.
func NewLeverAdapter(cfg Config) *LeverAdapter {
	return &LeverAdapter{base: newBase(cfg), baseURL: leverBaseURL}
}

func (a *LeverAdapter) Name() string { return "lever" }

// FetchPostings retrieves all postings for the company. Lever does not
// report a company name, so it is derived from the slug.
func (a *LeverAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "lever fetch for " + hub
	url := fmt.Sprintf("%s/%s?mode=json", a.baseURL, hub)

	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var leverJobs []leverJob
	if err := a.doJSON(req, op, &leverJobs); err != nil {
		return nil, err
	}

	company := humanizeHub(hub)
	postings := make([]model.RawPosting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// createdAt is Unix milliseconds
		var created *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt)
			created = &t
		}
		if !a.fresh.keep(created) {
			continue
		}

		postings = append(postings, model.RawPosting{
			Title:        lj.Text,
			Company:      company,
			Location:     lj.Categories.Location,
			Description:  leverDescription(lj),
			ApplyURL:     lj.HostedURL,
			IsRemoteHint: strings.EqualFold(lj.WorkplaceType, "remote"),
			PublishedAt:  created,
			SourceTag:    a.Name(),
		})
	}

	return postings, nil
}

// leverDescription stitches the opening, the titled lists and the closing
// section back into one HTML document.
func leverDescription(lj leverJob) string {
	var b strings.Builder
	b.WriteString(lj.Description)
	for _, l := range lj.Lists {
		fmt.Fprintf(&b, "<h3>%s</h3><ul>%s</ul>", l.Text, l.Content)
	}
	b.WriteString(lj.Additional)
	return b.String()
}
