package adapter

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	CompanyName string             `json:"company_name"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from the Greenhouse public boards API.
// The hub is the board token.
type GreenhouseAdapter struct {
	base
	baseURL string
}

// NewGreenhouseAdapter creates a new Greenhouse adapter.
func NewGreenhouseAdapter(cfg Config) *GreenhouseAdapter {
	return &GreenhouseAdapter{base: newBase(cfg), baseURL: greenhouseBaseURL}
}

func (a *GreenhouseAdapter) Name() string { return "greenhouse" }

// FetchPostings retrieves every job on the board with its content and keeps
// the ones updated inside the freshness window.
func (a *GreenhouseAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "greenhouse fetch for " + hub
	url := fmt.Sprintf("%s/%s/jobs?content=true", a.baseURL, hub)

	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ghResp greenhouseResponse
	if err := a.doJSON(req, op, &ghResp); err != nil {
		return nil, err
	}

	postings := make([]model.RawPosting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		var updated *time.Time
		if gj.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
				updated = &t
			}
		}
		if !a.fresh.keep(updated) {
			continue
		}

		company := gj.CompanyName
		if company == "" {
			company = humanizeHub(hub)
		}

		postings = append(postings, model.RawPosting{
			Title:       gj.Title,
			Company:     company,
			Location:    gj.Location.Name,
			Description: html.UnescapeString(gj.Content),
			ApplyURL:    gj.AbsoluteURL,
			PublishedAt: updated,
			SourceTag:   a.Name(),
		})
	}

	return postings, nil
}
