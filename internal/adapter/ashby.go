package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/stackradar/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title           string `json:"title"`
	Location        string `json:"location"`
	LocationName    string `json:"locationName"`
	JobURL          string `json:"jobUrl"`
	IsListed        bool   `json:"isListed"`
	IsRemote        bool   `json:"isRemote"`
	DescriptionHTML string `json:"descriptionHtml"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches postings from the Ashby public job board API. The hub
// is the job board name.
type AshbyAdapter struct {
	base
	baseURL string
}

// NewAshbyAdapter creates a new Ashby adapter.
func NewAshbyAdapter(cfg Config) *AshbyAdapter {
	return &AshbyAdapter{base: newBase(cfg), baseURL: ashbyBaseURL}
}

func (a *AshbyAdapter) Name() string { return "ashby" }

// FetchPostings retrieves the listed jobs of a board. Ashby exposes no
// timestamp here, so no freshness filter applies.
func (a *AshbyAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "ashby fetch for " + hub
	url := fmt.Sprintf("%s/%s", a.baseURL, hub)

	req, err := a.newRequest(ctx, http.MethodPost, url, strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ashbyResp ashbyResponse
	if err := a.doJSON(req, op, &ashbyResp); err != nil {
		return nil, err
	}

	company := humanizeHub(hub)
	postings := make([]model.RawPosting, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}

		location := aj.LocationName
		if location == "" {
			location = aj.Location
		}

		postings = append(postings, model.RawPosting{
			Title:        aj.Title,
			Company:      company,
			Location:     location,
			Description:  aj.DescriptionHTML,
			ApplyURL:     aj.JobURL,
			IsRemoteHint: aj.IsRemote,
			SourceTag:    a.Name(),
		})
	}

	return postings, nil
}
