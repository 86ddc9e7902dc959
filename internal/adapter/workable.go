package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

const workableBaseURL = "https://apply.workable.com/api/v1/widget/accounts"

type workableJob struct {
	Title         string `json:"title"`
	Shortcode     string `json:"shortcode"`
	Telecommuting bool   `json:"telecommuting"`
	URL           string `json:"url"`
	PublishedOn   string `json:"published_on"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Description   string `json:"description"`
}

type workableAccount struct {
	Name string        `json:"name"`
	Jobs []workableJob `json:"jobs"`
}

// WorkableAdapter fetches postings from the Workable widget API. The hub is
// the account subdomain.
type WorkableAdapter struct {
	base
	baseURL string
}

// NewWorkableAdapter creates a new Workable adapter.
func NewWorkableAdapter(cfg Config) *WorkableAdapter {
	return &WorkableAdapter{base: newBase(cfg), baseURL: workableBaseURL}
}

func (a *WorkableAdapter) Name() string { return "workable" }

func (a *WorkableAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "workable fetch for " + hub
	url := fmt.Sprintf("%s/%s?details=true", a.baseURL, hub)

	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var account workableAccount
	if err := a.doJSON(req, op, &account); err != nil {
		return nil, err
	}

	company := account.Name
	if company == "" {
		company = humanizeHub(hub)
	}

	postings := make([]model.RawPosting, 0, len(account.Jobs))
	for _, wj := range account.Jobs {
		var published *time.Time
		if wj.PublishedOn != "" {
			if t, err := time.Parse(time.DateOnly, wj.PublishedOn); err == nil {
				published = &t
			}
		}
		if !a.fresh.keep(published) {
			continue
		}

		applyURL := wj.URL
		if applyURL == "" && wj.Shortcode != "" {
			applyURL = fmt.Sprintf("https://apply.workable.com/%s/j/%s", hub, wj.Shortcode)
		}

		postings = append(postings, model.RawPosting{
			Title:        wj.Title,
			Company:      company,
			Location:     joinNonEmpty(", ", wj.City, wj.State, wj.Country),
			Description:  wj.Description,
			ApplyURL:     applyURL,
			IsRemoteHint: wj.Telecommuting,
			PublishedAt:  published,
			SourceTag:    a.Name(),
		})
	}

	return postings, nil
}
