package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

const smartRecruitersBaseURL = "https://api.smartrecruiters.com/v1/companies"

type srLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Remote  bool   `json:"remote"`
}

type srCompany struct {
	Name string `json:"name"`
}

type srPosting struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ReleasedDate string     `json:"releasedDate"`
	Location     srLocation `json:"location"`
	Company      srCompany  `json:"company"`
}

type srListResponse struct {
	Content []srPosting `json:"content"`
}

type srSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type srDetail struct {
	JobAd struct {
		Sections struct {
			CompanyDescription    srSection `json:"companyDescription"`
			JobDescription        srSection `json:"jobDescription"`
			Qualifications        srSection `json:"qualifications"`
			AdditionalInformation srSection `json:"additionalInformation"`
		} `json:"sections"`
	} `json:"jobAd"`
}

// SmartRecruitersAdapter lists a company's postings and fetches each fresh
// one's detail for the description. The hub is the company identifier.
type SmartRecruitersAdapter struct {
	base
	baseURL string
	logger  *slog.Logger
}

// NewSmartRecruitersAdapter creates a new SmartRecruiters adapter.
func NewSmartRecruitersAdapter(cfg Config, logger *slog.Logger) *SmartRecruitersAdapter {
	return &SmartRecruitersAdapter{base: newBase(cfg), baseURL: smartRecruitersBaseURL, logger: logger}
}

func (a *SmartRecruitersAdapter) Name() string { return "smartrecruiters" }

// FetchPostings lists the company's postings. A failed detail fetch skips
// that posting only.
func (a *SmartRecruitersAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "smartrecruiters fetch for " + hub
	url := fmt.Sprintf("%s/%s/postings", a.baseURL, hub)

	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var list srListResponse
	if err := a.doJSON(req, op, &list); err != nil {
		return nil, err
	}

	var postings []model.RawPosting
	for _, p := range list.Content {
		var released *time.Time
		if p.ReleasedDate != "" {
			if t, err := time.Parse(time.RFC3339, p.ReleasedDate); err == nil {
				released = &t
			}
		}
		if !a.fresh.keep(released) {
			continue
		}

		desc, err := a.fetchDescription(ctx, hub, p.ID)
		if err != nil {
			a.logger.Warn("smartrecruiters detail failed, skipping posting",
				"hub", hub,
				"posting", p.ID,
				"error", err,
			)
			continue
		}

		company := p.Company.Name
		if company == "" {
			company = humanizeHub(hub)
		}

		postings = append(postings, model.RawPosting{
			Title:        p.Name,
			Company:      company,
			Location:     joinNonEmpty(", ", p.Location.City, p.Location.Region, p.Location.Country),
			Description:  desc,
			ApplyURL:     fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", hub, p.ID),
			IsRemoteHint: p.Location.Remote,
			PublishedAt:  released,
			SourceTag:    a.Name(),
		})
	}

	return postings, nil
}

func (a *SmartRecruitersAdapter) fetchDescription(ctx context.Context, hub, id string) (string, error) {
	op := fmt.Sprintf("smartrecruiters detail for %s/%s", hub, id)
	url := fmt.Sprintf("%s/%s/postings/%s", a.baseURL, hub, id)

	req, err := a.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var detail srDetail
	if err := a.doJSON(req, op, &detail); err != nil {
		return "", err
	}

	s := detail.JobAd.Sections
	var b strings.Builder
	for _, sec := range []srSection{s.CompanyDescription, s.JobDescription, s.Qualifications, s.AdditionalInformation} {
		if sec.Text == "" {
			continue
		}
		if sec.Title != "" {
			fmt.Fprintf(&b, "<h3>%s</h3>", sec.Title)
		}
		b.WriteString(sec.Text)
	}
	return b.String(), nil
}
