package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// workdayDetailResponse is the response from the Workday job detail endpoint.
type workdayDetailResponse struct {
	JobPostingInfo     workdayJobDetail `json:"jobPostingInfo"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
}

type workdayJobDetail struct {
	Title               string   `json:"title"`
	Location            string   `json:"location"`
	AdditionalLocations []string `json:"additionalLocations"`
	PostedOn            string   `json:"postedOn"`
	StartDate           string   `json:"startDate"`
	ExternalURL         string   `json:"externalUrl"`
	RemoteType          string   `json:"remoteType"`
	JobDescription      string   `json:"jobDescription"`
}

var localeSegment = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// WorkdayAdapter resolves *.myworkdayjobs.com deep links through the public
// cxs detail endpoint. The hub is the canonical deep link. When the
// structured path fails and a fallback is set, the page goes through the
// fallback (normally the generic adapter) instead.
type WorkdayAdapter struct {
	base
	fallback model.Source
	logger   *slog.Logger
}

// NewWorkdayAdapter creates a Workday adapter. fallback may be nil.
func NewWorkdayAdapter(cfg Config, fallback model.Source, logger *slog.Logger) *WorkdayAdapter {
	return &WorkdayAdapter{base: newBase(cfg), fallback: fallback, logger: logger}
}

func (a *WorkdayAdapter) Name() string { return "workday" }

func (a *WorkdayAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	postings, err := a.fetchStructured(ctx, hub)
	if err == nil || a.fallback == nil || ctx.Err() != nil {
		return postings, err
	}

	a.logger.Info("workday detail endpoint failed, falling back to page extraction",
		"hub", hub,
		"error", err,
	)
	return a.fallback.FetchPostings(ctx, hub)
}

func (a *WorkdayAdapter) fetchStructured(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "workday detail fetch for " + hub

	detailURL, tenant, err := workdayDetailURL(hub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := a.newRequest(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var detail workdayDetailResponse
	if err := a.doJSON(req, op, &detail); err != nil {
		return nil, err
	}

	info := detail.JobPostingInfo
	if info.Title == "" {
		return nil, fmt.Errorf("%s: empty posting", op)
	}

	// Prefer startDate (format "2006-01-02"), fall back to postedOn parsing
	var published *time.Time
	if info.StartDate != "" {
		if t, err := time.Parse(time.DateOnly, info.StartDate); err == nil {
			published = &t
		}
	}
	if published == nil {
		published = parsePostedOn(info.PostedOn, a.fresh.now())
	}
	if !a.fresh.keep(published) {
		return nil, nil
	}

	location := info.Location
	if len(info.AdditionalLocations) > 0 {
		location = location + "; " + strings.Join(info.AdditionalLocations, "; ")
	}

	company := detail.HiringOrganization.Name
	if company == "" {
		company = humanizeHub(tenant)
	}

	applyURL := info.ExternalURL
	if applyURL == "" {
		applyURL = hub
	}

	return []model.RawPosting{{
		Title:        info.Title,
		Company:      company,
		Location:     location,
		Description:  info.JobDescription,
		ApplyURL:     applyURL,
		IsRemoteHint: strings.Contains(strings.ToLower(info.RemoteType), "remote"),
		PublishedAt:  published,
		SourceTag:    a.Name(),
	}}, nil
}

// workdayDetailURL maps a career-site deep link such as
//
//	https://acme.wd5.myworkdayjobs.com/en-US/External/job/Austin-TX/Marketing-Ops_R123
//
// to its cxs endpoint
//
//	https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External/job/Austin-TX/Marketing-Ops_R123
func workdayDetailURL(deepLink string) (detailURL, tenant string, err error) {
	u, err := url.Parse(deepLink)
	if err != nil {
		return "", "", err
	}
	host := strings.ToLower(u.Hostname())
	tenant, _, ok := strings.Cut(host, ".")
	if !ok || tenant == "" {
		return "", "", fmt.Errorf("no tenant in host %q", host)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && localeSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}
	jobIdx := -1
	for i, s := range segments {
		if s == "job" {
			jobIdx = i
			break
		}
	}
	if jobIdx != 1 || len(segments) < 3 {
		return "", "", fmt.Errorf("not a workday posting path: %q", u.Path)
	}

	site := segments[0]
	rest := strings.Join(segments[jobIdx:], "/")
	return fmt.Sprintf("%s://%s/wday/cxs/%s/%s/%s", u.Scheme, u.Host, tenant, site, rest), tenant, nil
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+)\+? Days? Ago$`)

// parsePostedOn converts a Workday relative date string to an approximate timestamp.
func parsePostedOn(postedOn string, now time.Time) *time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch postedOn {
	case "Posted Today":
		return &today
	case "Posted Yesterday":
		t := today.AddDate(0, 0, -1)
		return &t
	}

	if n, ok := parseDaysAgo(postedOn); ok {
		t := today.AddDate(0, 0, -n)
		return &t
	}

	return nil
}

func parseDaysAgo(s string) (int, bool) {
	matches := daysAgoRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
