package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// Searcher runs one web search and returns the result URLs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

const DefaultSerpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPIConfig configures a SerpAPIClient. Zero fields take defaults.
type SerpAPIConfig struct {
	Endpoint  string
	APIKey    string
	Engine    string // default "google"
	Num       int    // default 100
	Freshness string // tbs value, default "qdr:d14"
}

// SerpAPIClient queries SerpAPI's JSON search endpoint.
type SerpAPIClient struct {
	cfg    SerpAPIConfig
	client *http.Client
}

// NewSerpAPIClient returns a client. A nil http client gets a 15s timeout.
func NewSerpAPIClient(cfg SerpAPIConfig, client *http.Client) *SerpAPIClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSerpAPIEndpoint
	}
	if cfg.Engine == "" {
		cfg.Engine = "google"
	}
	if cfg.Num <= 0 {
		cfg.Num = 100
	}
	if cfg.Freshness == "" {
		cfg.Freshness = "qdr:d14"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SerpAPIClient{cfg: cfg, client: client}
}

type serpResponse struct {
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
	Error string `json:"error"`
}

func (c *SerpAPIClient) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("engine", c.cfg.Engine)
	q.Set("q", query)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("num", strconv.Itoa(c.cfg.Num))
	q.Set("gl", "us")
	q.Set("hl", "en")
	q.Set("tbs", c.cfg.Freshness)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("search request: unexpected status %d", resp.StatusCode),
		}
	}

	var sr serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	// SerpAPI reports an empty result page as an error string.
	if sr.Error != "" && len(sr.OrganicResults) == 0 {
		if sr.Error == "Google hasn't returned any results for this query." {
			return nil, nil
		}
		return nil, fmt.Errorf("search api: %s", sr.Error)
	}

	links := make([]string, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		if r.Link != "" {
			links = append(links, r.Link)
		}
	}
	return links, nil
}
