package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/stackradar/internal/model"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// ErrNotFound means the geocoder has no match for the query.
var ErrNotFound = errors.New("location not found")

// Place is a geocoded address.
type Place struct {
	City        string
	Region      string
	Country     string
	CountryCode string
}

// Format renders the place as "city, region, country". US states are
// written as two-letter codes.
func (p Place) Format() string {
	region := p.Region
	country := p.Country
	if strings.EqualFold(p.CountryCode, "us") {
		if code, ok := stateCode(region); ok {
			region = code
		}
		country = unitedStates
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, region, country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Geocoder resolves free text to a Place.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// NominatimGeocoder queries a Nominatim search endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimGeocoder creates a geocoder. Nominatim's usage policy requires
// an identifying User-Agent.
func NewNominatimGeocoder(baseURL, userAgent string, client *http.Client) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &NominatimGeocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

type nominatimResult struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
		Country      string `json:"country"`
		CountryCode  string `json:"country_code"`
	} `json:"address"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Place, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("accept-language", "en")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("geocode %q: unexpected status %d", query, resp.StatusCode),
		}
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(results) == 0 {
		return Place{}, ErrNotFound
	}

	a := results[0].Address
	city := a.City
	for _, alt := range []string{a.Town, a.Village, a.Municipality} {
		if city == "" {
			city = alt
		}
	}
	return Place{
		City:        city,
		Region:      a.State,
		Country:     a.Country,
		CountryCode: a.CountryCode,
	}, nil
}
