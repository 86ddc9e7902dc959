// Package location turns free-form posting locations into a canonical
// "City, Region, Country" text plus a work arrangement.
package location

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/amishk599/stackradar/internal/model"
)

// Remote is the location text of postings with no place attached.
const Remote = "Remote"

const geocodeTimeout = 10 * time.Second

var (
	remoteWords = regexp.MustCompile(`\b(remote|anywhere|wfh|work from home)\b`)
	hybridWords = regexp.MustCompile(`\b(hybrid|flexible)\b`)

	// arrangementWords are removed from the text before place lookup.
	arrangementWords = regexp.MustCompile(`(?i)\b(fully|remote|anywhere|wfh|work from home|hybrid|flexible|on-?site|in office|first)\b|100%`)

	separators = regexp.MustCompile(`\s*(\||/|\(|\)|;|\s-\s|\s–\s|,)\s*`)
	spaces     = regexp.MustCompile(`\s+`)
	trimChars  = " -–:.,"
	titleCaser = cases.Title(language.English)
)

// Normalizer maps raw locations to canonical ones. Results are memoized for
// the life of the process, keyed by the raw input. A nil geocoder limits
// normalization to the static maps.
type Normalizer struct {
	geocoder Geocoder
	cache    Cache
	logger   *slog.Logger

	mu    sync.RWMutex
	memo  map[string]string
	group singleflight.Group
}

// NewNormalizer creates a Normalizer. geocoder and cache may be nil.
func NewNormalizer(geocoder Geocoder, cache Cache, logger *slog.Logger) *Normalizer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Normalizer{
		geocoder: geocoder,
		cache:    cache,
		logger:   logger,
		memo:     make(map[string]string),
	}
}

// Normalize returns the canonical location of raw. It never fails: when
// nothing better is known the tokenized input comes back unchanged.
func (n *Normalizer) Normalize(ctx context.Context, raw string, remoteHint bool) model.NormalizedLocation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.NormalizedLocation{Text: Remote, Arrangement: model.ArrangementRemote}
	}

	arrangement := Arrangement(raw, remoteHint)

	n.mu.RLock()
	text, ok := n.memo[raw]
	n.mu.RUnlock()
	if ok {
		return model.NormalizedLocation{Text: text, Arrangement: arrangement}
	}

	text, final := n.resolve(ctx, raw)
	if final {
		n.mu.Lock()
		n.memo[raw] = text
		n.memo[text] = text
		n.mu.Unlock()
	}
	return model.NormalizedLocation{Text: text, Arrangement: arrangement}
}

// Arrangement decides remote, hybrid or onsite from the text and the hint.
func Arrangement(raw string, remoteHint bool) model.Arrangement {
	lower := strings.ToLower(raw)
	switch {
	case remoteHint || remoteWords.MatchString(lower):
		return model.ArrangementRemote
	case hybridWords.MatchString(lower):
		return model.ArrangementHybrid
	default:
		return model.ArrangementOnsite
	}
}

// resolve computes the location text of raw. It ignores the remote hint so
// the text depends on the raw input alone. final is false when a geocoder
// error or cancellation forced the fallback, which must not be memoized.
func (n *Normalizer) resolve(ctx context.Context, raw string) (text string, final bool) {
	cleaned := Tokenize(raw)
	if canonical[cleaned] {
		return cleaned, true
	}

	place := placeOnly(cleaned)
	if place == "" {
		if remoteWords.MatchString(strings.ToLower(raw)) {
			return Remote, true
		}
		return cleaned, true
	}

	if text, ok := staticLookup(place); ok {
		return text, true
	}
	if n.geocoder == nil {
		return place, true
	}

	// Concurrent lookups of one place share one geocoder call. The call runs
	// detached from any caller's context; each caller stops waiting on its own.
	ch := n.group.DoChan(strings.ToLower(place), func() (any, error) {
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), geocodeTimeout)
		defer cancel()
		return n.geocode(gctx, place)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			n.logger.Debug("geocode failed, keeping raw location", "location", raw, "error", res.Err)
			return place, false
		}
		if text := res.Val.(string); text != "" {
			return text, true
		}
		return place, true
	case <-ctx.Done():
		return place, false
	}
}

func (n *Normalizer) geocode(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(query)
	if text, ok, err := n.cache.Get(key); err == nil && ok {
		return text, nil
	}

	p, err := n.geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = n.cache.Set(key, "")
			return "", nil
		}
		return "", err
	}

	text := p.Format()
	if err := n.cache.Set(key, text); err != nil {
		n.logger.Warn("geocode cache write failed", "location", query, "error", err)
	}
	return text, nil
}

// Tokenize rewrites separators (pipes, slashes, parentheses, dashes,
// semicolons and repeated commas) into a single ", " and collapses spaces.
func Tokenize(raw string) string {
	s := separators.ReplaceAllString(raw, ",")
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(spaces.ReplaceAllString(p, " "), trimChars)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// placeOnly drops arrangement words, keeping only the geographic parts.
func placeOnly(cleaned string) string {
	parts := strings.Split(cleaned, ", ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(spaces.ReplaceAllString(arrangementWords.ReplaceAllString(p, " "), " "), trimChars)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// staticLookup resolves place through the city, country and US state maps.
func staticLookup(place string) (string, bool) {
	key := strings.ToLower(place)
	if text, ok := cities[key]; ok {
		return text, true
	}
	if text, ok := countries[key]; ok {
		return text, true
	}

	parts := strings.Split(place, ", ")
	switch len(parts) {
	case 2:
		// "Austin, Texas" or "Austin, TX"
		if code, ok := stateCode(parts[1]); ok {
			return formatUS(parts[0], code), true
		}
	case 3:
		// "Austin, Texas, USA"
		if code, ok := stateCode(parts[1]); ok && usAliases[strings.ToLower(parts[2])] {
			return formatUS(parts[0], code), true
		}
	}
	return "", false
}

func stateCode(s string) (string, bool) {
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code, true
	}
	if up := strings.ToUpper(s); len(s) == 2 && stateCodes[up] {
		return up, true
	}
	return "", false
}

func formatUS(city, code string) string {
	if city == strings.ToLower(city) {
		city = titleCaser.String(city)
	}
	return city + ", " + code + ", " + unitedStates
}
