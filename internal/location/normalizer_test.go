package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/stackradar/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGeocoder answers from a fixed table and counts calls.
type fakeGeocoder struct {
	places map[string]Place
	err    error
	calls  atomic.Int32
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string) (Place, error) {
	f.calls.Add(1)
	if f.err != nil {
		return Place{}, f.err
	}
	p, ok := f.places[query]
	if !ok {
		return Place{}, ErrNotFound
	}
	return p, nil
}

func TestNormalize(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]Place{
		"Portland": {City: "Portland", Region: "Oregon", Country: "United States", CountryCode: "us"},
		"Munich":   {City: "Munich", Region: "Bavaria", Country: "Germany", CountryCode: "de"},
	}}
	n := NewNormalizer(geo, nil, discardLogger())

	tests := []struct {
		raw    string
		remote bool
		want   model.NormalizedLocation
	}{
		{"", false, model.NormalizedLocation{Text: "Remote", Arrangement: model.ArrangementRemote}},
		{"   ", true, model.NormalizedLocation{Text: "Remote", Arrangement: model.ArrangementRemote}},
		{"new york", false, model.NormalizedLocation{Text: "New York, NY, United States", Arrangement: model.ArrangementOnsite}},
		{"NYC", false, model.NormalizedLocation{Text: "New York, NY, United States", Arrangement: model.ArrangementOnsite}},
		{"Remote", false, model.NormalizedLocation{Text: "Remote", Arrangement: model.ArrangementRemote}},
		{"Remote - Anywhere", false, model.NormalizedLocation{Text: "Remote", Arrangement: model.ArrangementRemote}},
		{"WFH", false, model.NormalizedLocation{Text: "Remote", Arrangement: model.ArrangementRemote}},
		{"Remote - New York", false, model.NormalizedLocation{Text: "New York, NY, United States", Arrangement: model.ArrangementRemote}},
		{"Remote (US)", false, model.NormalizedLocation{Text: "United States", Arrangement: model.ArrangementRemote}},
		{"Hybrid | Boston", false, model.NormalizedLocation{Text: "Boston, MA, United States", Arrangement: model.ArrangementHybrid}},
		{"Austin, Texas", false, model.NormalizedLocation{Text: "Austin, TX, United States", Arrangement: model.ArrangementOnsite}},
		{"austin, texas", true, model.NormalizedLocation{Text: "Austin, TX, United States", Arrangement: model.ArrangementRemote}},
		{"Houston, TX, USA", false, model.NormalizedLocation{Text: "Houston, TX, United States", Arrangement: model.ArrangementOnsite}},
		{"Bengaluru/Bangalore", false, model.NormalizedLocation{Text: "Bengaluru, India", Arrangement: model.ArrangementOnsite}},
		{"Portland", false, model.NormalizedLocation{Text: "Portland, OR, United States", Arrangement: model.ArrangementOnsite}},
		{"Portland,, OR", false, model.NormalizedLocation{Text: "Portland, OR, United States", Arrangement: model.ArrangementOnsite}},
		{"Munich (flexible)", false, model.NormalizedLocation{Text: "Munich, Bavaria, Germany", Arrangement: model.ArrangementHybrid}},
		{"Atlantis", false, model.NormalizedLocation{Text: "Atlantis", Arrangement: model.ArrangementOnsite}},
	}

	for _, tc := range tests {
		got := n.Normalize(context.Background(), tc.raw, tc.remote)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Normalize(%q, %v) mismatch (-want +got):\n%s", tc.raw, tc.remote, diff)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]Place{
		"Lyon": {City: "Lyon", Region: "Auvergne-Rhône-Alpes", Country: "France", CountryCode: "fr"},
	}}
	n := NewNormalizer(geo, nil, discardLogger())

	for _, raw := range []string{"new york", "Austin, Texas", "Lyon", "Remote", "Bengaluru/Bangalore", "Hybrid", "Atlantis"} {
		once := n.Normalize(context.Background(), raw, false)
		twice := n.Normalize(context.Background(), once.Text, false)
		if once.Text != twice.Text {
			t.Errorf("not idempotent for %q: %q then %q", raw, once.Text, twice.Text)
		}
	}

	// A fresh normalizer agrees on static outputs without the memo.
	fresh := NewNormalizer(nil, nil, discardLogger())
	for _, text := range []string{"New York, NY, United States", "Austin, TX, United States", "Bengaluru, India", "United States"} {
		if got := fresh.Normalize(context.Background(), text, false).Text; got != text {
			t.Errorf("canonical %q re-normalized to %q", text, got)
		}
	}
}

func TestNormalize_GeocoderFailureDegrades(t *testing.T) {
	geo := &fakeGeocoder{err: errors.New("timeout")}
	n := NewNormalizer(geo, nil, discardLogger())

	got := n.Normalize(context.Background(), "Springfield (Onsite)", false)
	if got.Text != "Springfield" {
		t.Errorf("expected degraded text Springfield, got %q", got.Text)
	}
	if got.Arrangement != model.ArrangementOnsite {
		t.Errorf("expected onsite, got %s", got.Arrangement)
	}
}

func TestNormalize_TransientFailureIsRetried(t *testing.T) {
	geo := &fakeGeocoder{
		places: map[string]Place{"Lyon": {City: "Lyon", Region: "Auvergne-Rhône-Alpes", Country: "France", CountryCode: "fr"}},
		err:    errors.New("connection reset"),
	}
	n := NewNormalizer(geo, nil, discardLogger())

	if got := n.Normalize(context.Background(), "Lyon", false).Text; got != "Lyon" {
		t.Fatalf("expected degraded text Lyon, got %q", got)
	}

	geo.err = nil
	if got := n.Normalize(context.Background(), "Lyon", false).Text; got != "Lyon, Auvergne-Rhône-Alpes, France" {
		t.Errorf("expected geocoded text after recovery, got %q", got)
	}
	if c := geo.calls.Load(); c != 2 {
		t.Errorf("expected 2 geocoder calls, got %d", c)
	}
}

func TestNormalize_CancelledCallerIsNotMemoized(t *testing.T) {
	release := make(chan struct{})
	geo := &blockingGeocoder{release: release, place: Place{City: "Lyon", Region: "Auvergne-Rhône-Alpes", Country: "France", CountryCode: "fr"}}
	n := NewNormalizer(geo, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := n.Normalize(ctx, "Lyon", false).Text; got != "Lyon" {
		t.Fatalf("expected fallback text for a cancelled caller, got %q", got)
	}

	// The shared lookup outlives the cancelled caller and answers the next one.
	close(release)
	if got := n.Normalize(context.Background(), "Lyon", false).Text; got != "Lyon, Auvergne-Rhône-Alpes, France" {
		t.Errorf("expected geocoded text, got %q", got)
	}
}

// blockingGeocoder answers once release is closed, ignoring ctx.
type blockingGeocoder struct {
	release chan struct{}
	place   Place
}

func (g *blockingGeocoder) Geocode(context.Context, string) (Place, error) {
	<-g.release
	return g.place, nil
}

func TestNormalize_MemoizesByRawInput(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]Place{
		"Lyon": {City: "Lyon", Region: "Auvergne-Rhône-Alpes", Country: "France", CountryCode: "fr"},
	}}
	n := NewNormalizer(geo, nil, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Normalize(context.Background(), "Lyon", false)
		}()
	}
	wg.Wait()
	n.Normalize(context.Background(), "Lyon", true)

	// Concurrent first calls may each reach the cache, but the geocoder is
	// asked at most once per distinct query.
	if c := geo.calls.Load(); c != 1 {
		t.Errorf("expected 1 geocoder call, got %d", c)
	}

	// The remote hint is applied per call, not memoized.
	got := n.Normalize(context.Background(), "Lyon", true)
	if got.Arrangement != model.ArrangementRemote {
		t.Errorf("expected remote arrangement, got %s", got.Arrangement)
	}
}

func TestNormalize_NotFoundIsCached(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]Place{}}
	cache := NewMemoryCache()

	NewNormalizer(geo, cache, discardLogger()).Normalize(context.Background(), "Atlantis", false)
	NewNormalizer(geo, cache, discardLogger()).Normalize(context.Background(), "Atlantis", false)

	if c := geo.calls.Load(); c != 1 {
		t.Errorf("expected the miss to be cached, got %d calls", c)
	}
}

func TestTokenize(t *testing.T) {
	tests := map[string]string{
		"San Francisco | New York":    "San Francisco, New York",
		"Berlin (Germany)":            "Berlin, Germany",
		"Paris,,  France":             "Paris, France",
		"  Austin ,Texas ":            "Austin, Texas",
		"London / Remote":             "London, Remote",
		"Winston-Salem, NC":           "Winston-Salem, NC",
		"Remote - US; Canada":         "Remote, US, Canada",
		"Toronto   Ontario":           "Toronto Ontario",
		"New York, NY, United States": "New York, NY, United States",
	}
	for in, want := range tests {
		if got := Tokenize(in); got != want {
			t.Errorf("Tokenize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestArrangement(t *testing.T) {
	tests := []struct {
		raw  string
		hint bool
		want model.Arrangement
	}{
		{"Remote, US", false, model.ArrangementRemote},
		{"Work from home", false, model.ArrangementRemote},
		{"Chicago", true, model.ArrangementRemote},
		{"Hybrid - Denver", false, model.ArrangementHybrid},
		{"Flexible / Seattle", false, model.ArrangementHybrid},
		{"Remote or Hybrid", false, model.ArrangementRemote},
		{"Remoteville", false, model.ArrangementOnsite},
		{"Denver", false, model.ArrangementOnsite},
	}
	for _, tc := range tests {
		if got := Arrangement(tc.raw, tc.hint); got != tc.want {
			t.Errorf("Arrangement(%q, %v) = %s, want %s", tc.raw, tc.hint, got, tc.want)
		}
	}
}
