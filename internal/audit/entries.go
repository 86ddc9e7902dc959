// Package audit is an interactive, read-only view of how one hub's postings
// fare against the screener. Nothing it does touches the store.
package audit

import (
	"context"
	"slices"
	"strings"

	"github.com/amishk599/stackradar/internal/adapter"
	"github.com/amishk599/stackradar/internal/model"
	"github.com/amishk599/stackradar/internal/screener"
)

// Normalizer canonicalizes a free-form location.
type Normalizer interface {
	Normalize(ctx context.Context, raw string, remoteHint bool) model.NormalizedLocation
}

// Screener scores a posting.
type Screener interface {
	Screen(in screener.Input) model.Verdict
}

// Entry is one fetched posting with the verdict the pipeline would give it.
type Entry struct {
	Raw      model.RawPosting
	Verdict  model.Verdict
	Location model.NormalizedLocation
}

// ScreenedIn reports whether the pipeline would store this posting.
func (e Entry) ScreenedIn() bool {
	return e.Verdict.Score > 0
}

// Evaluate normalizes and screens every posting the same way an ingestion
// run does, newest first. Undated postings sort last.
func Evaluate(ctx context.Context, raws []model.RawPosting, norm Normalizer, scr Screener) []Entry {
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		loc := norm.Normalize(ctx, raw.Location, raw.IsRemoteHint)
		entries = append(entries, Entry{
			Raw:      raw,
			Location: loc,
			Verdict: scr.Screen(screener.Input{
				Title:       raw.Title,
				Company:     raw.Company,
				Location:    loc.Text,
				Description: raw.Description,
				ApplyURL:    raw.ApplyURL,
			}),
		})
	}
	slices.SortStableFunc(entries, newestFirst)
	return entries
}

func newestFirst(a, b Entry) int {
	pa, pb := a.Raw.PublishedAt, b.Raw.PublishedAt
	switch {
	case pa == nil && pb == nil:
		return 0
	case pa == nil:
		return 1
	case pb == nil:
		return -1
	}
	return pb.Compare(*pa)
}

// Split returns the postings that screen in, preserving order.
func Split(entries []Entry) []Entry {
	var in []Entry
	for _, e := range entries {
		if e.ScreenedIn() {
			in = append(in, e)
		}
	}
	return in
}

// descriptionText flattens an HTML description for the terminal.
func descriptionText(desc string) string {
	if desc == "" {
		return ""
	}
	if text, err := adapter.PageText(desc); err == nil && text != "" {
		return text
	}
	return desc
}

// wordWrap reflows text to width columns. Blank lines are dropped.
func wordWrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var line strings.Builder
		for _, w := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len(w) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(w)
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
		}
	}
	return strings.Join(lines, "\n")
}
