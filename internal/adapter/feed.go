package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/amishk599/stackradar/internal/model"
)

const maxFeedBytes = 5 << 20

// FeedAdapter reads postings from RSS or Atom job feeds. The hub is the
// feed URL; companies maps a feed URL to the company it publishes for.
type FeedAdapter struct {
	base
	companies map[string]string
}

// NewFeedAdapter creates a feed adapter.
func NewFeedAdapter(cfg Config, companies map[string]string) *FeedAdapter {
	return &FeedAdapter{base: newBase(cfg), companies: companies}
}

func (a *FeedAdapter) Name() string { return "feed" }

func (a *FeedAdapter) FetchPostings(ctx context.Context, hub string) ([]model.RawPosting, error) {
	op := "feed fetch for " + hub

	req, err := a.newRequest(ctx, http.MethodGet, hub, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, op); err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: parse feed: %w", op, err)
	}

	company := a.companies[hub]
	if company == "" {
		company = feed.Title
	}

	postings := make([]model.RawPosting, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := itemTime(item)
		if !a.fresh.keep(published) {
			continue
		}
		if item.Link == "" || item.Title == "" {
			continue
		}

		desc := item.Content
		if desc == "" {
			desc = item.Description
		}

		postings = append(postings, model.RawPosting{
			Title:       item.Title,
			Company:     company,
			Description: desc,
			ApplyURL:    item.Link,
			PublishedAt: published,
			SourceTag:   a.Name(),
		})
	}

	return postings, nil
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}
