// Package feed fetches news items from RSS/Atom feeds.
package feed

import (
	"context"
	"log"
	"sort"

	"finintelbot/internal/model"

	"github.com/mmcdole/gofeed"
)

// Fetcher pulls items from a fixed set of feed URLs. A failing feed is
// logged and skipped; a partial result is always better than none.
type Fetcher struct {
	urls       []string
	maxPerFeed int
	parser     *gofeed.Parser
}

// NewFetcher creates a fetcher for the given feed URLs, taking at most
// maxPerFeed entries from each.
func NewFetcher(urls []string, maxPerFeed int) *Fetcher {
	return &Fetcher{
		urls:       urls,
		maxPerFeed: maxPerFeed,
		parser:     gofeed.NewParser(),
	}
}

// Fetch retrieves and merges items from all configured feeds, newest first.
// Feeds that fail to fetch or parse contribute nothing.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	var items []model.NewsItem
	for _, url := range f.urls {
		parsed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			log.Printf("[feed] fetch %s failed: %v", url, err)
			continue
		}

		source := parsed.Title
		if source == "" {
			source = url
		}

		entries := parsed.Items
		if len(entries) > f.maxPerFeed {
			entries = entries[:f.maxPerFeed]
		}
		for _, e := range entries {
			items = append(items, toNewsItem(e, source))
		}
	}

	sortNewestFirst(items)
	return items, nil
}

func toNewsItem(e *gofeed.Item, source string) model.NewsItem {
	item := model.NewsItem{
		Title:  e.Title,
		Link:   e.Link,
		Source: source,
	}
	if item.Title == "" {
		item.Title = "(untitled)"
	}
	if e.PublishedParsed != nil {
		item.PublishedAt = *e.PublishedParsed
	} else if e.UpdatedParsed != nil {
		item.PublishedAt = *e.UpdatedParsed
	}
	return item
}

// sortNewestFirst orders by published time descending, title descending as
// tiebreak; items without a timestamp sort last.
func sortNewestFirst(items []model.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].PublishedAt, items[j].PublishedAt
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return items[i].Title > items[j].Title
	})
}
