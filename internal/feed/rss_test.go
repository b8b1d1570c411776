package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finintelbot/internal/model"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
%s
</channel>
</rss>`

func rssItem(title, link, pubDate string) string {
	return fmt.Sprintf("<item><title>%s</title><link>%s</link><pubDate>%s</pubDate></item>", title, link, pubDate)
}

func serveRSS(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ParsesAndSortsNewestFirst(t *testing.T) {
	body := fmt.Sprintf(rssTemplate, "Test Wire",
		rssItem("Older", "https://example.com/1", "Mon, 02 Jan 2024 10:00:00 GMT")+
			rssItem("Newer", "https://example.com/2", "Mon, 02 Jan 2024 12:00:00 GMT"))
	srv := serveRSS(t, body)

	items, err := NewFetcher([]string{srv.URL}, 20).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Newer" {
		t.Errorf("expected newest first, got %q", items[0].Title)
	}
	if items[0].Source != "Test Wire" {
		t.Errorf("expected feed title as source, got %q", items[0].Source)
	}
	want := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	if !items[0].PublishedAt.Equal(want) {
		t.Errorf("published = %v, want %v", items[0].PublishedAt, want)
	}
}

func TestFetch_PerFeedCap(t *testing.T) {
	var entries string
	for i := 0; i < 5; i++ {
		entries += rssItem(fmt.Sprintf("Item %d", i), fmt.Sprintf("https://example.com/%d", i), "Mon, 02 Jan 2024 10:00:00 GMT")
	}
	srv := serveRSS(t, fmt.Sprintf(rssTemplate, "Wire", entries))

	items, err := NewFetcher([]string{srv.URL}, 3).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected cap at 3 items, got %d", len(items))
	}
}

func TestFetch_BrokenFeedSkipped(t *testing.T) {
	good := serveRSS(t, fmt.Sprintf(rssTemplate, "Wire",
		rssItem("Only", "https://example.com/only", "Mon, 02 Jan 2024 10:00:00 GMT")))
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	items, err := NewFetcher([]string{bad.URL, good.URL}, 20).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Only" {
		t.Errorf("expected only the good feed's item, got %v", items)
	}
}

func TestSortNewestFirst_MissingTimestampsLast(t *testing.T) {
	items := []model.NewsItem{
		{Title: "no-ts"},
		{Title: "with-ts", PublishedAt: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
	}
	sortNewestFirst(items)
	if items[0].Title != "with-ts" {
		t.Errorf("expected timestamped item first, got %q", items[0].Title)
	}
}
