package model

import "time"

// NewsItem is one entry fetched from an RSS feed. Link is the dedup key;
// PublishedAt may be zero when the feed omits a usable timestamp.
type NewsItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Source      string    `json:"source"`
}
