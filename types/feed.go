package types

import "time"

// Source is a named content feed with its canonical address.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	// MirrorGroup names a pool of equivalent hosts the fetcher may fail over to.
	MirrorGroup string `json:"mirror_group,omitempty" yaml:"mirror_group,omitempty"`
}

// FeedItem is a single parsed entry from a source. It is never persisted.
type FeedItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Snippet     string     `json:"snippet"`
}
