package model

import "time"

// Feed is an RSS/Atom source configured in the settings document.
type Feed struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	IsEnabled bool   `json:"isEnabled"`
	IsVisible bool   `json:"isVisible"`
	MaxPosts  int    `json:"maxPosts"`
}

// FeedItem is one fetched entry. Items are ephemeral: they live only in the
// ticker rotation and are never persisted.
type FeedItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PubDate     time.Time `json:"pubDate"`
	FeedID      string    `json:"feedId"`
	FeedName    string    `json:"feedName"`
	// DynamicDuration is derived from the item's text length when the
	// ticker list is built.
	DynamicDuration time.Duration `json:"-"`
}
