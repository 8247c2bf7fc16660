package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/feeds"
	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// DefaultMaxPosts caps a feed's contribution to the ticker when the feed
// doesn't configure its own cap.
const DefaultMaxPosts = 5

// FeedRotator drives the RSS ticker. It runs on its own per-item timer,
// fully independent of slide rotation: the two are unrelated clocks.
type FeedRotator struct {
	fetcher feeds.Fetcher
	// OnItem receives the item entering the ticker, or nil when the list
	// becomes empty (renderer shows the feeds-loading placeholder).
	onItem func(item *model.FeedItem)

	mu         sync.Mutex
	items      []model.FeedItem
	index      int
	generation int
	timer      *time.Timer
}

func NewFeedRotator(fetcher feeds.Fetcher, onItem func(*model.FeedItem)) *FeedRotator {
	return &FeedRotator{fetcher: fetcher, onItem: onItem}
}

// SetFeeds refetches the feed set in the background and swaps the ticker
// list when done. Each feed fetches concurrently; one failing feed
// contributes zero items and never blocks the others.
func (r *FeedRotator) SetFeeds(ctx context.Context, feedSet []model.Feed) {
	r.mu.Lock()
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	go func() {
		items := r.fetchAll(ctx, feedSet)
		r.install(generation, items)
	}()
}

// fetchAll fans out one fetch per enabled+visible feed and concatenates
// results preserving feed order.
func (r *FeedRotator) fetchAll(ctx context.Context, feedSet []model.Feed) []model.FeedItem {
	active := make([]model.Feed, 0, len(feedSet))
	for _, feed := range feedSet {
		if feed.IsEnabled && feed.IsVisible {
			active = append(active, feed)
		}
	}

	results := make([][]model.FeedItem, len(active))
	var wg sync.WaitGroup
	for i, feed := range active {
		wg.Add(1)
		go func(i int, feed model.Feed) {
			defer wg.Done()
			items, err := r.fetcher.Fetch(ctx, feed)
			if err != nil {
				log.Error().Err(err).Str("feed", feed.Name).Msg("[ticker] feed fetch failed, contributing no items")
				return
			}
			limit := feed.MaxPosts
			if limit <= 0 {
				limit = DefaultMaxPosts
			}
			if len(items) > limit {
				items = items[:limit]
			}
			for j := range items {
				items[j].DynamicDuration = ItemDuration(items[j])
			}
			results[i] = items
		}(i, feed)
	}
	wg.Wait()

	var combined []model.FeedItem
	for _, items := range results {
		combined = append(combined, items...)
	}
	return combined
}

// install swaps in a freshly fetched list unless a newer SetFeeds has
// superseded this fetch.
func (r *FeedRotator) install(generation int, items []model.FeedItem) {
	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.items = items
	r.index = 0

	if len(items) == 0 {
		onItem := r.onItem
		r.mu.Unlock()
		log.Info().Msg("[ticker] no feed items, showing placeholder")
		if onItem != nil {
			onItem(nil)
		}
		return
	}

	first := items[0]
	r.armLocked(first)
	onItem := r.onItem
	r.mu.Unlock()

	if onItem != nil {
		onItem(&first)
	}
}

// Stop cancels the ticker timer and discards any in-flight fetch.
func (r *FeedRotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Current returns the item on screen, or nil when the ticker is empty.
func (r *FeedRotator) Current() *model.FeedItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return nil
	}
	item := r.items[r.index]
	return &item
}

// caller must hold r.mu
func (r *FeedRotator) armLocked(item model.FeedItem) {
	generation := r.generation
	r.timer = time.AfterFunc(item.DynamicDuration, func() {
		r.advance(generation)
	})
}

func (r *FeedRotator) advance(generation int) {
	r.mu.Lock()
	if generation != r.generation || len(r.items) == 0 {
		r.mu.Unlock()
		return
	}
	r.index = (r.index + 1) % len(r.items)
	next := r.items[r.index]
	r.armLocked(next)
	onItem := r.onItem
	r.mu.Unlock()

	if onItem != nil {
		onItem(&next)
	}
}
