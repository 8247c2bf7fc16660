// Package feeds fetches RSS/Atom sources for the ticker. Venue networks
// often block direct feed access, so the fetcher walks an ordered chain of
// URL-rewriting strategies (direct first, then relay proxies) until one
// returns a parseable feed.
package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// Fetcher resolves a configured feed into its current items.
type Fetcher interface {
	Fetch(ctx context.Context, feed model.Feed) ([]model.FeedItem, error)
}

// Strategy rewrites a feed URL into the URL actually requested. Strategies
// are tried in order; swapping the relay list never touches rotation
// logic.
type Strategy func(feedURL string) string

// Direct requests the feed URL as-is.
func Direct(feedURL string) string { return feedURL }

// Relay produces a strategy that wraps the feed URL in a relay proxy
// expecting the target as a query parameter.
func Relay(proxyBase string) Strategy {
	return func(feedURL string) string {
		return proxyBase + url.QueryEscape(feedURL)
	}
}

// DefaultStrategies is the production chain: direct, then public relays.
func DefaultStrategies() []Strategy {
	return []Strategy{
		Direct,
		Relay("https://api.allorigins.win/raw?url="),
		Relay("https://corsproxy.io/?"),
	}
}

// HTTPFetcher fetches over HTTP and parses with gofeed.
type HTTPFetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	strategies []Strategy
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(strategies ...Strategy) *HTTPFetcher {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &HTTPFetcher{
		client:     &http.Client{Timeout: 15 * time.Second},
		parser:     gofeed.NewParser(),
		strategies: strategies,
	}
}

// Fetch tries each strategy in order and maps the first parseable result
// to feed items, stamped with the feed's identity.
func (f *HTTPFetcher) Fetch(ctx context.Context, feed model.Feed) ([]model.FeedItem, error) {
	var lastErr error
	for _, strategy := range f.strategies {
		requestURL := strategy(feed.URL)

		parsed, err := f.fetchOne(ctx, requestURL)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("feed", feed.Name).Str("url", requestURL).Msg("[feeds] fetch attempt failed")
			continue
		}
		return mapItems(feed, parsed), nil
	}
	return nil, fmt.Errorf("all fetch strategies failed for %q: %w", feed.URL, lastErr)
}

func (f *HTTPFetcher) fetchOne(ctx context.Context, requestURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return f.parser.Parse(resp.Body)
}

func mapItems(feed model.Feed, parsed *gofeed.Feed) []model.FeedItem {
	items := make([]model.FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		item := model.FeedItem{
			Title:       entry.Title,
			Description: entry.Description,
			Link:        entry.Link,
			FeedID:      feed.ID,
			FeedName:    feed.Name,
		}
		if entry.PublishedParsed != nil {
			item.PubDate = *entry.PublishedParsed
		}
		items = append(items, item)
	}
	return items
}
