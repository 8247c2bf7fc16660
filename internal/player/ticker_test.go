package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// stubFetcher serves canned items per feed URL and fails for URLs it does
// not know.
type stubFetcher struct {
	mu    sync.Mutex
	items map[string][]model.FeedItem
	delay time.Duration
}

func (f *stubFetcher) Fetch(ctx context.Context, feed model.Feed) ([]model.FeedItem, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.items[feed.URL]
	if !ok {
		return nil, errors.New("fetch failed")
	}
	out := make([]model.FeedItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].FeedID = feed.ID
		out[i].FeedName = feed.Name
	}
	return out, nil
}

type itemRecorder struct {
	mu   sync.Mutex
	seen []*model.FeedItem
}

func (r *itemRecorder) record(item *model.FeedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, item)
}

func (r *itemRecorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.seen))
	for _, item := range r.seen {
		if item == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, item.Title)
	}
	return out
}

func TestFailedFeedContributesNothing(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]model.FeedItem{
		"http://b.example/rss": {
			{Title: "b1"}, {Title: "b2"}, {Title: "b3"},
		},
	}}
	rec := &itemRecorder{}
	r := NewFeedRotator(fetcher, rec.record)
	defer r.Stop()

	r.SetFeeds(context.Background(), []model.Feed{
		{ID: "a", Name: "A", URL: "http://a.example/rss", IsEnabled: true, IsVisible: true},
		{ID: "b", Name: "B", URL: "http://b.example/rss", IsEnabled: true, IsVisible: true},
	})

	require.Eventually(t, func() bool { return r.Current() != nil }, time.Second, time.Millisecond)

	// feed A failed: the ticker carries only B's three items
	assert.Equal(t, []string{"b1"}, rec.titles())
	current := r.Current()
	require.NotNil(t, current)
	assert.Equal(t, "b1", current.Title)
	assert.Equal(t, "B", current.FeedName)
}

func TestDisabledAndHiddenFeedsSkipped(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]model.FeedItem{
		"http://a.example/rss": {{Title: "a1"}},
		"http://b.example/rss": {{Title: "b1"}},
	}}
	rec := &itemRecorder{}
	r := NewFeedRotator(fetcher, rec.record)
	defer r.Stop()

	r.SetFeeds(context.Background(), []model.Feed{
		{ID: "a", URL: "http://a.example/rss", IsEnabled: false, IsVisible: true},
		{ID: "b", URL: "http://b.example/rss", IsEnabled: true, IsVisible: false},
	})

	// neither feed qualifies: the empty list is announced as nil
	require.Eventually(t, func() bool {
		return len(rec.titles()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"<nil>"}, rec.titles())
	assert.Nil(t, r.Current())
}

func TestMaxPostsCap(t *testing.T) {
	many := make([]model.FeedItem, 8)
	for i := range many {
		many[i] = model.FeedItem{Title: string(rune('a' + i))}
	}
	fetcher := &stubFetcher{items: map[string][]model.FeedItem{
		"http://a.example/rss": many,
	}}
	r := NewFeedRotator(fetcher, nil)
	defer r.Stop()

	r.SetFeeds(context.Background(), []model.Feed{
		{ID: "a", URL: "http://a.example/rss", IsEnabled: true, IsVisible: true, MaxPosts: 2},
	})

	require.Eventually(t, func() bool { return r.Current() != nil }, time.Second, time.Millisecond)
	r.mu.Lock()
	count := len(r.items)
	r.mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestRotationWrapsAndUsesPerItemDuration(t *testing.T) {
	rec := &itemRecorder{}
	r := NewFeedRotator(&stubFetcher{}, rec.record)
	defer r.Stop()

	// install directly so per-item durations stay in test time
	items := []model.FeedItem{
		{Title: "x", DynamicDuration: 10 * time.Millisecond},
		{Title: "y", DynamicDuration: 10 * time.Millisecond},
	}
	r.mu.Lock()
	generation := r.generation
	r.mu.Unlock()
	r.install(generation, items)

	require.Eventually(t, func() bool {
		titles := rec.titles()
		return len(titles) >= 4
	}, time.Second, time.Millisecond)

	titles := rec.titles()[:4]
	assert.Equal(t, []string{"x", "y", "x", "y"}, titles)
}

func TestStopDiscardsInFlightFetch(t *testing.T) {
	fetcher := &stubFetcher{
		items: map[string][]model.FeedItem{"http://a.example/rss": {{Title: "a1"}}},
		delay: 20 * time.Millisecond,
	}
	rec := &itemRecorder{}
	r := NewFeedRotator(fetcher, rec.record)

	r.SetFeeds(context.Background(), []model.Feed{
		{ID: "a", URL: "http://a.example/rss", IsEnabled: true, IsVisible: true},
	})
	r.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.titles())
	assert.Nil(t, r.Current())
}

func TestItemDurationClamps(t *testing.T) {
	short := ItemDuration(model.FeedItem{Title: "hi"})
	assert.Equal(t, 3*time.Second, short)

	long := ItemDuration(model.FeedItem{
		Title:       "headline",
		Description: repeatWords("word", 400),
	})
	assert.Equal(t, 45*time.Second, long)

	// 40 words at 200 wpm x 1.5 lands between the bounds
	medium := ItemDuration(model.FeedItem{
		Title:       "headline",
		Description: "<p>" + repeatWords("word", 40) + "</p>",
	})
	assert.Greater(t, medium, 3*time.Second)
	assert.Less(t, medium, 45*time.Second)
}

func repeatWords(word string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += " "
		}
		out += word
	}
	return out
}
