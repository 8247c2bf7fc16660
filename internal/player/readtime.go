package player

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// Ticker item duration is 1.5x the estimated reading time, clamped to
// these bounds.
const (
	minItemDuration = 3 * time.Second
	maxItemDuration = 45 * time.Second
	readingFactor   = 1.5
	wordsPerMinute  = 200
)

var stripPolicy = bluemonday.StrictPolicy()

// StripHTML reduces sanitized HTML to plain text for measurement and
// reading-time estimation.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// EstimateReadingTime approximates how long a viewer needs for the text,
// at an average reading pace.
func EstimateReadingTime(text string) time.Duration {
	words := len(strings.Fields(StripHTML(text)))
	if words == 0 {
		return 0
	}
	return time.Duration(float64(words) / wordsPerMinute * float64(time.Minute))
}

// ItemDuration derives a ticker item's on-screen time from its text
// length, clamped so one-liners stay readable and essays do not park the
// ticker.
func ItemDuration(item model.FeedItem) time.Duration {
	reading := EstimateReadingTime(item.Title + " " + item.Description)
	d := time.Duration(readingFactor * float64(reading))
	if d < minItemDuration {
		return minItemDuration
	}
	if d > maxItemDuration {
		return maxItemDuration
	}
	return d
}
