package player

import (
	"sync"
	"time"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// MeasureFunc returns the rendered pixel height of sanitized HTML at the
// given viewport width. The production renderer injects a real measurer;
// EstimateHeight is the fallback.
type MeasureFunc func(html string, viewportWidth int) int

// Rough text metrics for the estimating measurer, tuned for the display's
// default 16px body font.
const (
	estimateCharWidth  = 9
	estimateLineHeight = 28
)

// EstimateHeight approximates rendered height by stripping markup and
// wrapping characters at the viewport width.
func EstimateHeight(htmlContent string, viewportWidth int) int {
	text := StripHTML(htmlContent)
	if text == "" {
		return 0
	}
	charsPerLine := viewportWidth / estimateCharWidth
	if charsPerLine < 1 {
		charsPerLine = 1
	}
	lines := (len(text) + charsPerLine - 1) / charsPerLine
	return lines * estimateLineHeight
}

// paginatedLayouts is the allow-list: only layouts with a bounded text
// pane auto-scroll. Full-bleed layouts (image-only, text-over-image,
// video) deliberately skip pagination.
var paginatedLayouts = map[model.Layout]bool{
	model.LayoutSideBySide: true,
	model.LayoutTextOnly:   true,
}

// LayoutPaginates reports whether a layout opts into overflow scrolling.
func LayoutPaginates(layout model.Layout) bool {
	return paginatedLayouts[layout]
}

// PaginatorConfig sizes the clipping viewport and the scroll cadence.
type PaginatorConfig struct {
	MaxHeight       int
	ViewportWidth   int
	ReadTimePerPage time.Duration
	ScrollStepRatio float64
	Measure         MeasureFunc
}

// TextPaginator auto-scrolls overflowing slide text inside a fixed-height
// viewport: content that fits is shown statically, overflow advances by a
// fixed step on a timer and wraps back to the top after the bottom has
// been shown. Content is never truncated.
type TextPaginator struct {
	cfg PaginatorConfig

	mu            sync.Mutex
	contentHeight int
	offset        int
	overflowing   bool
	generation    int
	timer         *time.Timer
}

func NewTextPaginator(cfg PaginatorConfig) *TextPaginator {
	if cfg.Measure == nil {
		cfg.Measure = EstimateHeight
	}
	if cfg.ScrollStepRatio <= 0 {
		cfg.ScrollStepRatio = 0.8
	}
	if cfg.ReadTimePerPage <= 0 {
		cfg.ReadTimePerPage = 6 * time.Second
	}
	return &TextPaginator{cfg: cfg}
}

// Show measures new content and starts the scroll timer only if it
// overflows the viewport. It replaces whatever was showing before.
func (p *TextPaginator) Show(htmlContent string) {
	height := p.cfg.Measure(htmlContent, p.cfg.ViewportWidth)

	p.mu.Lock()
	p.stopLocked()
	p.contentHeight = height
	p.offset = 0
	p.overflowing = height > p.cfg.MaxHeight
	if p.overflowing {
		p.armLocked()
	}
	p.mu.Unlock()
}

// Stop cancels the scroll timer; called when the owning slide leaves the
// screen.
func (p *TextPaginator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Offset returns the current vertical scroll offset in pixels.
func (p *TextPaginator) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Overflowing reports whether the current content needs scrolling.
func (p *TextPaginator) Overflowing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overflowing
}

// caller must hold p.mu
func (p *TextPaginator) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.generation++
}

// caller must hold p.mu
func (p *TextPaginator) armLocked() {
	generation := p.generation
	p.timer = time.AfterFunc(p.cfg.ReadTimePerPage, func() {
		p.step(generation)
	})
}

// step advances the scroll offset by one page step, pausing at the bottom
// for one interval before wrapping to the top.
func (p *TextPaginator) step(generation int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation || !p.overflowing {
		return
	}

	maxOffset := p.contentHeight - p.cfg.MaxHeight
	if p.offset >= maxOffset {
		p.offset = 0
	} else {
		step := int(float64(p.cfg.MaxHeight) * p.cfg.ScrollStepRatio)
		p.offset += step
		if p.offset > maxOffset {
			p.offset = maxOffset
		}
	}
	p.armLocked()
}
