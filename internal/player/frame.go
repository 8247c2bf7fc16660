package player

import (
	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/pairing"
)

// FrameState names what the display is showing.
type FrameState string

const (
	// FramePairing: unpaired, the rotating pairing code is on screen.
	FramePairing FrameState = "pairing"
	// FrameNoSlides: paired but the flattened sequence is empty. A valid
	// steady state for a freshly provisioned display, not an error.
	FrameNoSlides FrameState = "no-slides"
	// FramePlaying: rotation is running.
	FramePlaying FrameState = "playing"
)

// Frame is the renderable snapshot the front-end consumes. The engine
// only ever hands out copies; rendering concerns (CSS, markup) stay out
// of the core.
type Frame struct {
	State FrameState

	// pairing screen
	Pairing *pairing.CodeState

	// slide layer
	Current    *model.Slide
	Incoming   *model.Slide
	Transition model.Transition
	Progress   float64

	// text pane
	ScrollOffset int

	// ticker; nil item with TickerLoading set means the feeds-loading
	// placeholder
	TickerItem    *model.FeedItem
	TickerLoading bool

	Settings *model.Settings
}
