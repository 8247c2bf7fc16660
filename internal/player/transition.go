package player

import (
	"sync"
	"time"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// TransitionWindow is the fixed dual-render duration. It matches the
// visual animation length and is deliberately independent of the slide
// duration.
const TransitionWindow = 500 * time.Millisecond

// TransitionView is the renderer's snapshot of the transition layer.
// While InFlight, both Current (outgoing) and Incoming are rendered in a
// two-layer container with the named motion applied; otherwise Current is
// the sole content.
type TransitionView struct {
	Current    *model.Slide
	Incoming   *model.Slide
	Transition model.Transition
	InFlight   bool
}

// TransitionController manages the two-slide rendering window around a
// slide advance. At most one window is in flight: a new advance landing
// mid-transition cancels the open window and snaps its incoming slide to
// committed before starting the next one (cancel-and-snap).
type TransitionController struct {
	window   time.Duration
	onCommit func(model.Slide)

	mu         sync.Mutex
	current    *model.Slide
	incoming   *model.Slide
	transition model.Transition
	inFlight   bool
	generation int
	timer      *time.Timer
}

// NewTransitionController builds a controller with the fixed production
// window. onCommit fires whenever a slide becomes the sole rendered
// content; it may be nil.
func NewTransitionController(onCommit func(model.Slide)) *TransitionController {
	return &TransitionController{window: TransitionWindow, onCommit: onCommit}
}

// Apply reacts to a slide advance. Animated transitions with an outgoing
// slide open the dual-render window; everything else swaps immediately.
func (t *TransitionController) Apply(change SlideChange) {
	t.mu.Lock()
	// cancel-and-snap: close any open window first
	if t.inFlight {
		t.snapLocked()
	}

	incoming := change.Incoming
	if change.Outgoing != nil && incoming.Transition.Animated() {
		outgoing := *change.Outgoing
		t.current = &outgoing
		t.incoming = &incoming
		t.transition = incoming.Transition
		t.inFlight = true
		t.generation++
		generation := t.generation
		t.timer = time.AfterFunc(t.window, func() {
			t.commit(generation)
		})
		t.mu.Unlock()
		return
	}

	t.current = &incoming
	t.incoming = nil
	t.transition = model.TransitionNone
	onCommit := t.onCommit
	t.mu.Unlock()

	if onCommit != nil {
		onCommit(incoming)
	}
}

// commit closes the window after the fixed delay; a stale generation
// means the window was already cancelled.
func (t *TransitionController) commit(generation int) {
	t.mu.Lock()
	if generation != t.generation || !t.inFlight {
		t.mu.Unlock()
		return
	}
	t.snapLocked()
	committed := *t.current
	onCommit := t.onCommit
	t.mu.Unlock()

	if onCommit != nil {
		onCommit(committed)
	}
}

// caller must hold t.mu
func (t *TransitionController) snapLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.incoming != nil {
		t.current = t.incoming
		t.incoming = nil
	}
	t.transition = model.TransitionNone
	t.inFlight = false
	t.generation++
}

// Stop cancels any open window, snapping its incoming slide.
func (t *TransitionController) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapLocked()
}

// View returns the current render snapshot.
func (t *TransitionController) View() TransitionView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TransitionView{
		Current:    t.current,
		Incoming:   t.incoming,
		Transition: t.transition,
		InFlight:   t.inFlight,
	}
}
