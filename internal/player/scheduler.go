package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// SlideChange carries both sides of a slide advance so the transition
// layer can render the outgoing and incoming slide together.
type SlideChange struct {
	Outgoing *model.Slide
	Incoming model.Slide
	Index    int
}

// SchedulerConfig wires the rotation state machine.
type SchedulerConfig struct {
	// OnAdvance fires on every index change, including the initial entry
	// into a new sequence (Outgoing nil).
	OnAdvance func(SlideChange)
	// OnProgress receives the current slide's progress percentage on every
	// progress tick.
	OnProgress func(percent float64)
	// TimeUnit is the real duration of one slide-second. Defaults to
	// time.Second; tests shrink it.
	TimeUnit time.Duration
	// ProgressInterval defaults to 100ms.
	ProgressInterval time.Duration
}

// Scheduler advances through a flattened slide sequence with a one-shot
// timer per slide. Replacing the sequence restarts rotation from index 0:
// content edits may have reordered anything, so preserving position is not
// attempted. Every reset bumps a generation counter; a timer armed for an
// older generation discards its fire instead of mutating current state.
type Scheduler struct {
	cfg SchedulerConfig
	now func() time.Time

	mu         sync.Mutex
	sequence   []model.Slide
	index      int
	generation int
	startedAt  time.Time
	playing    bool
	timer      *time.Timer

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.TimeUnit <= 0 {
		cfg.TimeUnit = time.Second
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 100 * time.Millisecond
	}
	return &Scheduler{cfg: cfg, now: time.Now}
}

// Start launches the progress tick loop. Rotation itself is armed by
// SetSequence.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.cfg.OnProgress != nil {
					s.cfg.OnProgress(s.Progress())
				}
			}
		}
	}()
}

// Stop cancels the slide timer and the progress loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.playing = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}
}

// SetSequence replaces the rotation sequence. Any non-empty sequence
// enters Playing at index 0 with a fresh timer; an empty one drops to
// Idle and the caller shows the no-slides state.
func (s *Scheduler) SetSequence(sequence []model.Slide) {
	s.mu.Lock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.sequence = sequence
	s.index = 0

	if len(sequence) == 0 {
		s.playing = false
		s.mu.Unlock()
		log.Info().Msg("[player] empty sequence, rotation idle")
		return
	}

	s.playing = true
	s.startedAt = s.now()
	first := sequence[0]
	s.armLocked(first)
	change := SlideChange{Outgoing: nil, Incoming: first, Index: 0}
	onAdvance := s.cfg.OnAdvance
	s.mu.Unlock()

	if onAdvance != nil {
		onAdvance(change)
	}
}

// Restart resets rotation to index 0 without a content change. Used by the
// remote refresh command.
func (s *Scheduler) Restart() {
	s.mu.Lock()
	sequence := s.sequence
	s.mu.Unlock()
	s.SetSequence(sequence)
}

// Current returns the active slide, or nil while idle.
func (s *Scheduler) Current() *model.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return nil
	}
	slide := s.sequence[s.index]
	return &slide
}

// Index returns the current rotation index.
func (s *Scheduler) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Playing reports whether a sequence is being rotated.
func (s *Scheduler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Progress returns the current slide's elapsed percentage, clamped to
// [0,100]. Advancing re-stamps startedAt, so progress falls back to 0 at
// every 100% even for a single-slide sequence.
func (s *Scheduler) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return 0
	}
	total := s.slideDurationLocked(s.sequence[s.index])
	elapsed := s.now().Sub(s.startedAt)
	percent := float64(elapsed) / float64(total) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// caller must hold s.mu
func (s *Scheduler) armLocked(slide model.Slide) {
	generation := s.generation
	s.timer = time.AfterFunc(s.slideDurationLocked(slide), func() {
		s.advance(generation)
	})
}

// caller must hold s.mu
func (s *Scheduler) slideDurationLocked(slide model.Slide) time.Duration {
	return time.Duration(slide.EffectiveDuration()) * s.cfg.TimeUnit
}

// advance is the one-shot timer callback. The generation check drops
// fires that belong to an already-replaced sequence.
func (s *Scheduler) advance(generation int) {
	s.mu.Lock()
	if generation != s.generation || !s.playing {
		s.mu.Unlock()
		return
	}

	outgoing := s.sequence[s.index]
	s.index = (s.index + 1) % len(s.sequence)
	incoming := s.sequence[s.index]
	s.startedAt = s.now()
	s.armLocked(incoming)
	change := SlideChange{Outgoing: &outgoing, Incoming: incoming, Index: s.index}
	onAdvance := s.cfg.OnAdvance
	s.mu.Unlock()

	if onAdvance != nil {
		onAdvance(change)
	}
}
