package player

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/command"
	"github.com/Dune-pebbler/izi-casting/internal/feeds"
	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/pairing"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

// DefaultHeartbeatInterval spaces the lastSeen writes that keep the
// device's online indicator fresh.
const DefaultHeartbeatInterval = 60 * time.Second

// SessionConfig wires one display session.
type SessionConfig struct {
	DeviceID   string
	DeviceInfo string
	Paginator  PaginatorConfig
	// TimeUnit scales slide durations; production leaves it zero
	// (seconds).
	TimeUnit          time.Duration
	HeartbeatInterval time.Duration
}

// Session is the display's top-level state machine: Unpaired shows
// rotating pairing codes, Paired runs the playback engine. Every mode
// switch tears down the prior mode's timers and subscriptions completely
// before establishing the new mode's, so nothing fires against stale
// state across the boundary.
//
// Store callbacks never do work themselves: they stash the latest
// document and kick the session's event loop, which applies changes one
// at a time. That keeps the engine effectively single-threaded and free
// of callback re-entrancy.
type Session struct {
	store   store.Store
	fetcher feeds.Fetcher
	cfg     SessionConfig

	kick    chan struct{}
	pending pendingDocs

	mu         sync.Mutex
	modeKnown  bool
	paired     bool
	settings   *model.Settings
	sequence   []model.Slide
	scheduler  *Scheduler
	transition *TransitionController
	paginator  *TextPaginator
	rotator    *FeedRotator
	listener   *command.Listener
	generator  *pairing.Generator

	deviceUnsub   func()
	contentUnsub  func()
	settingsUnsub func()
	heartbeatStop context.CancelFunc
	heartbeatDone chan struct{}
}

// pendingDocs coalesces subscription pushes: only the latest version of
// each document matters, so callbacks overwrite the slot and the loop
// drains it.
type pendingDocs struct {
	mu          sync.Mutex
	device      []byte
	deviceOK    bool
	deviceSet   bool
	content     []byte
	contentOK   bool
	contentSet  bool
	settings    []byte
	settingsOK  bool
	settingsSet bool
}

func NewSession(st store.Store, fetcher feeds.Fetcher, cfg SessionConfig) *Session {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	return &Session{
		store:   st,
		fetcher: fetcher,
		cfg:     cfg,
		kick:    make(chan struct{}, 1),
	}
}

// Run registers the device, subscribes to its record and drives the mode
// state machine until the context ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.register(ctx); err != nil {
		return err
	}

	unsub, err := s.store.Subscribe(ctx, store.DeviceKey(s.cfg.DeviceID), func(doc []byte, ok bool) {
		s.pending.mu.Lock()
		s.pending.device, s.pending.deviceOK, s.pending.deviceSet = doc, ok, true
		s.pending.mu.Unlock()
		s.wake()
	})
	if err != nil {
		return err
	}
	s.deviceUnsub = unsub

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return ctx.Err()
		case <-s.kick:
			s.drain(ctx)
		}
	}
}

// register announces the device. Merge semantics keep an existing
// record's pairing state and custom name intact.
func (s *Session) register(ctx context.Context) error {
	doc, err := json.Marshal(map[string]any{
		"id":         s.cfg.DeviceID,
		"deviceInfo": s.cfg.DeviceInfo,
		"lastSeen":   time.Now(),
	})
	if err != nil {
		return err
	}
	return s.store.Put(ctx, store.DeviceKey(s.cfg.DeviceID), doc, true)
}

func (s *Session) wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) drain(ctx context.Context) {
	s.pending.mu.Lock()
	device, deviceOK, deviceSet := s.pending.device, s.pending.deviceOK, s.pending.deviceSet
	content, contentOK, contentSet := s.pending.content, s.pending.contentOK, s.pending.contentSet
	settings, settingsOK, settingsSet := s.pending.settings, s.pending.settingsOK, s.pending.settingsSet
	s.pending.deviceSet, s.pending.contentSet, s.pending.settingsSet = false, false, false
	s.pending.mu.Unlock()

	if deviceSet {
		s.applyDevice(ctx, device, deviceOK)
	}
	if contentSet {
		s.applyContent(content, contentOK)
	}
	if settingsSet {
		s.applySettings(ctx, settings, settingsOK)
	}
}

func (s *Session) applyDevice(ctx context.Context, doc []byte, ok bool) {
	paired := false
	if ok {
		var device model.Device
		if err := json.Unmarshal(doc, &device); err != nil {
			log.Error().Err(err).Msg("[session] malformed device document")
			return
		}
		paired = device.IsPaired
	}

	s.mu.Lock()
	unchanged := s.modeKnown && paired == s.paired
	s.mu.Unlock()
	if unchanged {
		return
	}

	log.Info().Bool("paired", paired).Str("deviceID", s.cfg.DeviceID).Msg("[session] mode switch")
	if paired {
		s.exitUnpaired()
		s.enterPaired(ctx)
	} else {
		s.exitPaired()
		s.enterUnpaired(ctx)
	}

	s.mu.Lock()
	s.modeKnown = true
	s.paired = paired
	s.mu.Unlock()
}

func (s *Session) applyContent(doc []byte, ok bool) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}

	var content model.ContentDoc
	if ok {
		if err := json.Unmarshal(doc, &content); err != nil {
			log.Error().Err(err).Msg("[session] malformed content document")
			return
		}
	}

	sequence := Flatten(content)
	s.mu.Lock()
	s.sequence = sequence
	s.mu.Unlock()
	scheduler.SetSequence(sequence)
}

func (s *Session) applySettings(ctx context.Context, doc []byte, ok bool) {
	s.mu.Lock()
	rotator := s.rotator
	s.mu.Unlock()
	if rotator == nil {
		return
	}

	var settings model.Settings
	if ok {
		if err := json.Unmarshal(doc, &settings); err != nil {
			log.Error().Err(err).Msg("[session] malformed settings document")
			return
		}
	}

	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	rotator.SetFeeds(ctx, settings.Feeds)
}

func (s *Session) enterPaired(ctx context.Context) {
	paginator := NewTextPaginator(s.cfg.Paginator)
	transition := NewTransitionController(func(slide model.Slide) {
		if slide.Kind == model.SlideText && LayoutPaginates(slide.Layout) {
			paginator.Show(slide.Text)
		} else {
			paginator.Stop()
		}
	})
	scheduler := NewScheduler(SchedulerConfig{
		OnAdvance: transition.Apply,
		TimeUnit:  s.cfg.TimeUnit,
	})
	scheduler.Start(ctx)

	rotator := NewFeedRotator(s.fetcher, nil)

	listener := command.NewListener(s.store, s.cfg.DeviceID)
	restart := func(model.DeviceCommand) { scheduler.Restart() }
	listener.Handle(model.CommandRefresh, restart)
	listener.Handle(model.CommandRestartSlides, restart)
	if err := listener.Start(ctx); err != nil {
		log.Error().Err(err).Msg("[session] command listener failed to start")
	}

	contentUnsub, err := s.store.Subscribe(ctx, store.ContentKey, func(doc []byte, ok bool) {
		s.pending.mu.Lock()
		s.pending.content, s.pending.contentOK, s.pending.contentSet = doc, ok, true
		s.pending.mu.Unlock()
		s.wake()
	})
	if err != nil {
		log.Error().Err(err).Msg("[session] content subscription failed")
	}
	settingsUnsub, err := s.store.Subscribe(ctx, store.SettingsKey, func(doc []byte, ok bool) {
		s.pending.mu.Lock()
		s.pending.settings, s.pending.settingsOK, s.pending.settingsSet = doc, ok, true
		s.pending.mu.Unlock()
		s.wake()
	})
	if err != nil {
		log.Error().Err(err).Msg("[session] settings subscription failed")
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go s.heartbeat(hbCtx, hbDone)

	s.mu.Lock()
	s.scheduler = scheduler
	s.transition = transition
	s.paginator = paginator
	s.rotator = rotator
	s.listener = listener
	s.contentUnsub = contentUnsub
	s.settingsUnsub = settingsUnsub
	s.heartbeatStop = hbCancel
	s.heartbeatDone = hbDone
	s.mu.Unlock()
}

func (s *Session) exitPaired() {
	s.mu.Lock()
	scheduler := s.scheduler
	transition := s.transition
	paginator := s.paginator
	rotator := s.rotator
	listener := s.listener
	contentUnsub := s.contentUnsub
	settingsUnsub := s.settingsUnsub
	hbStop := s.heartbeatStop
	hbDone := s.heartbeatDone
	s.scheduler, s.transition, s.paginator, s.rotator, s.listener = nil, nil, nil, nil, nil
	s.contentUnsub, s.settingsUnsub, s.heartbeatStop, s.heartbeatDone = nil, nil, nil, nil
	s.sequence = nil
	s.mu.Unlock()

	if hbStop != nil {
		hbStop()
		<-hbDone
	}
	if listener != nil {
		listener.Stop()
	}
	if contentUnsub != nil {
		contentUnsub()
	}
	if settingsUnsub != nil {
		settingsUnsub()
	}
	if rotator != nil {
		rotator.Stop()
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if transition != nil {
		transition.Stop()
	}
	if paginator != nil {
		paginator.Stop()
	}
}

func (s *Session) enterUnpaired(ctx context.Context) {
	generator := pairing.NewGenerator(s.store, s.cfg.DeviceID, nil)
	if err := generator.Start(ctx); err != nil {
		log.Error().Err(err).Msg("[session] pairing generator failed to start")
	}
	s.mu.Lock()
	s.generator = generator
	s.mu.Unlock()
}

func (s *Session) exitUnpaired() {
	s.mu.Lock()
	generator := s.generator
	s.generator = nil
	s.mu.Unlock()
	if generator != nil {
		generator.Stop()
	}
}

// heartbeat keeps the device's lastSeen fresh. Write failures are
// best-effort telemetry: logged and swallowed.
func (s *Session) heartbeat(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			patch, _ := json.Marshal(map[string]any{"lastSeen": time.Now()})
			if err := s.store.Put(ctx, store.DeviceKey(s.cfg.DeviceID), patch, true); err != nil {
				log.Error().Err(err).Str("deviceID", s.cfg.DeviceID).Msg("[session] heartbeat write failed")
			}
		}
	}
}

func (s *Session) teardown() {
	if s.deviceUnsub != nil {
		s.deviceUnsub()
		s.deviceUnsub = nil
	}
	s.exitPaired()
	s.exitUnpaired()
}

// Frame assembles the renderable snapshot for the front-end.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	paired := s.modeKnown && s.paired
	generator := s.generator
	scheduler := s.scheduler
	transition := s.transition
	paginator := s.paginator
	rotator := s.rotator
	settings := s.settings
	s.mu.Unlock()

	frame := Frame{Settings: settings}

	if !paired {
		frame.State = FramePairing
		if generator != nil {
			state := generator.State()
			frame.Pairing = &state
		}
		return frame
	}

	if scheduler == nil || !scheduler.Playing() {
		frame.State = FrameNoSlides
	} else {
		frame.State = FramePlaying
		frame.Progress = scheduler.Progress()
	}

	if transition != nil {
		view := transition.View()
		frame.Current = view.Current
		frame.Incoming = view.Incoming
		frame.Transition = view.Transition
	}
	if paginator != nil {
		frame.ScrollOffset = paginator.Offset()
	}
	if rotator != nil {
		frame.TickerItem = rotator.Current()
		frame.TickerLoading = frame.TickerItem == nil
	}
	return frame
}
