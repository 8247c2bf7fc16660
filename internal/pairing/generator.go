// Package pairing implements the device pairing lifecycle: the display
// side shows rotating short numeric codes, the admin side consumes one to
// bind the display to an account.
package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

// WarningWindow is the countdown tail flagged as a visual warning.
const WarningWindow = 5 * time.Second

// CodeState is the pairing screen's renderable snapshot.
type CodeState struct {
	Code             string
	RemainingSeconds int
	Warning          bool
}

// Generator rotates pairing codes for one device while it is unpaired.
// A generation-in-flight flag keeps the countdown ticker and the device
// subscription handler from generating two codes at once.
type Generator struct {
	store    store.Store
	deviceID string
	now      func() time.Time
	onState  func(CodeState)

	mu         sync.Mutex
	generating bool
	code       string
	expiresAt  time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewGenerator builds a Generator. onState receives every countdown tick
// and every fresh code; it may be nil.
func NewGenerator(st store.Store, deviceID string, onState func(CodeState)) *Generator {
	return &Generator{
		store:    st,
		deviceID: deviceID,
		now:      time.Now,
		onState:  onState,
	}
}

// Start generates the first code and runs the 1 s countdown until Stop or
// context cancellation.
func (g *Generator) Start(ctx context.Context) error {
	if err := g.Generate(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})

	go func() {
		defer close(g.done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.tick(ctx)
			}
		}
	}()
	return nil
}

// Stop cancels the countdown. Safe to call when never started.
func (g *Generator) Stop() {
	if g.cancel != nil {
		g.cancel()
		<-g.done
		g.cancel = nil
	}
}

// State returns the current code and remaining validity.
func (g *Generator) State() CodeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// caller must hold g.mu
func (g *Generator) stateLocked() CodeState {
	remaining := int(g.expiresAt.Sub(g.now()).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return CodeState{
		Code:             g.code,
		RemainingSeconds: remaining,
		Warning:          remaining > 0 && remaining <= int(WarningWindow/time.Second),
	}
}

// tick emits the countdown state and regenerates once the code expires.
func (g *Generator) tick(ctx context.Context) {
	g.mu.Lock()
	expired := !g.now().Before(g.expiresAt)
	state := g.stateLocked()
	g.mu.Unlock()

	if g.onState != nil {
		g.onState(state)
	}
	if !expired {
		return
	}
	if err := g.Generate(ctx); err != nil {
		log.Error().Err(err).Str("deviceID", g.deviceID).Msg("[pairing] code regeneration failed")
	}
}

// Generate creates and persists a fresh 5-digit code, unless the device
// has become paired in the meantime or another generation is already in
// flight.
func (g *Generator) Generate(ctx context.Context) error {
	g.mu.Lock()
	if g.generating {
		g.mu.Unlock()
		return nil
	}
	g.generating = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.generating = false
		g.mu.Unlock()
	}()

	// the expiry timer and the device-doc subscription can race a pairing
	// that just happened; never overwrite a paired device's code
	paired, err := g.devicePaired(ctx)
	if err != nil {
		return err
	}
	if paired {
		return nil
	}

	now := g.now()
	pc := model.PairingCode{
		Code:      NewCode(),
		DeviceID:  g.deviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(model.PairingCodeTTL),
	}

	doc, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	if err := g.store.Put(ctx, store.PairingKey(pc.Code), doc, false); err != nil {
		return fmt.Errorf("persist pairing code: %w", err)
	}

	// mirror the code onto the device record so the admin list can show it
	patch, _ := json.Marshal(map[string]string{"displayPairingCode": pc.Code})
	if err := g.store.Put(ctx, store.DeviceKey(g.deviceID), patch, true); err != nil {
		log.Error().Err(err).Str("deviceID", g.deviceID).Msg("[pairing] failed to mirror code onto device")
	}

	g.mu.Lock()
	g.code = pc.Code
	g.expiresAt = pc.ExpiresAt
	state := g.stateLocked()
	g.mu.Unlock()

	if g.onState != nil {
		g.onState(state)
	}
	log.Info().Str("deviceID", g.deviceID).Str("code", pc.Code).Msg("[pairing] generated pairing code")
	return nil
}

func (g *Generator) devicePaired(ctx context.Context) (bool, error) {
	doc, ok, err := g.store.Get(ctx, store.DeviceKey(g.deviceID))
	if err != nil || !ok {
		return false, err
	}
	var device model.Device
	if err := json.Unmarshal(doc, &device); err != nil {
		return false, err
	}
	return device.IsPaired, nil
}

// NewCode returns a random 5-digit numeric code.
func NewCode() string {
	return fmt.Sprintf("%05d", 10000+rand.Intn(90000))
}
