// Package command implements the per-device remote command mailbox. It is
// a single slot, not a queue: a new command overwrites the previous one
// whether or not it was processed. Delivery is best effort; a display that
// is offline when a command is sent only sees it if it is still
// unprocessed on reconnect.
package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

// Handler reacts to one named command.
type Handler func(cmd model.DeviceCommand)

// Send overwrites the device's command slot.
func Send(ctx context.Context, st store.Store, deviceID, command, action string) error {
	doc, err := json.Marshal(model.DeviceCommand{
		Command:   command,
		Action:    action,
		Timestamp: time.Now(),
		Processed: false,
	})
	if err != nil {
		return err
	}
	return st.Put(ctx, store.CommandKey(deviceID), doc, false)
}

// Listener watches a device's command slot and dispatches unprocessed
// commands to registered handlers, then marks them processed.
type Listener struct {
	store    store.Store
	deviceID string
	handlers map[string]Handler
	unsub    func()
}

func NewListener(st store.Store, deviceID string) *Listener {
	return &Listener{
		store:    st,
		deviceID: deviceID,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for a command name. Must be called before
// Start.
func (l *Listener) Handle(command string, h Handler) {
	l.handlers[command] = h
}

// Start subscribes to the command slot. Any command already sitting
// unprocessed in the slot is dispatched immediately.
func (l *Listener) Start(ctx context.Context) error {
	unsub, err := l.store.Subscribe(ctx, store.CommandKey(l.deviceID), func(doc []byte, ok bool) {
		if !ok {
			return
		}
		l.dispatch(ctx, doc)
	})
	if err != nil {
		return err
	}
	l.unsub = unsub
	return nil
}

// Stop unsubscribes from the command slot.
func (l *Listener) Stop() {
	if l.unsub != nil {
		l.unsub()
		l.unsub = nil
	}
}

func (l *Listener) dispatch(ctx context.Context, doc []byte) {
	var cmd model.DeviceCommand
	if err := json.Unmarshal(doc, &cmd); err != nil {
		log.Error().Err(err).Str("deviceID", l.deviceID).Msg("[command] malformed command document")
		return
	}
	if cmd.Processed || cmd.Command == "" {
		return
	}

	handler, ok := l.handlers[cmd.Command]
	if !ok {
		log.Warn().Str("deviceID", l.deviceID).Str("command", cmd.Command).Msg("[command] unknown command ignored")
		l.markProcessed(ctx)
		return
	}

	log.Info().Str("deviceID", l.deviceID).Str("command", cmd.Command).Str("action", cmd.Action).Msg("[command] dispatching")
	handler(cmd)
	l.markProcessed(ctx)
}

// markProcessed is best-effort telemetry; a failed write is logged and
// swallowed.
func (l *Listener) markProcessed(ctx context.Context) {
	patch, _ := json.Marshal(map[string]bool{"processed": true})
	if err := l.store.Put(ctx, store.CommandKey(l.deviceID), patch, true); err != nil {
		log.Error().Err(err).Str("deviceID", l.deviceID).Msg("[command] failed to mark command processed")
	}
}
