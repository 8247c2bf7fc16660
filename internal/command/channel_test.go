package command

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

type dispatchLog struct {
	mu   sync.Mutex
	cmds []string
}

func (d *dispatchLog) handler(name string) Handler {
	return func(model.DeviceCommand) {
		d.mu.Lock()
		d.cmds = append(d.cmds, name)
		d.mu.Unlock()
	}
}

func (d *dispatchLog) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.cmds))
	copy(out, d.cmds)
	return out
}

func commandSlot(t *testing.T, st store.Store, deviceID string) model.DeviceCommand {
	t.Helper()
	doc, ok, err := st.Get(context.Background(), store.CommandKey(deviceID))
	require.NoError(t, err)
	require.True(t, ok)
	var cmd model.DeviceCommand
	require.NoError(t, json.Unmarshal(doc, &cmd))
	return cmd
}

func TestSendOverwritesSlot(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	// two sends before any listener exists: the slot keeps only the last
	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRefresh, ""))
	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRestartSlides, "now"))

	cmd := commandSlot(t, st, "dev-1")
	assert.Equal(t, model.CommandRestartSlides, cmd.Command)
	assert.Equal(t, "now", cmd.Action)
	assert.False(t, cmd.Processed)
}

func TestListenerDispatchesPendingCommandOnStart(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRefresh, ""))
	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRestartSlides, ""))

	logged := &dispatchLog{}
	l := NewListener(st, "dev-1")
	l.Handle(model.CommandRefresh, logged.handler("refresh"))
	l.Handle(model.CommandRestartSlides, logged.handler("restart"))
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	// only the surviving command is delivered, exactly once
	require.Eventually(t, func() bool {
		return commandSlot(t, st, "dev-1").Processed
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"restart"}, logged.seen())
}

func TestProcessedCommandNotRedispatched(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	logged := &dispatchLog{}
	l := NewListener(st, "dev-1")
	l.Handle(model.CommandRefresh, logged.handler("refresh"))
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRefresh, ""))
	require.Eventually(t, func() bool {
		return commandSlot(t, st, "dev-1").Processed
	}, time.Second, time.Millisecond)
	assert.Equal(t, []string{"refresh"}, logged.seen())

	// an unrelated merge write re-notifies the subscription; the processed
	// flag keeps the handler from firing again
	patch, _ := json.Marshal(map[string]string{"action": "poke"})
	require.NoError(t, st.Put(ctx, store.CommandKey("dev-1"), patch, true))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"refresh"}, logged.seen())
}

func TestUnknownCommandIgnoredButProcessed(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	logged := &dispatchLog{}
	l := NewListener(st, "dev-1")
	l.Handle(model.CommandRefresh, logged.handler("refresh"))
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	require.NoError(t, Send(ctx, st, "dev-1", "reboot_into_space", ""))

	require.Eventually(t, func() bool {
		return commandSlot(t, st, "dev-1").Processed
	}, time.Second, time.Millisecond)
	assert.Empty(t, logged.seen())
}

func TestNewCommandAfterProcessedDispatchesAgain(t *testing.T) {
	st := store.NewMemStore()
	ctx := context.Background()

	logged := &dispatchLog{}
	l := NewListener(st, "dev-1")
	l.Handle(model.CommandRefresh, logged.handler("refresh"))
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRefresh, ""))
	require.Eventually(t, func() bool {
		return len(logged.seen()) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, Send(ctx, st, "dev-1", model.CommandRefresh, ""))
	require.Eventually(t, func() bool {
		return len(logged.seen()) == 2
	}, time.Second, time.Millisecond)
}
