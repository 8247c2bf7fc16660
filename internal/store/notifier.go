package store

import (
	"context"
	"sync"
)

// Notifier fans document-change keys out to subscribers. Implementations:
// Redis pub/sub, MQTT for deployments that already run a broker for their
// TV fleet, and the in-process notifier below.
type Notifier interface {
	Publish(ctx context.Context, key string) error
	Subscribe(key string, fn func(key string)) (func(), error)
	Close() error
}

type memNotifier struct {
	mu   sync.Mutex
	subs map[string][]*memSub
}

type memSub struct {
	fn func(key string)
}

// NewMemNotifier returns an in-process Notifier. Used by tests and by
// single-binary deployments where server and display share a process.
func NewMemNotifier() Notifier {
	return &memNotifier{subs: make(map[string][]*memSub)}
}

func (n *memNotifier) Publish(_ context.Context, key string) error {
	n.mu.Lock()
	targets := make([]*memSub, len(n.subs[key]))
	copy(targets, n.subs[key])
	n.mu.Unlock()

	for _, s := range targets {
		s.fn(key)
	}
	return nil
}

func (n *memNotifier) Subscribe(key string, fn func(key string)) (func(), error) {
	sub := &memSub{fn: fn}
	n.mu.Lock()
	n.subs[key] = append(n.subs[key], sub)
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		list := n.subs[key]
		for i, s := range list {
			if s == sub {
				n.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}, nil
}

func (n *memNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = make(map[string][]*memSub)
	return nil
}
