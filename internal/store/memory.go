package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	subs map[string][]*memStoreSub
}

type memStoreSub struct {
	onChange OnChange
}

var _ Store = (*memStore)(nil)

// NewMemStore returns a fully in-memory Store. Change callbacks fire
// synchronously inside Put/Delete, which keeps tests deterministic.
func NewMemStore() Store {
	return &memStore{
		docs: make(map[string][]byte),
		subs: make(map[string][]*memStoreSub),
	}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	return doc, ok, nil
}

func (s *memStore) Put(_ context.Context, key string, doc []byte, merge bool) error {
	s.mu.Lock()
	if merge {
		if existing, ok := s.docs[key]; ok {
			doc = mergeDocs(existing, doc)
		}
	}
	s.docs[key] = doc
	targets := s.snapshotSubs(key)
	s.mu.Unlock()

	for _, sub := range targets {
		sub.onChange(doc, true)
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.docs, key)
	targets := s.snapshotSubs(key)
	s.mu.Unlock()

	for _, sub := range targets {
		sub.onChange(nil, false)
	}
	return nil
}

func (s *memStore) List(_ context.Context, prefix string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	docs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		docs = append(docs, s.docs[key])
	}
	return docs, nil
}

func (s *memStore) Subscribe(_ context.Context, key string, onChange OnChange) (func(), error) {
	sub := &memStoreSub{onChange: onChange}
	s.mu.Lock()
	doc, ok := s.docs[key]
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	onChange(doc, ok)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[key]
		for i, candidate := range list {
			if candidate == sub {
				s.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}, nil
}

func (s *memStore) ConsumePairingCode(ctx context.Context, code string) ([]byte, error) {
	key := PairingKey(code)

	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrCodeNotFound
	}

	var pc model.PairingCode
	if err := json.Unmarshal(doc, &pc); err != nil {
		s.mu.Unlock()
		return nil, ErrCodeNotFound
	}
	if pc.IsUsed {
		s.mu.Unlock()
		return nil, ErrCodeUsed
	}
	if pc.Expired(time.Now()) {
		s.mu.Unlock()
		return nil, ErrCodeExpired
	}

	pc.IsUsed = true
	updated, err := json.Marshal(pc)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.docs[key] = updated
	targets := s.snapshotSubs(key)
	s.mu.Unlock()

	for _, sub := range targets {
		sub.onChange(updated, true)
	}
	return updated, nil
}

// caller must hold s.mu
func (s *memStore) snapshotSubs(key string) []*memStoreSub {
	targets := make([]*memStoreSub, len(s.subs[key]))
	copy(targets, s.subs[key])
	return targets
}

// mergeDocs applies last-write-wins shallow merge, mirroring the jsonb ||
// operator the Postgres store uses.
func mergeDocs(existing, partial []byte) []byte {
	var base, overlay map[string]json.RawMessage
	if err := json.Unmarshal(existing, &base); err != nil {
		return partial
	}
	if err := json.Unmarshal(partial, &overlay); err != nil {
		return partial
	}
	for k, v := range overlay {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return partial
	}
	return merged
}
