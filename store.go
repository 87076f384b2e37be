package priv

import (
	"sync"

	"github.com/goliatone/go-privatestate/internal/identity"
)

// store is the identity-keyed weak map behind both accessor kinds. Keys are
// held as identity.Ref handles, so the store never extends a key's lifetime;
// reclamation-driven removal arrives through evict. All operations on one
// store are linearizable under mu; distinct stores share nothing.
//
// The tracked set survives explicit deletes so each (object, store) pair
// registers at most one reclamation watch across delete/re-set cycles.
type store[V any] struct {
	mu      sync.RWMutex
	entries map[identity.Ref]V
	tracked map[identity.Ref]struct{}
	onEvict func()
}

func newStore[V any](onEvict func()) *store[V] {
	return &store[V]{
		entries: map[identity.Ref]V{},
		tracked: map[identity.Ref]struct{}{},
		onEvict: onEvict,
	}
}

func (s *store[V]) get(ref identity.Ref) (V, bool) {
	s.mu.RLock()
	value, ok := s.entries[ref]
	s.mu.RUnlock()
	return value, ok
}

func (s *store[V]) has(ref identity.Ref) bool {
	s.mu.RLock()
	_, ok := s.entries[ref]
	s.mu.RUnlock()
	return ok
}

// set inserts or replaces the entry for ref and reports whether the caller
// must register a reclamation watch for the key.
func (s *store[V]) set(ref identity.Ref, value V) bool {
	s.mu.Lock()
	s.entries[ref] = value
	_, seen := s.tracked[ref]
	if !seen {
		s.tracked[ref] = struct{}{}
	}
	s.mu.Unlock()
	return !seen
}

func (s *store[V]) delete(ref identity.Ref) bool {
	s.mu.Lock()
	_, ok := s.entries[ref]
	if ok {
		delete(s.entries, ref)
	}
	s.mu.Unlock()
	return ok
}

// evict runs on the runtime's cleanup goroutine once ref's key is
// unreachable. By then no caller can name the key, so the removal is not
// observable through the accessor operations.
func (s *store[V]) evict(ref identity.Ref) {
	s.mu.Lock()
	_, ok := s.entries[ref]
	if ok {
		delete(s.entries, ref)
	}
	delete(s.tracked, ref)
	s.mu.Unlock()
	if ok && s.onEvict != nil {
		s.onEvict()
	}
}

// size is test support only; nothing in the public surface exposes it.
func (s *store[V]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
