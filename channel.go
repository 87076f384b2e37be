package priv

import "github.com/goliatone/go-privatestate/internal/identity"

// Channel is a typed private channel: an unforgeable accessor over one
// identity-keyed weak store. Its exported surface is exactly the four
// operations; there is deliberately no way to enumerate keys, records, or
// size. The zero value is inert; construct channels with NewChannel.
type Channel[K any, V any] struct {
	core *core[V]
}

// Set inserts or replaces the record for key. The entry holds key weakly:
// once key is otherwise unreachable, entry and key become collectible
// together. A record that itself references key keeps key reachable: the
// weak relation covers the store's reference only.
func (ch *Channel[K, V]) Set(key *K, value V) error {
	if ch == nil || !ch.core.ready() {
		return ErrUninitializedChannel
	}
	ref, err := identity.FromPointer(key)
	if err != nil {
		return wrapKeyError(ch.core.cfg.name, key, err)
	}
	if err := ch.core.admit(opSet, value); err != nil {
		return err
	}
	if ch.core.st.set(ref, value) {
		st := ch.core.st
		identity.WatchPointer(key, func() { st.evict(ref) })
	}
	return nil
}

// Get returns the record for key if present. It never creates an entry.
func (ch *Channel[K, V]) Get(key *K) (V, bool, error) {
	var zero V
	if ch == nil || !ch.core.ready() {
		return zero, false, ErrUninitializedChannel
	}
	ref, err := identity.FromPointer(key)
	if err != nil {
		return zero, false, wrapKeyError(ch.core.cfg.name, key, err)
	}
	value, ok := ch.core.st.get(ref)
	return value, ok, nil
}

// Has reports whether key currently has a record.
func (ch *Channel[K, V]) Has(key *K) (bool, error) {
	if ch == nil || !ch.core.ready() {
		return false, ErrUninitializedChannel
	}
	ref, err := identity.FromPointer(key)
	if err != nil {
		return false, wrapKeyError(ch.core.cfg.name, key, err)
	}
	return ch.core.st.has(ref), nil
}

// Delete removes the record for key if present and reports whether anything
// was removed. Deleting an absent key is not an error.
func (ch *Channel[K, V]) Delete(key *K) (bool, error) {
	if ch == nil || !ch.core.ready() {
		return false, ErrUninitializedChannel
	}
	ref, err := identity.FromPointer(key)
	if err != nil {
		return false, wrapKeyError(ch.core.cfg.name, key, err)
	}
	return ch.core.st.delete(ref), nil
}
