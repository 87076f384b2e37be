package priv

import "github.com/goliatone/go-privatestate/internal/identity"

// Dynamic is a runtime-typed private channel. Keys are arbitrary values
// validated on every operation: only pointers to non-zero-size values carry
// stable identity, everything else fails with ErrInvalidKeyKind. Two keys
// address the same record exactly when they are the same allocation;
// structural equality never matches. The zero value is inert; construct
// with NewDynamic.
type Dynamic[V any] struct {
	core *core[V]
}

// Set inserts or replaces the record for key.
func (d *Dynamic[V]) Set(key any, value V) error {
	if d == nil || !d.core.ready() {
		return ErrUninitializedChannel
	}
	ref, err := identity.Of(key)
	if err != nil {
		return wrapKeyError(d.core.cfg.name, key, err)
	}
	if err := d.core.admit(opSet, value); err != nil {
		return err
	}
	if d.core.st.set(ref, value) {
		st := d.core.st
		identity.Watch(key, func() { st.evict(ref) })
	}
	return nil
}

// Get returns the record for key if present. It never creates an entry.
func (d *Dynamic[V]) Get(key any) (V, bool, error) {
	var zero V
	if d == nil || !d.core.ready() {
		return zero, false, ErrUninitializedChannel
	}
	ref, err := identity.Of(key)
	if err != nil {
		return zero, false, wrapKeyError(d.core.cfg.name, key, err)
	}
	value, ok := d.core.st.get(ref)
	return value, ok, nil
}

// Has reports whether key currently has a record.
func (d *Dynamic[V]) Has(key any) (bool, error) {
	if d == nil || !d.core.ready() {
		return false, ErrUninitializedChannel
	}
	ref, err := identity.Of(key)
	if err != nil {
		return false, wrapKeyError(d.core.cfg.name, key, err)
	}
	return d.core.st.has(ref), nil
}

// Delete removes the record for key if present and reports whether anything
// was removed. Deleting an absent key is not an error.
func (d *Dynamic[V]) Delete(key any) (bool, error) {
	if d == nil || !d.core.ready() {
		return false, ErrUninitializedChannel
	}
	ref, err := identity.Of(key)
	if err != nil {
		return false, wrapKeyError(d.core.cfg.name, key, err)
	}
	return d.core.st.delete(ref), nil
}
