// Package fields layers named private fields on top of a single private
// channel, the way a class declaration owns one private slot table: a Group
// is created once at definition time, objects are bound to it exactly once,
// and Field handles are the only way to reach a bound object's values.
//
// Access to an object that was never bound fails with ErrNotBound, mirroring
// private-member access on an object the declaration never initialized.
package fields

import (
	"errors"
	"fmt"
	"sync"

	priv "github.com/goliatone/go-privatestate"
)

var (
	// ErrNotBound reports field access on a key the group never bound.
	ErrNotBound = errors.New("fields: object not bound to group")

	// ErrAlreadyBound reports a second Bind for the same key.
	ErrAlreadyBound = errors.New("fields: object already bound to group")

	// ErrUnknownField reports a field name the group does not declare.
	ErrUnknownField = errors.New("fields: unknown field")
)

// Group owns one set of named private fields for keys of type *K. The zero
// value is inert; construct groups with New.
type Group[K any] struct {
	mu      sync.Mutex
	names   map[string]struct{}
	channel *priv.Channel[K, map[string]any]
}

// New declares a group with the given field names. Names must be non-empty
// and unique.
func New[K any](names ...string) (*Group[K], error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("fields: at least one field name is required")
	}
	declared := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("fields: field name must not be empty")
		}
		if _, dup := declared[name]; dup {
			return nil, fmt.Errorf("fields: field %q declared twice", name)
		}
		declared[name] = struct{}{}
	}
	return &Group[K]{
		names:   declared,
		channel: priv.NewChannel[K, map[string]any](),
	}, nil
}

// Bind installs the group's record for key with every field set to nil.
// Binding happens at most once per key; the record disappears with the key.
func (g *Group[K]) Bind(key *K) error {
	if g == nil || g.channel == nil {
		return fmt.Errorf("fields: group must be constructed with New")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	bound, err := g.channel.Has(key)
	if err != nil {
		return err
	}
	if bound {
		return ErrAlreadyBound
	}
	record := make(map[string]any, len(g.names))
	for name := range g.names {
		record[name] = nil
	}
	return g.channel.Set(key, record)
}

// Bound reports whether key has been bound to the group.
func (g *Group[K]) Bound(key *K) (bool, error) {
	if g == nil || g.channel == nil {
		return false, fmt.Errorf("fields: group must be constructed with New")
	}
	return g.channel.Has(key)
}

// Field returns the handle for one declared field. Handles are only
// obtainable through the group, so holding one is holding the capability.
func (g *Group[K]) Field(name string) (Field[K], error) {
	if g == nil || g.channel == nil {
		return Field[K]{}, fmt.Errorf("fields: group must be constructed with New")
	}
	if _, ok := g.names[name]; !ok {
		return Field[K]{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return Field[K]{group: g, name: name}, nil
}

// Field is the accessor for one named private field of a group.
type Field[K any] struct {
	group *Group[K]
	name  string
}

// Get returns the field's value for key.
func (f Field[K]) Get(key *K) (any, error) {
	if f.group == nil {
		return nil, fmt.Errorf("fields: field handle must come from a group")
	}
	f.group.mu.Lock()
	defer f.group.mu.Unlock()

	record, ok, err := f.group.channel.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotBound
	}
	return record[f.name], nil
}

// Set updates the field's value for key.
func (f Field[K]) Set(key *K, value any) error {
	if f.group == nil {
		return fmt.Errorf("fields: field handle must come from a group")
	}
	f.group.mu.Lock()
	defer f.group.mu.Unlock()

	record, ok, err := f.group.channel.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotBound
	}
	record[f.name] = value
	return nil
}
