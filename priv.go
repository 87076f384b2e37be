// Package priv associates private, tamper-proof records with host objects by
// identity, without the association being observable, enumerable, or
// serializable, and without keeping the host object alive.
//
// A channel is the capability for one private association: code that holds
// the channel value can reach the records stored through it, code that does
// not cannot: there is no registry of channels, no enumeration of keys, and
// no path from a key object back to its records. Entries hold their keys
// weakly; when a key object becomes unreachable its entry is reclaimed with
// it.
package priv

import (
	"context"

	"github.com/goliatone/go-privatestate/internal/snapshot"
	"github.com/goliatone/go-privatestate/pkg/telemetry"
)

// NewChannel constructs a typed private channel. Keys are *K, so key
// identity is checked statically; records are V. Create one channel per
// private association, at definition time, and keep it lexically private to
// the defining scope.
func NewChannel[K any, V any](opts ...Option) *Channel[K, V] {
	return &Channel[K, V]{core: newCore[V](opts)}
}

// NewDynamic constructs a runtime-typed private channel. Keys are arbitrary
// reference values validated per call; a key without stable identity fails
// with ErrInvalidKeyKind.
func NewDynamic[V any](opts ...Option) *Dynamic[V] {
	return &Dynamic[V]{core: newCore[V](opts)}
}

// core carries the state shared by both accessor kinds. Its methods are all
// unexported so embedding never widens an accessor's public surface.
type core[V any] struct {
	st      *store[V]
	cfg     channelConfig
	binder  *snapshot.Binder
	emitter *telemetry.Emitter
	guard   Guard
}

func newCore[V any](opts []Option) *core[V] {
	cfg := applyChannelOptions(opts)
	c := &core[V]{
		cfg:    cfg,
		binder: snapshot.New(snapshot.WithRedact(cfg.redacted...)),
		emitter: telemetry.NewEmitter(cfg.hooks, telemetry.Config{
			Enabled: cfg.hooks.Enabled(),
		}),
	}
	c.st = newStore[V](c.entryEvicted)
	if cfg.rule != "" {
		c.guard = resolveGuard(&cfg)
	}
	c.emit(telemetry.BuildChannelCreatedEvent(c.eventInput("")))
	return c
}

func (c *core[V]) ready() bool {
	return c != nil && c.st != nil
}

func (c *core[V]) entryEvicted() {
	c.emit(telemetry.BuildEntryEvictedEvent(c.eventInput("")))
}

func (c *core[V]) emit(event telemetry.Event) {
	if c.emitter.Enabled() {
		_ = c.emitter.Emit(context.Background(), event)
	}
}

func (c *core[V]) eventInput(op string) telemetry.ChannelEventInput {
	input := telemetry.ChannelEventInput{
		ChannelID: c.cfg.id,
		Channel:   c.cfg.name,
		Op:        op,
	}
	if c.guard != nil {
		input.Engine = guardEngineName(c.guard)
		input.Rule = c.cfg.rule
	}
	return input
}
