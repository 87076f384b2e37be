// Package snapshot converts opaque record values into the map bindings that
// admission rules evaluate against. Bindings exist only for the duration of
// one guard evaluation; nothing in this package retains them.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context carries identifiers tied to one binding.
type Context struct {
	Channel string
	Op      string
}

// PreHook lets callers swap or normalise the record before binding.
type PreHook func(Context, any) (any, error)

// PostHook lets callers adjust or validate the binding after it is built.
type PostHook func(Context, map[string]any) error

// CustomBinder replaces the default JSON round trip when provided.
type CustomBinder func(Context, any) (map[string]any, error)

// Option configures a Binder instance.
type Option func(*Binder)

// Binder converts record values into rule-facing bindings.
type Binder struct {
	preHooks     []PreHook
	postHooks    []PostHook
	configureDec []func(*json.Decoder)
	custom       CustomBinder
	redacted     []string
}

// WithPreHook applies hook prior to binding.
func WithPreHook(hook PreHook) Option {
	return func(b *Binder) {
		b.preHooks = append(b.preHooks, hook)
	}
}

// WithPostHook applies hook after the binding is built.
func WithPostHook(hook PostHook) Option {
	return func(b *Binder) {
		b.postHooks = append(b.postHooks, hook)
	}
}

// WithUseNumber enables json.Decoder.UseNumber during binding.
func WithUseNumber() Option {
	return func(b *Binder) {
		b.configureDec = append(b.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithRedact removes the named top-level keys from every binding.
func WithRedact(names ...string) Option {
	return func(b *Binder) {
		b.redacted = append(b.redacted, names...)
	}
}

// WithCustomBinder replaces the default JSON binding path.
func WithCustomBinder(binder CustomBinder) Option {
	return func(b *Binder) {
		b.custom = binder
	}
}

func New(opts ...Option) *Binder {
	b := &Binder{}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Bind converts record into a map binding applying configured hooks. A nil
// record binds to an empty map; a record that does not encode to a JSON
// object binds under the "value" key.
func (b *Binder) Bind(ctx Context, record any) (map[string]any, error) {
	current := record
	for _, hook := range b.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("snapshot: pre-hook for channel %q failed: %w", ctx.Channel, err)
		}
		if next != nil {
			current = next
		}
	}

	var binding map[string]any
	var err error
	if b.custom != nil {
		binding, err = b.custom(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("snapshot: custom binder for channel %q failed: %w", ctx.Channel, err)
		}
	} else {
		binding, err = b.roundTrip(ctx, current)
		if err != nil {
			return nil, err
		}
	}
	if binding == nil {
		binding = map[string]any{}
	}

	for _, name := range b.redacted {
		delete(binding, name)
	}

	for _, hook := range b.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, binding); err != nil {
			return nil, fmt.Errorf("snapshot: post-hook for channel %q failed: %w", ctx.Channel, err)
		}
	}

	return binding, nil
}

func (b *Binder) roundTrip(ctx Context, record any) (map[string]any, error) {
	if record == nil {
		return map[string]any{}, nil
	}

	buffer, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal record for channel %q: %w", ctx.Channel, err)
	}

	decode := func(target any) error {
		decoder := json.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range b.configureDec {
			if configure != nil {
				configure(decoder)
			}
		}
		return decoder.Decode(target)
	}

	var binding map[string]any
	if err := decode(&binding); err == nil {
		return binding, nil
	}

	// Not a JSON object: bind scalars, arrays, and the like under "value".
	var value any
	if err := decode(&value); err != nil {
		return nil, fmt.Errorf("snapshot: decode record for channel %q: %w", ctx.Channel, err)
	}
	return map[string]any{"value": value}, nil
}
