package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes a channel lifecycle occurrence that can be fanned out to
// hooks. Events identify channels and operations only: no field ever carries
// a key object or record contents, and hooks must not be handed either.
type Event struct {
	Verb       string
	ChannelID  string
	Channel    string
	Op         string
	Engine     string
	Rule       string
	Sink       string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized telemetry events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ChannelID == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp
// is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ChannelID = strings.TrimSpace(event.ChannelID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Op = strings.TrimSpace(event.Op)
	normalized.Engine = strings.TrimSpace(event.Engine)
	normalized.Rule = strings.TrimSpace(event.Rule)
	normalized.Sink = strings.TrimSpace(event.Sink)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
