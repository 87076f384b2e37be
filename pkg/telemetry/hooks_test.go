package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, second}

	event := Event{Verb: VerbChannelCreated, ChannelID: "chan-1", Channel: "vault"}
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	for _, hook := range []*CaptureHook{first, second} {
		captured := hook.Captured()
		if len(captured) != 1 {
			t.Fatalf("expected 1 event, got %d", len(captured))
		}
		if captured[0].Verb != VerbChannelCreated || captured[0].ChannelID != "chan-1" {
			t.Fatalf("unexpected event: %+v", captured[0])
		}
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	failing := &CaptureHook{Err: errors.New("sink down")}
	healthy := &CaptureHook{}
	hooks := Hooks{failing, healthy}

	err := hooks.Notify(context.Background(), Event{Verb: VerbEntryEvicted, ChannelID: "chan-1"})
	if !errors.Is(err, failing.Err) {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if len(healthy.Captured()) != 1 {
		t.Fatal("a failing hook must not starve the others")
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	cases := []Event{
		{ChannelID: "chan-1"},
		{Verb: VerbChannelCreated},
		{Verb: "   ", ChannelID: "chan-1"},
	}
	for _, event := range cases {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(capture.Captured()) != 0 {
		t.Fatal("events without verb and channel id must be dropped")
	}
}

func TestHooksEnabled(t *testing.T) {
	if (Hooks{}).Enabled() {
		t.Fatal("empty hooks must be disabled")
	}
	if !(Hooks{&CaptureHook{}}).Enabled() {
		t.Fatal("non-empty hooks must be enabled")
	}
}

func TestNormalizeEvent(t *testing.T) {
	metadata := map[string]any{"k": "v"}
	event := Event{
		Verb:      "  channel.created ",
		ChannelID: " chan-1 ",
		Channel:   " vault ",
		Metadata:  metadata,
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb != VerbChannelCreated || normalized.ChannelID != "chan-1" || normalized.Channel != "vault" {
		t.Fatalf("fields must be trimmed: %+v", normalized)
	}
	if normalized.OccurredAt.IsZero() {
		t.Fatal("timestamp must be defaulted")
	}

	normalized.Metadata["k"] = "changed"
	if metadata["k"] != "v" {
		t.Fatal("metadata must be cloned, not shared")
	}
}

func TestNormalizeEventKeepsTimestamp(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	normalized := NormalizeEvent(Event{Verb: VerbChannelCreated, ChannelID: "c", OccurredAt: at})
	if !normalized.OccurredAt.Equal(at) {
		t.Fatalf("explicit timestamps must be kept, got %v", normalized.OccurredAt)
	}
}

func TestEmitterAppliesDefaultSink(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	if err := emitter.Emit(context.Background(), Event{Verb: VerbChannelCreated, ChannelID: "chan-1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	captured := capture.Captured()
	if len(captured) != 1 {
		t.Fatalf("expected 1 event, got %d", len(captured))
	}
	if captured[0].Sink != "privatestate" {
		t.Fatalf("expected default sink, got %q", captured[0].Sink)
	}
}

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}

	cases := []struct {
		name    string
		emitter *Emitter
	}{
		{"disabled config", NewEmitter(Hooks{capture}, Config{Enabled: false})},
		{"no hooks", NewEmitter(nil, Config{Enabled: true})},
		{"nil emitter", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.emitter.Enabled() {
				t.Fatal("emitter must be disabled")
			}
			if err := tc.emitter.Emit(context.Background(), Event{Verb: VerbChannelCreated, ChannelID: "c"}); err != nil {
				t.Fatalf("disabled emit must be a no-op, got %v", err)
			}
		})
	}
	if len(capture.Captured()) != 0 {
		t.Fatal("disabled emitters must not notify hooks")
	}
}

func TestEmitterCustomSinkWins(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Sink: "audit"})

	event := Event{Verb: VerbRecordRejected, ChannelID: "chan-1", Sink: "override"}
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := capture.Captured()[0].Sink; got != "override" {
		t.Fatalf("event sink must win over emitter default, got %q", got)
	}
}

func TestBuildChannelEvents(t *testing.T) {
	input := ChannelEventInput{
		ChannelID: "chan-1",
		Channel:   "vault",
		Op:        "set",
		Engine:    "expr",
		Rule:      "record.size < 100.0",
	}

	cases := []struct {
		verb  string
		build func(ChannelEventInput) Event
	}{
		{VerbChannelCreated, BuildChannelCreatedEvent},
		{VerbRecordRejected, BuildRecordRejectedEvent},
		{VerbEntryEvicted, BuildEntryEvictedEvent},
	}
	for _, tc := range cases {
		t.Run(tc.verb, func(t *testing.T) {
			event := tc.build(input)
			if event.Verb != tc.verb {
				t.Fatalf("expected verb %q, got %q", tc.verb, event.Verb)
			}
			if event.ChannelID != "chan-1" || event.Channel != "vault" {
				t.Fatalf("unexpected identifiers: %+v", event)
			}
			if event.OccurredAt.IsZero() {
				t.Fatal("built events must carry a timestamp")
			}
		})
	}
}
