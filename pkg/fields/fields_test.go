package fields

import (
	"errors"
	"runtime"
	"testing"
	"time"
	"weak"

	priv "github.com/goliatone/go-privatestate"
)

type widget struct {
	Label string
}

func mustGroup(t *testing.T, names ...string) *Group[widget] {
	t.Helper()
	group, err := New[widget](names...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return group
}

func TestNewValidatesNames(t *testing.T) {
	if _, err := New[widget](); err == nil {
		t.Fatal("a group needs at least one field")
	}
	if _, err := New[widget](""); err == nil {
		t.Fatal("empty field names must be rejected")
	}
	if _, err := New[widget]("count", "count"); err == nil {
		t.Fatal("duplicate field names must be rejected")
	}
}

func TestBindOncePerKey(t *testing.T) {
	group := mustGroup(t, "count")
	key := &widget{Label: "a"}

	if err := group.Bind(key); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := group.Bind(key); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}

	bound, err := group.Bound(key)
	if err != nil || !bound {
		t.Fatalf("expected bound key, got bound=%v err=%v", bound, err)
	}
	other := &widget{Label: "b"}
	if bound, _ := group.Bound(other); bound {
		t.Fatal("unbound key must report false")
	}
}

func TestFieldGetSet(t *testing.T) {
	group := mustGroup(t, "count", "note")
	key := &widget{Label: "a"}
	if err := group.Bind(key); err != nil {
		t.Fatalf("bind: %v", err)
	}

	count, err := group.Field("count")
	if err != nil {
		t.Fatalf("field: %v", err)
	}

	// Declared fields start as nil.
	value, err := count.Get(key)
	if err != nil || value != nil {
		t.Fatalf("expected nil initial value, got value=%v err=%v", value, err)
	}

	if err := count.Set(key, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err = count.Get(key)
	if err != nil || value != 7 {
		t.Fatalf("expected 7, got value=%v err=%v", value, err)
	}

	note, err := group.Field("note")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if value, _ := note.Get(key); value != nil {
		t.Fatal("fields must not leak into one another")
	}
}

func TestFieldAccessRequiresBinding(t *testing.T) {
	group := mustGroup(t, "count")
	count, err := group.Field("count")
	if err != nil {
		t.Fatalf("field: %v", err)
	}

	key := &widget{Label: "never bound"}
	if _, err := count.Get(key); !errors.Is(err, ErrNotBound) {
		t.Fatalf("expected ErrNotBound, got %v", err)
	}
	if err := count.Set(key, 1); !errors.Is(err, ErrNotBound) {
		t.Fatalf("expected ErrNotBound, got %v", err)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	group := mustGroup(t, "count")
	if _, err := group.Field("balance"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestGroupsAreIndependent(t *testing.T) {
	first := mustGroup(t, "count")
	second := mustGroup(t, "count")

	key := &widget{Label: "shared"}
	if err := first.Bind(key); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if bound, _ := second.Bound(key); bound {
		t.Fatal("binding to one group must not bind to another")
	}

	firstCount, _ := first.Field("count")
	if err := firstCount.Set(key, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	secondCount, _ := second.Field("count")
	if _, err := secondCount.Get(key); !errors.Is(err, ErrNotBound) {
		t.Fatalf("expected ErrNotBound on the other group, got %v", err)
	}
}

func TestFieldErrorsPropagateKeyRejection(t *testing.T) {
	group := mustGroup(t, "count")
	if err := group.Bind(nil); !errors.Is(err, priv.ErrInvalidKeyKind) {
		t.Fatalf("expected ErrInvalidKeyKind, got %v", err)
	}
}

func TestZeroValueGroupIsInert(t *testing.T) {
	var group Group[widget]
	key := &widget{}
	if err := group.Bind(key); err == nil {
		t.Fatal("zero-value group must refuse binds")
	}
	if _, err := group.Field("count"); err == nil {
		t.Fatal("zero-value group must refuse field handles")
	}

	var field Field[widget]
	if _, err := field.Get(key); err == nil {
		t.Fatal("zero-value field handle must refuse access")
	}
}

func TestGroupDoesNotKeepKeysAlive(t *testing.T) {
	group := mustGroup(t, "count")

	probe := func() weak.Pointer[widget] {
		key := &widget{Label: "ephemeral"}
		if err := group.Bind(key); err != nil {
			t.Fatalf("bind: %v", err)
		}
		return weak.Make(key)
	}()

	deadline := time.Now().Add(10 * time.Second)
	for probe.Value() != nil {
		runtime.GC()
		if time.Now().After(deadline) {
			t.Fatal("bound key was not reclaimed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
