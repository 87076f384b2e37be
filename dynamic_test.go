package priv

import (
	"errors"
	"testing"
)

func TestDynamicAcceptsReferenceKeys(t *testing.T) {
	dyn := NewDynamic[string]()

	key := &account{Owner: "ada"}
	other := &account{Owner: "ada"}

	if err := dyn.Set(key, "hidden"); err != nil {
		t.Fatalf("unexpected Set error: %v", err)
	}
	value, ok, err := dyn.Get(key)
	if err != nil || !ok || value != "hidden" {
		t.Fatalf("expected hidden, got value=%q ok=%v err=%v", value, ok, err)
	}
	if _, ok, _ := dyn.Get(other); ok {
		t.Fatal("distinct allocation must miss")
	}

	// The same allocation through differently typed expressions still hits.
	var alias any = key
	if value, ok, _ := dyn.Get(alias); !ok || value != "hidden" {
		t.Fatalf("aliased key must hit, got value=%q ok=%v", value, ok)
	}
}

func TestDynamicRejectsValueKinds(t *testing.T) {
	dyn := NewDynamic[string]()

	cases := []struct {
		name string
		key  any
	}{
		{"nil", nil},
		{"int", 42},
		{"string", "key"},
		{"bool", true},
		{"float", 4.2},
		{"struct", account{Owner: "ada"}},
		{"array", [2]int{1, 2}},
		{"slice", []int{1, 2}},
		{"map", map[string]int{"a": 1}},
		{"chan", make(chan int)},
		{"func", func() {}},
		{"typed nil pointer", (*account)(nil)},
		{"zero-size pointee", &struct{}{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := dyn.Set(tc.key, "v"); !errors.Is(err, ErrInvalidKeyKind) {
				t.Fatalf("Set expected ErrInvalidKeyKind, got %v", err)
			}
			if _, _, err := dyn.Get(tc.key); !errors.Is(err, ErrInvalidKeyKind) {
				t.Fatalf("Get expected ErrInvalidKeyKind, got %v", err)
			}
			if _, err := dyn.Has(tc.key); !errors.Is(err, ErrInvalidKeyKind) {
				t.Fatalf("Has expected ErrInvalidKeyKind, got %v", err)
			}
			if _, err := dyn.Delete(tc.key); !errors.Is(err, ErrInvalidKeyKind) {
				t.Fatalf("Delete expected ErrInvalidKeyKind, got %v", err)
			}
		})
	}

	if got := dyn.core.st.size(); got != 0 {
		t.Fatalf("rejected keys must never create entries, got %d", got)
	}
}

func TestDynamicKeyKindErrorMetadata(t *testing.T) {
	dyn := NewDynamic[string](WithName("vault"))

	err := dyn.Set(42, "v")
	var keyErr *KeyKindError
	if !errors.As(err, &keyErr) {
		t.Fatalf("expected KeyKindError, got %T", err)
	}
	if keyErr.Channel != "vault" {
		t.Fatalf("expected channel vault, got %q", keyErr.Channel)
	}
	if keyErr.Kind != "int" {
		t.Fatalf("expected kind int, got %q", keyErr.Kind)
	}
}

func TestDynamicCrossTalkWithTypedChannel(t *testing.T) {
	dyn := NewDynamic[string]()
	typed := NewChannel[account, string]()

	key := &account{Owner: "ada"}
	if err := dyn.Set(key, "dynamic"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustSet(t, typed, key, "typed")

	if value, _, _ := dyn.Get(key); value != "dynamic" {
		t.Fatalf("dynamic expected dynamic, got %q", value)
	}
	if value, _, _ := typed.Get(key); value != "typed" {
		t.Fatalf("typed expected typed, got %q", value)
	}
}
