// Package identity resolves arbitrary key objects to weak, comparable
// allocation handles. It is the only package that touches unsafe and the
// runtime's weak-reference machinery; everything above it deals in Ref
// values.
package identity

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"unsafe"
	"weak"
)

var (
	// ErrNilKey reports a nil key, which names no allocation.
	ErrNilKey = errors.New("identity: nil key")

	// ErrUnstableIdentity reports a pointer to a zero-size value. Distinct
	// zero-size allocations may share an address, so they carry no usable
	// identity.
	ErrUnstableIdentity = errors.New("identity: zero-size value has no stable identity")
)

// KindError reports a key whose runtime kind carries value semantics rather
// than reference identity.
type KindError struct {
	Kind reflect.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("identity: %s key has value semantics, want pointer", e.Kind)
}

// Ref is a weak handle for one heap allocation. Refs compare equal exactly
// when they were created from equal pointers, and a Ref never keeps its
// allocation alive. A Ref created after an allocation is reclaimed and its
// address reused never compares equal to a Ref for the old allocation.
type Ref struct {
	p weak.Pointer[byte]
}

// Of validates key and returns its Ref. Only pointer-kinded keys with a
// non-zero-size pointee are accepted.
func Of(key any) (Ref, error) {
	if key == nil {
		return Ref{}, ErrNilKey
	}
	rv := reflect.ValueOf(key)
	if rv.Kind() != reflect.Pointer {
		return Ref{}, &KindError{Kind: rv.Kind()}
	}
	if rv.IsNil() {
		return Ref{}, ErrNilKey
	}
	if rv.Type().Elem().Size() == 0 {
		return Ref{}, ErrUnstableIdentity
	}
	return refOf(rv.UnsafePointer()), nil
}

// FromPointer is the static-dispatch path used by typed accessors. It skips
// reflection on the key value; only the nil and zero-size checks remain.
func FromPointer[K any](key *K) (Ref, error) {
	if key == nil {
		return Ref{}, ErrNilKey
	}
	if reflect.TypeFor[K]().Size() == 0 {
		return Ref{}, ErrUnstableIdentity
	}
	return refOf(unsafe.Pointer(key)), nil
}

func refOf(p unsafe.Pointer) Ref {
	return Ref{p: weak.Make((*byte)(p))}
}

// Alive reports whether the referenced allocation is still reachable.
func (r Ref) Alive() bool {
	return r.p.Value() != nil
}

// Watch registers fn to run after key's allocation becomes unreachable.
// The key must already have passed Of; fn runs at most once, on the
// runtime's cleanup goroutine, at an arbitrary later time.
func Watch(key any, fn func()) {
	rv := reflect.ValueOf(key)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	watch(rv.UnsafePointer(), fn)
}

// WatchPointer is the typed counterpart of Watch.
func WatchPointer[K any](key *K, fn func()) {
	if key == nil {
		return
	}
	watch(unsafe.Pointer(key), fn)
}

func watch(p unsafe.Pointer, fn func()) {
	runtime.AddCleanup((*byte)(p), func(fn func()) { fn() }, fn)
}
