package priv

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidKeyKind reports a key without stable runtime identity: nil, a
// value-kinded key, or a pointer to a zero-size value. It signals misuse at
// the call site, not a runtime condition; absence is never reported through
// it.
var ErrInvalidKeyKind = errors.New("priv: key kind has no stable identity")

// ErrUninitializedChannel reports an operation on a zero-value accessor.
// Accessors exist only through their constructors.
var ErrUninitializedChannel = errors.New("priv: channel must be constructed, zero value is inert")

// KeyKindError captures channel and key metadata alongside the originating
// identity error.
type KeyKindError struct {
	Channel string
	Kind    string
	Err     error
}

func (e *KeyKindError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("priv: channel %s rejected %s key: %v", e.Channel, e.Kind, e.Err)
}

func (e *KeyKindError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrInvalidKeyKind so call sites can classify without reaching
// for the concrete type.
func (e *KeyKindError) Is(target error) bool {
	return target == ErrInvalidKeyKind
}

func wrapKeyError(channel string, key any, err error) error {
	if err == nil {
		return nil
	}
	return &KeyKindError{
		Channel: channel,
		Kind:    describeKeyKind(key),
		Err:     err,
	}
}

func describeKeyKind(key any) string {
	if key == nil {
		return "nil"
	}
	rv := reflect.ValueOf(key)
	switch {
	case rv.Kind() == reflect.Pointer && rv.IsNil():
		return "nil " + rv.Type().String()
	case rv.Kind() == reflect.Pointer:
		return rv.Type().String()
	default:
		return rv.Kind().String()
	}
}
