// SPDX-License-Identifier: MPL-2.0

// Package data provides typed keys and the mutable/immutable manipulator
// bundles that read and write them. A Key is a registry token naming one
// attribute of a game object; a Manipulator groups a fixed schema of keys
// and holds their values. Manipulators convert freely between mutable and
// immutable forms without ever sharing backing state.
package data

import (
	"errors"
	"fmt"

	"bastion/pkg/respath"
)

var (
	// ErrUnsupportedKey is the sentinel error wrapped by UnsupportedKeyError.
	ErrUnsupportedKey = errors.New("unsupported key")

	// ErrKindMismatch is the sentinel error wrapped by KindMismatchError.
	ErrKindMismatch = errors.New("value kind mismatch")
)

type (
	// Key is a typed registry token pointing to a named attribute. Keys are
	// comparable values; two keys are the same attribute iff their ids and
	// kinds are equal.
	Key struct {
		id   respath.Path
		kind Kind
	}

	// UnsupportedKeyError is returned when a manipulator is asked to store
	// or derive a key outside its schema.
	UnsupportedKeyError struct {
		Key Key
	}

	// KindMismatchError is returned when a value does not match the kind
	// declared by its key.
	KindMismatchError struct {
		Key   Key
		Value any
	}
)

// NewKey creates a Key with the given id and value kind.
func NewKey(id respath.Path, kind Kind) Key {
	return Key{id: id, kind: kind}
}

// ID returns the key's registry id.
func (k Key) ID() respath.Path { return k.id }

// Kind returns the kind of values the key holds.
func (k Key) Kind() Kind { return k.kind }

// String returns the key's id string.
func (k Key) String() string { return k.id.String() }

// Error implements the error interface for UnsupportedKeyError.
func (e *UnsupportedKeyError) Error() string {
	return fmt.Sprintf("key %q is not supported by this manipulator", e.Key)
}

// Unwrap returns ErrUnsupportedKey for errors.Is() compatibility.
func (e *UnsupportedKeyError) Unwrap() error { return ErrUnsupportedKey }

// Error implements the error interface for KindMismatchError.
func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("key %q expects a %s value, got %T", e.Key, e.Key.Kind(), e.Value)
}

// Unwrap returns ErrKindMismatch for errors.Is() compatibility.
func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }
