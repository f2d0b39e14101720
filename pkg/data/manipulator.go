// SPDX-License-Identifier: MPL-2.0

package data

import (
	"maps"
	"slices"
	"time"

	"bastion/pkg/respath"
)

type (
	// Reader is the read-only surface shared by Manipulator and Immutable.
	Reader interface {
		// Value returns the raw value stored under key, if present.
		Value(key Key) (any, bool)
		// Supports reports whether key is part of the schema.
		Supports(key Key) bool
		// Keys returns all schema keys in a stable order.
		Keys() []Key
	}

	// Manipulator is a mutable bundle of related attributes. Its schema is
	// fixed at construction; only values change afterwards.
	Manipulator struct {
		schema map[Key]struct{}
		values map[Key]any
	}

	// Immutable is a frozen snapshot of a Manipulator. Modification methods
	// return new instances and never touch the receiver.
	Immutable struct {
		schema map[Key]struct{}
		values map[Key]any
	}
)

// NewManipulator creates an empty Manipulator supporting the given keys.
func NewManipulator(keys ...Key) *Manipulator {
	schema := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		schema[k] = struct{}{}
	}
	return &Manipulator{
		schema: schema,
		values: make(map[Key]any, len(keys)),
	}
}

// Set stores value under key. It fails when key is outside the schema or
// the value does not match the key's kind.
func (m *Manipulator) Set(key Key, value any) error {
	if _, ok := m.schema[key]; !ok {
		return &UnsupportedKeyError{Key: key}
	}
	if !key.Kind().Matches(value) {
		return &KindMismatchError{Key: key, Value: value}
	}
	m.values[key] = value
	return nil
}

// Value returns the raw value stored under key, if present.
func (m *Manipulator) Value(key Key) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Supports reports whether key is part of the schema.
func (m *Manipulator) Supports(key Key) bool {
	_, ok := m.schema[key]
	return ok
}

// Remove deletes the value stored under key. Removing an absent or
// unsupported key is a no-op.
func (m *Manipulator) Remove(key Key) {
	delete(m.values, key)
}

// Keys returns all schema keys sorted by id.
func (m *Manipulator) Keys() []Key { return sortedKeys(m.schema) }

// Copy returns an independent mutable copy.
func (m *Manipulator) Copy() *Manipulator {
	return &Manipulator{
		schema: maps.Clone(m.schema),
		values: maps.Clone(m.values),
	}
}

// Immutable returns a frozen snapshot. Later changes to the receiver are not
// reflected in the snapshot, and vice versa.
func (m *Manipulator) Immutable() Immutable {
	return Immutable{
		schema: maps.Clone(m.schema),
		values: maps.Clone(m.values),
	}
}

// Value returns the raw value stored under key, if present.
func (im Immutable) Value(key Key) (any, bool) {
	v, ok := im.values[key]
	return v, ok
}

// Supports reports whether key is part of the schema.
func (im Immutable) Supports(key Key) bool {
	_, ok := im.schema[key]
	return ok
}

// Keys returns all schema keys sorted by id.
func (im Immutable) Keys() []Key { return sortedKeys(im.schema) }

// With returns a new Immutable holding value under key. The receiver is
// unchanged. It fails for unsupported keys and kind mismatches.
func (im Immutable) With(key Key, value any) (Immutable, error) {
	m := im.Mutable()
	if err := m.Set(key, value); err != nil {
		return Immutable{}, err
	}
	return m.Immutable(), nil
}

// Without returns a new Immutable with the value under key removed.
func (im Immutable) Without(key Key) Immutable {
	m := im.Mutable()
	m.Remove(key)
	return m.Immutable()
}

// Mutable returns a mutable copy of the snapshot. Changes to the copy are
// not reflected in the snapshot.
func (im Immutable) Mutable() *Manipulator {
	return &Manipulator{
		schema: maps.Clone(im.schema),
		values: maps.Clone(im.values),
	}
}

// Get retrieves a typed value from any Reader. The second return is false
// when the key is absent or holds a different type.
func Get[T any](r Reader, key Key) (T, bool) {
	var zero T
	v, ok := r.Value(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// GetBool retrieves a bool value.
func GetBool(r Reader, key Key) (bool, bool) { return Get[bool](r, key) }

// GetInt retrieves an int64 value.
func GetInt(r Reader, key Key) (int64, bool) { return Get[int64](r, key) }

// GetFloat retrieves a float64 value.
func GetFloat(r Reader, key Key) (float64, bool) { return Get[float64](r, key) }

// GetString retrieves a string value.
func GetString(r Reader, key Key) (string, bool) { return Get[string](r, key) }

// GetDuration retrieves a time.Duration value.
func GetDuration(r Reader, key Key) (time.Duration, bool) { return Get[time.Duration](r, key) }

// GetPath retrieves a respath.Path value.
func GetPath(r Reader, key Key) (respath.Path, bool) { return Get[respath.Path](r, key) }

// sortedKeys returns the schema keys ordered by id so listings are stable.
func sortedKeys(schema map[Key]struct{}) []Key {
	keys := make([]Key, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int { return a.ID().Compare(b.ID()) })
	return keys
}
