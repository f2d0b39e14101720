// SPDX-License-Identifier: MPL-2.0

// Package registry provides typed catalogs keyed by resource path and the
// service bundle a host hands to plugins.
//
// Catalogs follow a load-phase discipline: entries are registered during
// bootstrap, then the catalog is frozen. Registration after Freeze is an
// error, so plugin load order cannot silently shadow entries.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"bastion/pkg/respath"
)

var (
	// ErrDuplicate is the sentinel error wrapped by DuplicateError.
	ErrDuplicate = errors.New("duplicate registration")

	// ErrFrozen is the sentinel error wrapped by FrozenError.
	ErrFrozen = errors.New("catalog is frozen")
)

type (
	// DuplicateError reports a second registration under an already-taken
	// id.
	DuplicateError struct {
		Catalog string
		ID      respath.Path
	}

	// FrozenError reports a registration attempted after Freeze.
	FrozenError struct {
		Catalog string
		ID      respath.Path
	}

	// Catalog is a thread-safe registry of values keyed by resource path.
	Catalog[T any] struct {
		name string

		mu      sync.RWMutex
		entries map[respath.Path]T
		frozen  bool
	}
)

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("catalog %s: id %s is already registered", e.Catalog, e.ID)
}

// Unwrap returns ErrDuplicate for errors.Is() compatibility.
func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// Error implements the error interface for FrozenError.
func (e *FrozenError) Error() string {
	return fmt.Sprintf("catalog %s: cannot register %s after freeze", e.Catalog, e.ID)
}

// Unwrap returns ErrFrozen for errors.Is() compatibility.
func (e *FrozenError) Unwrap() error { return ErrFrozen }

// NewCatalog creates an empty catalog. The name appears in error messages.
func NewCatalog[T any](name string) *Catalog[T] {
	return &Catalog[T]{
		name:    name,
		entries: make(map[respath.Path]T),
	}
}

// Name returns the catalog name.
func (c *Catalog[T]) Name() string { return c.name }

// Register adds a value under an id. Duplicate ids and registration after
// Freeze are errors.
func (c *Catalog[T]) Register(id respath.Path, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return &FrozenError{Catalog: c.name, ID: id}
	}
	if _, dup := c.entries[id]; dup {
		return &DuplicateError{Catalog: c.name, ID: id}
	}
	c.entries[id] = value
	return nil
}

// MustRegister is Register but panics on error. Intended for package-level
// bootstrap registrations.
func (c *Catalog[T]) MustRegister(id respath.Path, value T) {
	if err := c.Register(id, value); err != nil {
		panic(err)
	}
}

// Lookup returns the value registered under id.
func (c *Catalog[T]) Lookup(id respath.Path) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[id]
	return v, ok
}

// IDs returns every registered id, sorted.
func (c *Catalog[T]) IDs() []respath.Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedIDs(c.entries)
}

// All returns every registered value, sorted by id.
func (c *Catalog[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.entries))
	for _, id := range sortedIDs(c.entries) {
		out = append(out, c.entries[id])
	}
	return out
}

// Len returns the number of registered entries.
func (c *Catalog[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Freeze ends the load phase. Further registrations fail with ErrFrozen.
func (c *Catalog[T]) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether the catalog has been frozen.
func (c *Catalog[T]) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

func sortedIDs[T any](entries map[respath.Path]T) []respath.Path {
	ids := make([]respath.Path, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, respath.Path.Compare)
	return ids
}
