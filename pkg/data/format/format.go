// SPDX-License-Identifier: MPL-2.0

// Package format provides the pluggable codecs used to decode structured
// resources (and their sidecar metadata) into generic tree views. A view is
// a map[string]any as produced by the respective unmarshaller; callers
// navigate it with the helpers in this package.
package format

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrUnknownFormat is the sentinel error wrapped by UnknownFormatError.
var ErrUnknownFormat = errors.New("unknown data format")

type (
	// View is a decoded structured document.
	View = map[string]any

	// Format decodes and encodes structured documents.
	Format interface {
		// Name returns the registry name of the format (e.g. "json").
		Name() string
		// Extensions returns the file extensions the format claims,
		// including the leading dot.
		Extensions() []string
		// Decode reads a document from r.
		Decode(r io.Reader) (View, error)
		// Encode writes a document to w.
		Encode(w io.Writer, v View) error
	}

	// UnknownFormatError is returned when a format name or extension has no
	// registered codec.
	UnknownFormatError struct {
		Name string
	}
)

// Error implements the error interface for UnknownFormatError.
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown data format %q", e.Name)
}

// Unwrap returns ErrUnknownFormat for errors.Is() compatibility.
func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

var (
	mu       sync.RWMutex
	registry = make(map[string]Format)
	byExt    = make(map[string]Format)
)

// Register makes a format available by name and by its extensions. Later
// registrations replace earlier ones with the same name or extension.
func Register(f Format) {
	mu.Lock()
	defer mu.Unlock()
	registry[f.Name()] = f
	for _, ext := range f.Extensions() {
		byExt[ext] = f
	}
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, &UnknownFormatError{Name: name}
	}
	return f, nil
}

// ByExtension returns the format claiming the given file extension
// (including the leading dot).
func ByExtension(ext string) (Format, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := byExt[ext]
	if !ok {
		return nil, &UnknownFormatError{Name: ext}
	}
	return f, nil
}

// Names returns the registered format names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(jsonFormat{})
	Register(yamlFormat{})
	Register(tomlFormat{})
	Register(cborFormat{})
}
