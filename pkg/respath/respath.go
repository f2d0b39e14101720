// SPDX-License-Identifier: MPL-2.0

// Package respath provides namespaced resource paths of the form
// "namespace:path". The namespace identifies the pack domain that owns the
// resource and the path locates it inside that domain, using forward slashes
// regardless of platform. Both parts are restricted to lowercase characters
// so that paths are stable across case-insensitive filesystems.
package respath

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultNamespace is used when a path string omits the namespace part.
	DefaultNamespace = "core"

	// Separator divides the namespace from the path in the string form.
	Separator = ':'

	// MetaSuffix is appended to a resource path to derive the location of
	// its sidecar metadata resource.
	MetaSuffix = ".meta"

	// DataDir is the pack-relative directory that roots all resources.
	DataDir = "data"
)

// ErrInvalidPath is the sentinel error wrapped by InvalidPathError.
var ErrInvalidPath = errors.New("invalid resource path")

type (
	// Path is a validated namespace+path pair. The zero value is invalid;
	// construct values with Of or Parse.
	Path struct {
		namespace string
		value     string
	}

	// InvalidPathError is returned when a namespace or path contains
	// characters outside the allowed set, or when the path is empty or
	// escapes its root.
	InvalidPathError struct {
		Input  string
		Reason string
	}
)

// Error implements the error interface for InvalidPathError.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid resource path %q: %s", e.Input, e.Reason)
}

// Unwrap returns ErrInvalidPath for errors.Is() compatibility.
func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }

// Of creates a Path from a namespace and a path value. An empty namespace
// falls back to DefaultNamespace.
func Of(namespace, value string) (Path, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if err := validateNamespace(namespace); err != nil {
		return Path{}, err
	}
	if err := validateValue(value); err != nil {
		return Path{}, err
	}
	return Path{namespace: namespace, value: value}, nil
}

// MustOf is like Of but panics on invalid input. It is intended for
// package-level key and catalog declarations where the inputs are literals.
func MustOf(namespace, value string) Path {
	p, err := Of(namespace, value)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse parses the string form "namespace:path". When the namespace and the
// separator are omitted, DefaultNamespace is assumed. Multiple separators are
// rejected.
func Parse(s string) (Path, error) {
	if strings.Count(s, string(Separator)) > 1 {
		return Path{}, &InvalidPathError{Input: s, Reason: "more than one ':' separator"}
	}
	namespace, value, found := strings.Cut(s, string(Separator))
	if !found {
		return Of("", s)
	}
	return Of(namespace, value)
}

// ParseIn is Parse with a configurable fallback namespace: a string
// without a separator resolves into namespace rather than
// DefaultNamespace. An empty namespace falls back to DefaultNamespace.
func ParseIn(namespace, s string) (Path, error) {
	if strings.Count(s, string(Separator)) > 1 {
		return Path{}, &InvalidPathError{Input: s, Reason: "more than one ':' separator"}
	}
	ns, value, found := strings.Cut(s, string(Separator))
	if !found {
		return Of(namespace, s)
	}
	return Of(ns, value)
}

// Namespace returns the namespace part.
func (p Path) Namespace() string { return p.namespace }

// Value returns the path part.
func (p Path) Value() string { return p.value }

// String returns the fully qualified "namespace:path" form.
func (p Path) String() string {
	return p.namespace + string(Separator) + p.value
}

// IsZero reports whether p is the invalid zero value.
func (p Path) IsZero() bool { return p.namespace == "" && p.value == "" }

// Compare orders paths by namespace first, then by path value. It returns a
// negative number, zero, or a positive number following strings.Compare.
func (p Path) Compare(other Path) int {
	if c := strings.Compare(p.namespace, other.namespace); c != 0 {
		return c
	}
	return strings.Compare(p.value, other.value)
}

// Meta returns the path of the sidecar metadata resource, formed by
// appending MetaSuffix to the path value.
func (p Path) Meta() Path {
	return Path{namespace: p.namespace, value: p.value + MetaSuffix}
}

// FilePath returns the slash-separated pack-relative location of the
// resource: "data/<namespace>/<path>".
func (p Path) FilePath() string {
	return DataDir + "/" + p.namespace + "/" + p.value
}

// validateNamespace checks that the namespace uses only lowercase letters,
// digits, underscores, hyphens, and dots.
func validateNamespace(namespace string) error {
	if namespace == "" {
		return &InvalidPathError{Input: namespace, Reason: "namespace is empty"}
	}
	for _, r := range namespace {
		if !isAllowed(r) {
			return &InvalidPathError{
				Input:  namespace,
				Reason: fmt.Sprintf("namespace contains disallowed character %q", r),
			}
		}
	}
	// "." and ".." would escape the data root once joined into a file path.
	if strings.Trim(namespace, ".") == "" {
		return &InvalidPathError{Input: namespace, Reason: "namespace consists only of dots"}
	}
	return nil
}

// validateValue checks the path part: namespace characters plus '/', no
// empty segments, and no '.'/'..' segments that could escape the pack root.
func validateValue(value string) error {
	if value == "" {
		return &InvalidPathError{Input: value, Reason: "path is empty"}
	}
	for _, r := range value {
		if r != '/' && !isAllowed(r) {
			return &InvalidPathError{
				Input:  value,
				Reason: fmt.Sprintf("path contains disallowed character %q", r),
			}
		}
	}
	for _, seg := range strings.Split(value, "/") {
		switch seg {
		case "":
			return &InvalidPathError{Input: value, Reason: "path contains an empty segment"}
		case ".", "..":
			return &InvalidPathError{Input: value, Reason: "path segments '.' and '..' are not allowed"}
		}
	}
	return nil
}

// isAllowed reports whether r is valid in a namespace or path segment.
// Uppercase letters are rejected so paths stay stable on case-insensitive
// filesystems.
func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.':
		return true
	default:
		return false
	}
}
