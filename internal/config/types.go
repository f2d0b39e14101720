// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// packSuffix is the filesystem suffix for pack directories.
	// Defined locally to avoid coupling config to pkg/resource.
	packSuffix = ".bpack"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidSearchPath is the sentinel error wrapped by InvalidSearchPathError.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidPackAlias is the sentinel error wrapped by InvalidPackAliasError.
	ErrInvalidPackAlias = errors.New("invalid pack alias")
	// ErrInvalidNamespace is the sentinel error wrapped by InvalidNamespaceError.
	ErrInvalidNamespace = errors.New("invalid namespace")

	// packAliasRegex mirrors the pack id grammar. Defined locally to avoid
	// coupling config to pkg/resource.
	packAliasRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)

	// namespaceRegex mirrors the resource namespace grammar. Defined locally
	// to avoid coupling config to pkg/respath.
	namespaceRegex = regexp.MustCompile(`^[a-z0-9_.-]+$`)
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// SearchPath represents a filesystem path to a directory scanned for
	// *.bpack packs. A valid path must be non-empty and not whitespace-only.
	SearchPath string

	// InvalidSearchPathError is returned when a SearchPath value is
	// empty or whitespace-only. It wraps ErrInvalidSearchPath for errors.Is().
	InvalidSearchPathError struct {
		Value SearchPath
	}

	// PackAlias is an alternate pack identifier used to disambiguate two
	// packs that share the same id. It must follow the pack id grammar.
	PackAlias string

	// InvalidPackAliasError is returned when a PackAlias value does not
	// follow the pack id grammar. It wraps ErrInvalidPackAlias for errors.Is().
	InvalidPackAliasError struct {
		Value PackAlias
	}

	// Namespace is a resource namespace used when resolving unqualified
	// resource paths.
	Namespace string

	// InvalidNamespaceError is returned when a Namespace value contains
	// disallowed characters. It wraps ErrInvalidNamespace for errors.Is().
	InvalidNamespaceError struct {
		Value Namespace
	}

	// WatchConfig configures automatic reload on pack changes.
	WatchConfig struct {
		// Enabled turns the filesystem watcher on.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Debounce is the quiet period before a change triggers a reload.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultNamespace is used when resolving unqualified resource paths.
		DefaultNamespace Namespace `json:"default_namespace" mapstructure:"default_namespace"`
		// SearchPaths lists extra directories scanned for packs.
		SearchPaths []SearchPath `json:"search_paths" mapstructure:"search_paths"`
		// PackAliases maps a pack directory path to an alternate pack id,
		// disambiguating packs that share the same id.
		PackAliases map[string]PackAlias `json:"pack_aliases" mapstructure:"pack_aliases"`
		// Watch configures automatic reload on pack changes.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q: must be one of %q, %q, %q",
		string(e.Value), ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
}

// Unwrap returns the sentinel ErrInvalidColorScheme.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidSearchPathError) Error() string {
	return fmt.Sprintf("invalid search path %q: must be non-empty", string(e.Value))
}

// Unwrap returns the sentinel ErrInvalidSearchPath.
func (e *InvalidSearchPathError) Unwrap() error { return ErrInvalidSearchPath }

// Error implements the error interface.
func (e *InvalidPackAliasError) Error() string {
	return fmt.Sprintf("invalid pack alias %q: must start with a lowercase letter and contain only lowercase alphanumerics with optional dot-separated segments", string(e.Value))
}

// Unwrap returns the sentinel ErrInvalidPackAlias.
func (e *InvalidPackAliasError) Unwrap() error { return ErrInvalidPackAlias }

// Error implements the error interface.
func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: only lowercase alphanumerics, '_', '-' and '.' are allowed", string(e.Value))
}

// Unwrap returns the sentinel ErrInvalidNamespace.
func (e *InvalidNamespaceError) Unwrap() error { return ErrInvalidNamespace }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// String returns the string representation of the SearchPath.
func (p SearchPath) String() string { return string(p) }

// IsValid returns whether the SearchPath is non-empty after trimming
// whitespace, and a list of validation errors if it is not.
func (p SearchPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidSearchPathError{Value: p}}
	}
	return true, nil
}

// IsPack reports whether this path points directly at a pack directory
// (.bpack) rather than a directory of packs.
func (p SearchPath) IsPack() bool {
	return strings.HasSuffix(string(p), packSuffix)
}

// String returns the string representation of the PackAlias.
func (a PackAlias) String() string { return string(a) }

// IsValid returns whether the PackAlias follows the pack id grammar,
// and a list of validation errors if it does not. The zero value is valid
// and means "no alias".
func (a PackAlias) IsValid() (bool, []error) {
	if a == "" {
		return true, nil
	}
	if !packAliasRegex.MatchString(string(a)) {
		return false, []error{&InvalidPackAliasError{Value: a}}
	}
	return true, nil
}

// String returns the string representation of the Namespace.
func (n Namespace) String() string { return string(n) }

// IsValid returns whether the Namespace contains only allowed characters,
// and a list of validation errors if it does not.
func (n Namespace) IsValid() (bool, []error) {
	if !namespaceRegex.MatchString(string(n)) {
		return false, []error{&InvalidNamespaceError{Value: n}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultNamespace: "core",
		SearchPaths:      []SearchPath{},
		PackAliases:      map[string]PackAlias{},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
