// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"sync"

	"bastion/pkg/data"
	"bastion/pkg/data/format"
	"bastion/pkg/data/keys"
	"bastion/pkg/param"
	"bastion/pkg/resource"
	"bastion/pkg/respath"
)

// Registry is the service bundle a host hands to plugins: the key catalog,
// the value-parser catalog, the data formats, and the resource manager.
type Registry struct {
	keys    *Catalog[data.Key]
	parsers *Catalog[param.ValueParser]

	mu      sync.RWMutex
	manager *resource.Manager
}

// New creates an empty Registry with fresh catalogs.
func New() *Registry {
	return &Registry{
		keys:    NewCatalog[data.Key]("keys"),
		parsers: NewCatalog[param.ValueParser]("parsers"),
	}
}

// Keys returns the key catalog.
func (r *Registry) Keys() *Catalog[data.Key] { return r.keys }

// Parsers returns the value-parser catalog.
func (r *Registry) Parsers() *Catalog[param.ValueParser] { return r.parsers }

// Formats returns the names of the registered data formats.
func (r *Registry) Formats() []string { return format.Names() }

// Format looks up a data format by name.
func (r *Registry) Format(name string) (format.Format, error) {
	return format.Lookup(name)
}

// SetManager installs the resource manager served by Resources.
func (r *Registry) SetManager(m *resource.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manager = m
}

// Resources returns the installed resource manager, or nil before
// SetManager.
func (r *Registry) Resources() *resource.Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manager
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the well-known keys and
// the standard value parsers pre-registered. The standard catalogs are
// left unfrozen so a host can add its own entries before calling Freeze.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		for _, k := range keys.All() {
			defaultReg.keys.MustRegister(k.ID(), k)
		}
		registerStandardParsers(defaultReg.parsers)
		defaultReg.parsers.MustRegister(
			respath.MustOf(respath.DefaultNamespace, "key"),
			param.LookupValue("key", defaultReg.keys.Lookup),
		)
	})
	return defaultReg
}

// registerStandardParsers fills a parser catalog with the built-in value
// parsers under core-namespace ids.
func registerStandardParsers(c *Catalog[param.ValueParser]) {
	std := map[string]param.ValueParser{
		"bool":          param.BoolValue(),
		"int":           param.IntValue(),
		"float":         param.FloatValue(),
		"string":        param.StringValue(),
		"duration":      param.DurationValue(),
		"remaining":     param.RemainingValue(),
		"remaining_raw": param.RemainingRawValue(),
		"path":          param.PathValue(),
	}
	for name, parser := range std {
		c.MustRegister(respath.MustOf(respath.DefaultNamespace, name), parser)
	}
}
