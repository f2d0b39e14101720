// SPDX-License-Identifier: MPL-2.0

package resource

import "fmt"

// PackProvider supplies packs to a Manager. Providers are queried on every
// reload, so the available set can change between reloads.
type PackProvider interface {
	// Packs returns the provided packs keyed by pack id.
	Packs() (map[string]Pack, error)
}

// ProviderFunc adapts a function to the PackProvider interface.
type ProviderFunc func() (map[string]Pack, error)

// Packs implements PackProvider.
func (f ProviderFunc) Packs() (map[string]Pack, error) { return f() }

// StaticProvider serves a fixed set of packs.
type StaticProvider struct {
	packs map[string]Pack
}

// NewStaticProvider builds a provider over the given packs. Duplicate pack
// ids are an error.
func NewStaticProvider(packs ...Pack) (*StaticProvider, error) {
	byID := make(map[string]Pack, len(packs))
	for _, p := range packs {
		if _, dup := byID[p.ID()]; dup {
			return nil, fmt.Errorf("duplicate pack id %q", p.ID())
		}
		byID[p.ID()] = p
	}
	return &StaticProvider{packs: byID}, nil
}

// Packs implements PackProvider.
func (s *StaticProvider) Packs() (map[string]Pack, error) {
	out := make(map[string]Pack, len(s.packs))
	for id, p := range s.packs {
		out[id] = p
	}
	return out, nil
}
