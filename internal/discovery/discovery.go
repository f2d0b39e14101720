// SPDX-License-Identifier: MPL-2.0

// Package discovery handles finding and loading packs from various locations.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"bastion/internal/config"
	"bastion/pkg/resource"
)

// PackCollisionError is returned when two packs have the same pack identifier.
type PackCollisionError struct {
	PackID       string
	FirstSource  string
	SecondSource string
}

// Error implements the error interface.
func (e *PackCollisionError) Error() string {
	return fmt.Sprintf(
		"pack id collision: '%s' defined in both:\n"+
			"  - %s\n"+
			"  - %s\n\n"+
			"Use a pack alias to disambiguate, e.g. in config.cue:\n"+
			"  pack_aliases: {%q: \"<new-id>\"}",
		e.PackID, e.FirstSource, e.SecondSource,
		e.SecondSource)
}

// Source represents where a pack was found
type Source int

const (
	// SourceCurrentDir indicates the pack was found in the current directory
	SourceCurrentDir Source = iota
	// SourceUserDir indicates the pack was found in ~/.bastion/packs
	SourceUserDir
	// SourceConfigPath indicates the pack was found in a configured search path
	SourceConfigPath
)

// String returns a human-readable source name
func (s Source) String() string {
	switch s {
	case SourceCurrentDir:
		return "current directory"
	case SourceUserDir:
		return "user packs (~/.bastion/packs)"
	case SourceConfigPath:
		return "configured search path"
	default:
		return "unknown"
	}
}

// DiscoveredPack represents a found pack with its source
type DiscoveredPack struct {
	// Path is the absolute path to the pack directory
	Path string
	// Source indicates where the pack was found
	Source Source
	// Pack is the opened pack (nil if opening failed)
	Pack *resource.DirPack
	// Error contains any error that occurred while opening the pack
	Error error
}

// Discovery handles finding packs
type Discovery struct {
	cfg *config.Config
}

// New creates a new Discovery instance
func New(cfg *config.Config) *Discovery {
	return &Discovery{cfg: cfg}
}

// DiscoverAll finds all packs from all sources in order of precedence.
// Broken packs are included with Error set so callers can report them;
// a pack directory seen from more than one source is only listed once
// (the higher-precedence source wins).
func (d *Discovery) DiscoverAll() ([]*DiscoveredPack, error) {
	var packs []*DiscoveredPack
	seen := make(map[string]bool) // abs pack path -> already listed

	// 1. Packs in current directory (highest precedence)
	packs = append(packs, d.discoverPacksInDir(".", SourceCurrentDir, seen)...)

	// 2. User packs directory (~/.bastion/packs)
	userDir, err := config.PacksDir()
	if err == nil {
		packs = append(packs, d.discoverPacksInDir(userDir, SourceUserDir, seen)...)
	}

	// 3. Configured search paths
	for _, searchPath := range d.cfg.SearchPaths {
		// A search path may point directly at a pack directory.
		if searchPath.IsPack() {
			if p := d.openPack(string(searchPath), SourceConfigPath, seen); p != nil {
				packs = append(packs, p)
			}
			continue
		}
		packs = append(packs, d.discoverPacksInDir(string(searchPath), SourceConfigPath, seen)...)
	}

	return packs, nil
}

// discoverPacksInDir finds all packs among the immediate subdirectories of
// dir (packs are not nested).
func (d *Discovery) discoverPacksInDir(dir string, source Source, seen map[string]bool) []*DiscoveredPack {
	var packs []*DiscoveredPack

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return packs
	}

	// Check if directory exists
	if _, err := os.Stat(absDir); os.IsNotExist(err) {
		return packs
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return packs
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		entryPath := filepath.Join(absDir, entry.Name())
		if !resource.IsPack(entryPath) {
			continue
		}

		if p := d.openPack(entryPath, source, seen); p != nil {
			packs = append(packs, p)
		}
	}

	return packs
}

// openPack opens a single pack directory, recording failures instead of
// dropping them. Returns nil if the path was already discovered.
func (d *Discovery) openPack(path string, source Source, seen map[string]bool) *DiscoveredPack {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	if seen[absPath] {
		return nil
	}
	seen[absPath] = true

	p, err := resource.OpenDir(absPath)
	if err != nil {
		return &DiscoveredPack{Path: absPath, Source: source, Error: err}
	}

	return &DiscoveredPack{Path: absPath, Source: source, Pack: p}
}

// EffectiveID returns the pack id used for registration, considering aliases.
func (d *Discovery) EffectiveID(dp *DiscoveredPack) string {
	if dp.Pack == nil {
		return ""
	}

	packID := dp.Pack.ID()

	// Check if there's an alias configured for this path
	if d.cfg != nil && d.cfg.PackAliases != nil {
		if alias, ok := d.cfg.PackAliases[dp.Path]; ok {
			return string(alias)
		}
	}

	return packID
}

// CheckCollisions checks for pack id collisions among discovered packs.
// It returns a PackCollisionError if two packs resolve to the same effective
// id after aliases are applied.
func (d *Discovery) CheckCollisions(packs []*DiscoveredPack) error {
	packSources := make(map[string]string)

	for _, dp := range packs {
		if dp.Error != nil || dp.Pack == nil {
			continue
		}

		packID := d.EffectiveID(dp)
		if packID == "" {
			continue
		}

		if existingSource, exists := packSources[packID]; exists {
			return &PackCollisionError{
				PackID:       packID,
				FirstSource:  existingSource,
				SecondSource: dp.Path,
			}
		}

		packSources[packID] = dp.Path
	}

	return nil
}

// Provider adapts discovery to the resource manager's pack provider
// interface. Each Packs() call re-runs discovery, so newly installed packs
// appear on the next reload.
func (d *Discovery) Provider() resource.PackProvider {
	return resource.ProviderFunc(func() (map[string]resource.Pack, error) {
		discovered, err := d.DiscoverAll()
		if err != nil {
			return nil, err
		}

		if err := d.CheckCollisions(discovered); err != nil {
			return nil, err
		}

		packs := make(map[string]resource.Pack)
		for _, dp := range discovered {
			if dp.Error != nil || dp.Pack == nil {
				continue
			}
			packs[d.EffectiveID(dp)] = dp.Pack
		}

		return packs, nil
	})
}
