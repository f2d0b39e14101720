// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"bastion/pkg/platform"
	"bastion/pkg/respath"
)

// PackSuffix is the standard suffix for pack directories and archive roots.
const PackSuffix = ".bpack"

// packNameRegex validates the pack folder name prefix (before .bpack).
// Lowercase alphanumerics starting with a letter, with optional
// dot-separated segments, so pack ids stay usable as resource namespaces.
var packNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)

// Pack is a bundle of resources. Implementations are safe for concurrent
// reads.
type Pack interface {
	// ID returns the pack identifier from its metadata.
	ID() string
	// Info returns the pack metadata.
	Info() Metadata
	// Open opens the resource at the given path. It returns an error
	// matching fs.ErrNotExist when the pack has no such resource.
	Open(p respath.Path) (io.ReadCloser, error)
	// Exists reports whether the pack provides the resource.
	Exists(p respath.Path) bool
	// Namespaces returns the namespaces the pack provides resources in.
	Namespaces() ([]string, error)
	// List returns every resource path in the given namespace.
	List(namespace string) ([]respath.Path, error)
	// Close releases resources held by the pack.
	Close() error
}

// fsPack serves resources out of an fs.FS rooted at the pack directory.
// Both the directory and archive implementations build on it.
type fsPack struct {
	meta Metadata
	fsys fs.FS
}

// DirPack is a pack rooted at a filesystem directory.
type DirPack struct {
	fsPack
	// Path is the absolute path to the pack directory.
	Path string
}

// ZipPack is a pack read from a ZIP archive whose root entry is a .bpack
// directory.
type ZipPack struct {
	fsPack
	rc *zip.ReadCloser
}

// ParsePackName extracts and validates the pack name from a folder name.
// The folder name must end with .bpack and have a valid prefix.
func ParsePackName(folderName string) (string, error) {
	if !strings.HasSuffix(folderName, PackSuffix) {
		return "", fmt.Errorf("folder name must end with %q", PackSuffix)
	}
	prefix := strings.TrimSuffix(folderName, PackSuffix)
	if prefix == "" {
		return "", fmt.Errorf("pack name cannot be empty (folder name cannot be just %q)", PackSuffix)
	}
	if strings.HasPrefix(prefix, ".") {
		return "", fmt.Errorf("pack name cannot start with a dot (hidden folders not allowed)")
	}
	if !packNameRegex.MatchString(prefix) {
		return "", fmt.Errorf("pack name %q is invalid: must start with a lowercase letter, contain only lowercase alphanumerics, with optional dot-separated segments (e.g. 'core', 'com.example.overrides')", prefix)
	}
	for _, segment := range strings.Split(prefix, ".") {
		if platform.IsWindowsReservedName(segment) {
			return "", fmt.Errorf("pack name %q contains Windows reserved name %q", prefix, segment)
		}
	}
	return prefix, nil
}

// IsPack checks whether the given path looks like a pack directory. This
// only verifies the folder name format and existence; use Validate for a
// full check.
func IsPack(path string) bool {
	if _, err := ParsePackName(filepath.Base(path)); err != nil {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// OpenDir opens and validates a pack rooted at a directory.
func OpenDir(dir string) (*DirPack, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pack path: %w", err)
	}

	name, err := ParsePackName(filepath.Base(absPath))
	if err != nil {
		return nil, fmt.Errorf("invalid pack at %s: %w", absPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat pack at %s: %w", absPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pack path %s is not a directory", absPath)
	}

	meta, err := ParseMetadata(filepath.Join(absPath, MetadataFile))
	if err != nil {
		return nil, err
	}
	if meta.ID != name {
		return nil, fmt.Errorf("pack id %q in %s must match folder name %q", meta.ID, MetadataFile, name)
	}

	return &DirPack{
		fsPack: fsPack{meta: *meta, fsys: os.DirFS(absPath)},
		Path:   absPath,
	}, nil
}

// OpenArchive opens a pack from a ZIP archive. The archive must contain a
// single root directory ending in .bpack. Close the pack to release the
// archive handle.
func OpenArchive(zipPath string) (*ZipPack, error) {
	rc, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack archive %s: %w", zipPath, err)
	}

	root := ""
	for _, f := range rc.File {
		parts := strings.Split(f.Name, "/")
		if len(parts) > 0 && strings.HasSuffix(parts[0], PackSuffix) {
			root = parts[0]
			break
		}
	}
	if root == "" {
		rc.Close()
		return nil, fmt.Errorf("no pack found in archive %s (expected a root directory ending with %s)", zipPath, PackSuffix)
	}

	name, err := ParsePackName(root)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("invalid pack in archive %s: %w", zipPath, err)
	}

	sub, err := fs.Sub(rc, root)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to root archive %s at %s: %w", zipPath, root, err)
	}

	data, err := fs.ReadFile(sub, MetadataFile)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to read pack metadata in archive %s: %w", zipPath, err)
	}
	meta, err := ParseMetadataBytes(data, zipPath+"!"+root+"/"+MetadataFile)
	if err != nil {
		rc.Close()
		return nil, err
	}
	if meta.ID != name {
		rc.Close()
		return nil, fmt.Errorf("pack id %q in %s must match archive root %q", meta.ID, MetadataFile, name)
	}

	return &ZipPack{
		fsPack: fsPack{meta: *meta, fsys: sub},
		rc:     rc,
	}, nil
}

// ID implements Pack.
func (p *fsPack) ID() string { return p.meta.ID }

// Info implements Pack.
func (p *fsPack) Info() Metadata { return p.meta }

// Open implements Pack.
func (p *fsPack) Open(rp respath.Path) (io.ReadCloser, error) {
	if rp.IsZero() {
		return nil, fmt.Errorf("open %s: %w", rp, fs.ErrNotExist)
	}
	return p.fsys.Open(rp.FilePath())
}

// Exists implements Pack.
func (p *fsPack) Exists(rp respath.Path) bool {
	if rp.IsZero() {
		return false
	}
	info, err := fs.Stat(p.fsys, rp.FilePath())
	return err == nil && !info.IsDir()
}

// Namespaces implements Pack.
func (p *fsPack) Namespaces() ([]string, error) {
	entries, err := fs.ReadDir(p.fsys, respath.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list namespaces in pack %s: %w", p.meta.ID, err)
	}

	var namespaces []string
	for _, entry := range entries {
		if entry.IsDir() {
			namespaces = append(namespaces, entry.Name())
		}
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// List implements Pack. Paths are returned in sorted order.
func (p *fsPack) List(namespace string) ([]respath.Path, error) {
	root := respath.DataDir + "/" + namespace
	var paths []respath.Path
	err := fs.WalkDir(p.fsys, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) && path == root {
				return fs.SkipAll
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(path, root+"/")
		rp, err := respath.Of(namespace, rel)
		if err != nil {
			// Files with names outside the allowed charset are not
			// addressable as resources; skip them.
			return nil
		}
		paths = append(paths, rp)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list resources in pack %s: %w", p.meta.ID, err)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Compare(paths[j]) < 0 })
	return paths, nil
}

// Close implements Pack. Directory packs hold no handles.
func (p *fsPack) Close() error { return nil }

// Close implements Pack, releasing the archive handle.
func (p *ZipPack) Close() error { return p.rc.Close() }
