// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"bastion/pkg/data/format"
	"bastion/pkg/respath"
)

// ErrNoMetadata is returned by Resource.Meta when a resource has no
// sidecar metadata file.
var ErrNoMetadata = errors.New("resource has no metadata")

// MetaFormat is the format used to decode sidecar metadata resources.
const MetaFormat = "json"

// Resource is a single addressable entry inside a pack. Every Open call
// returns a fresh reader; a Resource itself holds no open handle and may
// be read concurrently.
type Resource struct {
	path respath.Path
	pack Pack
}

// NewResource binds a path to the pack that provides it.
func NewResource(p respath.Path, pack Pack) *Resource {
	return &Resource{path: p, pack: pack}
}

// Path returns the resource's namespaced path.
func (r *Resource) Path() respath.Path { return r.path }

// PackID returns the id of the pack providing this resource.
func (r *Resource) PackID() string { return r.pack.ID() }

// Open returns a fresh reader over the resource contents. The caller
// closes it.
func (r *Resource) Open() (io.ReadCloser, error) {
	return r.pack.Open(r.path)
}

// Bytes reads the entire resource into memory.
func (r *Resource) Bytes() ([]byte, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Text reads the entire resource as a string.
func (r *Resource) Text() (string, error) {
	b, err := r.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Lines reads the resource line by line.
func (r *Resource) Lines() ([]string, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	return lines, nil
}

// View decodes the resource with the named data format.
func (r *Resource) View(formatName string) (format.View, error) {
	f, err := format.Lookup(formatName)
	if err != nil {
		return nil, err
	}
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	view, err := f.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", r.path, f.Name(), err)
	}
	return view, nil
}

// Meta decodes the resource's sidecar metadata (the sibling resource with
// the metadata suffix). Returns ErrNoMetadata when the pack has no such
// sibling.
func (r *Resource) Meta() (format.View, error) {
	metaPath := r.path.Meta()
	rc, err := r.pack.Open(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, ErrNoMetadata)
		}
		return nil, err
	}
	defer rc.Close()

	f, err := format.Lookup(MetaFormat)
	if err != nil {
		return nil, err
	}
	view, err := f.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata %s: %w", metaPath, err)
	}
	return view, nil
}

// HasMeta reports whether the resource has sidecar metadata.
func (r *Resource) HasMeta() bool {
	return r.pack.Exists(r.path.Meta())
}

// CopyTo streams the resource contents into w.
func (r *Resource) CopyTo(w io.Writer) (int64, error) {
	rc, err := r.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(w, rc)
}

// WriteFile copies the resource contents to a file on disk.
func (r *Resource) WriteFile(dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := r.CopyTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
