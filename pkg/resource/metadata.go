// SPDX-License-Identifier: MPL-2.0

package resource

import (
	_ "embed"
	"fmt"
	"os"

	"bastion/pkg/cueutil"

	"github.com/Masterminds/semver/v3"
)

//go:embed pack_schema.cue
var packSchema string

var packSchemaDef = cueutil.MustSchema(packSchema, "#Pack")

// MetadataFile is the name of the pack metadata file at the pack root.
const MetadataFile = "pack.cue"

// supportedFormats is the semver range of pack format versions this
// runtime can load.
var supportedFormats = mustConstraint("^1.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Metadata is the parsed content of a pack.cue file. It carries pack
// identity the way a module file carries module identity; resources
// themselves live under data/.
type Metadata struct {
	// ID is the mandatory pack identifier. It acts as the pack's name in
	// the manager and must match the folder name prefix (before .bpack).
	ID string `json:"id"`
	// Format is the pack format version (semver). The runtime accepts 1.x.
	Format string `json:"format"`
	// Title is an optional human-readable title.
	Title string `json:"title,omitempty"`
	// Description provides an optional summary of the pack contents.
	Description string `json:"description,omitempty"`
	// FilePath stores where this pack.cue was loaded from (not in CUE).
	FilePath string `json:"-"`
}

// ParseMetadata reads and parses pack metadata from pack.cue at the given
// path.
func ParseMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pack metadata at %s: %w", path, err)
	}
	return ParseMetadataBytes(data, path)
}

// ParseMetadataBytes parses pack metadata content from bytes, validating
// it against the embedded #Pack schema.
func ParseMetadataBytes(data []byte, path string) (*Metadata, error) {
	meta := &Metadata{}
	if err := packSchemaDef.Decode(meta, data, path); err != nil {
		return nil, err
	}
	meta.FilePath = path

	version, err := semver.NewVersion(meta.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid pack format version %q at %s: %w", meta.Format, path, err)
	}
	if !supportedFormats.Check(version) {
		return nil, fmt.Errorf("unsupported pack format version %q at %s (supported: %s)",
			meta.Format, path, supportedFormats)
	}

	return meta, nil
}
