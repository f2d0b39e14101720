// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bastion/pkg/respath"
)

// ValidationIssue represents a single validation problem in a pack.
type ValidationIssue struct {
	// Type categorizes the issue (e.g. "structure", "naming", "metadata").
	Type string
	// Message describes the specific problem.
	Message string
	// Path is the relative path within the pack where the issue was found
	// (optional).
	Path string
}

// Error implements the error interface for ValidationIssue.
func (v ValidationIssue) Error() string {
	if v.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", v.Type, v.Path, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Type, v.Message)
}

// ValidationResult contains the result of pack validation.
type ValidationResult struct {
	// Valid is true if the pack passed all validation checks.
	Valid bool
	// PackPath is the absolute path to the validated pack.
	PackPath string
	// PackName is the extracted name from the folder (without .bpack).
	PackName string
	// MetadataPath is the path to pack.cue within the pack.
	MetadataPath string
	// Namespaces are the resource namespaces found under data/.
	Namespaces []string
	// Issues contains all validation problems found.
	Issues []ValidationIssue
}

// AddIssue adds a validation issue to the result.
func (r *ValidationResult) AddIssue(issueType, message, path string) {
	r.Issues = append(r.Issues, ValidationIssue{
		Type:    issueType,
		Message: message,
		Path:    path,
	})
	r.Valid = false
}

// Validate performs comprehensive validation of a pack directory. It
// returns a ValidationResult with all issues found, or an error if the
// path cannot be accessed.
func Validate(packPath string) (*ValidationResult, error) {
	absPath, err := filepath.Abs(packPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	result := &ValidationResult{
		Valid:    true,
		PackPath: absPath,
		Issues:   []ValidationIssue{},
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.AddIssue("structure", "path does not exist", "")
			return result, nil
		}
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		result.AddIssue("structure", "path is not a directory", "")
		return result, nil
	}

	base := filepath.Base(absPath)
	packName, err := ParsePackName(base)
	if err != nil {
		result.AddIssue("naming", err.Error(), "")
	} else {
		result.PackName = packName
	}

	metaPath := filepath.Join(absPath, MetadataFile)
	metaInfo, err := os.Stat(metaPath)
	switch {
	case err != nil && os.IsNotExist(err):
		result.AddIssue("structure", "missing required "+MetadataFile, "")
	case err != nil:
		result.AddIssue("structure", fmt.Sprintf("cannot access %s: %v", MetadataFile, err), "")
	case metaInfo.IsDir():
		result.AddIssue("structure", MetadataFile+" must be a file, not a directory", "")
	default:
		result.MetadataPath = metaPath
		meta, parseErr := ParseMetadata(metaPath)
		if parseErr != nil {
			result.AddIssue("metadata", parseErr.Error(), MetadataFile)
		} else if result.PackName != "" && meta.ID != result.PackName {
			result.AddIssue("naming", fmt.Sprintf(
				"id %q in %s must match folder name %q",
				meta.ID, MetadataFile, result.PackName), MetadataFile)
		}
	}

	// Nested packs are not allowed. Resources live under data/, and a
	// directory named like a pack inside another pack is a packaging
	// mistake.
	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if path == absPath {
			return nil
		}
		if d.IsDir() && strings.HasSuffix(d.Name(), PackSuffix) {
			relPath, _ := filepath.Rel(absPath, path)
			result.AddIssue("structure", "nested packs are not allowed", relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk pack directory: %w", err)
	}

	// data/ may only contain namespace directories; loose files there are
	// invisible to lookups.
	dataDir := filepath.Join(absPath, respath.DataDir)
	if entries, readErr := os.ReadDir(dataDir); readErr == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				result.AddIssue("structure", "data/ may only contain namespace directories", filepath.Join(respath.DataDir, entry.Name()))
				continue
			}
			result.Namespaces = append(result.Namespaces, entry.Name())
		}
	}

	return result, nil
}
