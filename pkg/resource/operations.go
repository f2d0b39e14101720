// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bastion/pkg/respath"
)

// CreateOptions contains options for scaffolding a new pack.
type CreateOptions struct {
	// Name is the pack name (e.g. "com.example.overrides").
	Name string
	// ParentDir is the directory where the pack will be created. Defaults
	// to the current directory.
	ParentDir string
	// Title is an optional title written into pack.cue.
	Title string
	// Description is an optional description written into pack.cue.
	Description string
	// Namespace seeds a data/<Namespace>/ directory. Defaults to Name's
	// last dot-separated segment.
	Namespace string
}

// Create scaffolds a new pack directory with metadata and an empty
// namespace. Returns the path to the created pack.
func Create(opts CreateOptions) (string, error) {
	if opts.Name == "" {
		return "", fmt.Errorf("pack name cannot be empty")
	}
	if !packNameRegex.MatchString(opts.Name) {
		return "", fmt.Errorf("pack name %q is invalid: must start with a lowercase letter, contain only lowercase alphanumerics, with optional dot-separated segments", opts.Name)
	}

	parentDir := opts.ParentDir
	if parentDir == "" {
		var err error
		parentDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	absParentDir, err := filepath.Abs(parentDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent directory: %w", err)
	}

	packPath := filepath.Join(absParentDir, opts.Name+PackSuffix)
	if _, err := os.Stat(packPath); err == nil {
		return "", fmt.Errorf("pack already exists at %s", packPath)
	}
	if err := os.MkdirAll(packPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create pack directory: %w", err)
	}

	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("Resources from the %s pack", opts.Name)
	}

	var meta strings.Builder
	fmt.Fprintf(&meta, "// Pack metadata for %s\n\n", opts.Name)
	fmt.Fprintf(&meta, "id: %q\n", opts.Name)
	fmt.Fprintf(&meta, "format: %q\n", "1.0")
	if opts.Title != "" {
		fmt.Fprintf(&meta, "title: %q\n", opts.Title)
	}
	fmt.Fprintf(&meta, "description: %q\n", description)

	metaPath := filepath.Join(packPath, MetadataFile)
	if err := os.WriteFile(metaPath, []byte(meta.String()), 0644); err != nil {
		os.RemoveAll(packPath)
		return "", fmt.Errorf("failed to create %s: %w", MetadataFile, err)
	}

	namespace := opts.Namespace
	if namespace == "" {
		segments := strings.Split(opts.Name, ".")
		namespace = segments[len(segments)-1]
	}
	nsDir := filepath.Join(packPath, respath.DataDir, namespace)
	if err := os.MkdirAll(nsDir, 0755); err != nil {
		os.RemoveAll(packPath)
		return "", fmt.Errorf("failed to create namespace directory: %w", err)
	}
	gitkeepPath := filepath.Join(nsDir, ".gitkeep")
	if err := os.WriteFile(gitkeepPath, []byte(""), 0644); err != nil {
		os.RemoveAll(packPath)
		return "", fmt.Errorf("failed to create .gitkeep: %w", err)
	}

	return packPath, nil
}

// Archive creates a ZIP archive of a pack directory. Returns the path to
// the created ZIP file.
func Archive(packPath, outputPath string) (string, error) {
	p, err := OpenDir(packPath)
	if err != nil {
		return "", fmt.Errorf("invalid pack: %w", err)
	}

	if outputPath == "" {
		outputPath = p.ID() + PackSuffix + ".zip"
	}
	absOutputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	zipFile, err := os.Create(absOutputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create ZIP file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	packDirName := filepath.Base(p.Path)

	err = filepath.WalkDir(p.Path, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, err := filepath.Rel(p.Path, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		zipPath := filepath.ToSlash(filepath.Join(packDirName, relPath))

		if d.IsDir() {
			if relPath != "." {
				if _, err := zipWriter.Create(zipPath + "/"); err != nil {
					return fmt.Errorf("failed to create directory entry: %w", err)
				}
			}
			return nil
		}

		fileData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}

		fileInfo, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}

		header, err := zip.FileInfoHeader(fileInfo)
		if err != nil {
			return fmt.Errorf("failed to create file header: %w", err)
		}
		header.Name = zipPath
		header.Method = zip.Deflate

		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create ZIP entry: %w", err)
		}
		if _, err := writer.Write(fileData); err != nil {
			return fmt.Errorf("failed to write file data: %w", err)
		}
		return nil
	})
	if err != nil {
		zipWriter.Close()
		zipFile.Close()
		os.Remove(absOutputPath)
		return "", fmt.Errorf("failed to archive pack: %w", err)
	}

	return absOutputPath, nil
}

// UnpackOptions contains options for extracting a pack archive.
type UnpackOptions struct {
	// Source is the path to the ZIP file or an http(s) URL.
	Source string
	// DestDir is the destination directory (defaults to current directory).
	DestDir string
	// Overwrite allows replacing an existing pack.
	Overwrite bool
}

// Unpack extracts a pack from a ZIP archive into a directory. Returns the
// path to the extracted pack.
func Unpack(opts UnpackOptions) (string, error) {
	if opts.Source == "" {
		return "", fmt.Errorf("source cannot be empty")
	}

	destDir := opts.DestDir
	if destDir == "" {
		var err error
		destDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(absDestDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	var zipPath string
	cleanup := func() {}
	if strings.HasPrefix(opts.Source, "http://") || strings.HasPrefix(opts.Source, "https://") {
		tmpFile, err := downloadFile(opts.Source)
		if err != nil {
			return "", fmt.Errorf("failed to download pack: %w", err)
		}
		zipPath = tmpFile
		cleanup = func() { os.Remove(tmpFile) }
	} else {
		zipPath, err = filepath.Abs(opts.Source)
		if err != nil {
			return "", fmt.Errorf("failed to resolve source path: %w", err)
		}
	}
	defer cleanup()

	zipReader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open ZIP file: %w", err)
	}
	defer zipReader.Close()

	var packRoot string
	for _, file := range zipReader.File {
		parts := strings.Split(file.Name, "/")
		if len(parts) > 0 && strings.HasSuffix(parts[0], PackSuffix) {
			packRoot = parts[0]
			break
		}
	}
	if packRoot == "" {
		return "", fmt.Errorf("no valid pack found in ZIP (expected directory ending with %s)", PackSuffix)
	}

	packPath := filepath.Join(absDestDir, packRoot)
	if _, err := os.Stat(packPath); err == nil {
		if !opts.Overwrite {
			return "", fmt.Errorf("pack already exists at %s (use overwrite option to replace)", packPath)
		}
		if err := os.RemoveAll(packPath); err != nil {
			return "", fmt.Errorf("failed to remove existing pack: %w", err)
		}
	}

	for _, file := range zipReader.File {
		// A bare prefix match would also admit sibling roots like
		// "<root>x/...", so require the directory itself or a child.
		if file.Name != packRoot && file.Name != packRoot+"/" &&
			!strings.HasPrefix(file.Name, packRoot+"/") {
			continue
		}

		destPath := filepath.Join(absDestDir, filepath.FromSlash(file.Name))

		// Reject entries that would escape the destination.
		relPath, err := filepath.Rel(absDestDir, destPath)
		if err != nil || strings.HasPrefix(relPath, "..") {
			return "", fmt.Errorf("invalid path in ZIP: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, file.Mode()); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractFile(file, destPath); err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	// The extracted pack must open cleanly, or we remove it again.
	if _, err := OpenDir(packPath); err != nil {
		os.RemoveAll(packPath)
		return "", fmt.Errorf("extracted pack is invalid: %w", err)
	}

	return packPath, nil
}

// downloadFile downloads a URL into a temporary file and returns its path.
func downloadFile(url string) (string, error) {
	tmpFile, err := os.CreateTemp("", "bastion-pack-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	resp, err := http.Get(url)
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to save downloaded file: %w", err)
	}

	return tmpFile.Name(), nil
}

// extractFile extracts a single file from the ZIP archive.
func extractFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, rc)
	return err
}
