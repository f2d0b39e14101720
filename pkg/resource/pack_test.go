// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"bastion/pkg/respath"
)

// writePack lays out a pack directory named <id>.bpack under dir, with
// pack.cue and the given resource files (pack-relative slash paths).
func writePack(t *testing.T, dir, id string, files map[string]string) string {
	t.Helper()

	packPath := filepath.Join(dir, id+PackSuffix)
	meta := "id: \"" + id + "\"\nformat: \"1.0\"\ndescription: \"test pack\"\n"
	writeFiles := map[string]string{MetadataFile: meta}
	for name, content := range files {
		writeFiles[name] = content
	}
	for name, content := range writeFiles {
		full := filepath.Join(packPath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return packPath
}

func TestParsePackName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		folder string
		want   string
		fails  bool
	}{
		{name: "simple", folder: "core.bpack", want: "core"},
		{name: "rdns", folder: "com.example.overrides.bpack", want: "com.example.overrides"},
		{name: "digits", folder: "pack2.bpack", want: "pack2"},
		{name: "missing suffix", folder: "core", fails: true},
		{name: "bare suffix", folder: ".bpack", fails: true},
		{name: "hidden", folder: ".core.bpack", fails: true},
		{name: "uppercase", folder: "Core.bpack", fails: true},
		{name: "leading digit", folder: "2pack.bpack", fails: true},
		{name: "underscore", folder: "my_pack.bpack", fails: true},
		{name: "empty segment", folder: "com..example.bpack", fails: true},
		{name: "windows reserved", folder: "con.bpack", fails: true},
		{name: "windows reserved segment", folder: "com.nul.tools.bpack", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePackName(tt.folder)
			if tt.fails {
				if err == nil {
					t.Errorf("ParsePackName(%q) = %q, want error", tt.folder, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePackName(%q) failed: %v", tt.folder, err)
			}
			if got != tt.want {
				t.Errorf("ParsePackName(%q) = %q, want %q", tt.folder, got, tt.want)
			}
		})
	}
}

func TestOpenDir(t *testing.T) {
	t.Parallel()

	packPath := writePack(t, t.TempDir(), "alpha", map[string]string{
		"data/core/lang/en.json":      `{"hello": "world"}`,
		"data/core/lang/en.json.meta": `{"comment": "english strings"}`,
		"data/extra/notes.txt":        "note",
	})

	p, err := OpenDir(packPath)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.ID() != "alpha" {
		t.Errorf("ID() = %q, want alpha", p.ID())
	}
	if p.Info().Description != "test pack" {
		t.Errorf("Info().Description = %q", p.Info().Description)
	}

	langPath := respath.MustOf("core", "lang/en.json")
	if !p.Exists(langPath) {
		t.Error("Exists() = false for present resource")
	}
	if p.Exists(respath.MustOf("core", "absent")) {
		t.Error("Exists() = true for absent resource")
	}

	rc, err := p.Open(langPath)
	if err != nil {
		t.Fatal(err)
	}
	rc.Close()

	if _, err := p.Open(respath.MustOf("core", "absent")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open of absent resource: err = %v, want fs.ErrNotExist", err)
	}

	namespaces, err := p.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(namespaces, []string{"core", "extra"}) {
		t.Errorf("Namespaces() = %v, want [core extra]", namespaces)
	}

	paths, err := p.List("core")
	if err != nil {
		t.Fatal(err)
	}
	want := []respath.Path{
		respath.MustOf("core", "lang/en.json"),
		respath.MustOf("core", "lang/en.json.meta"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("List(core) = %v, want %v", paths, want)
	}
}

func TestOpenDirRejectsIDMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := filepath.Join(dir, "alpha"+PackSuffix)
	if err := os.MkdirAll(packPath, 0755); err != nil {
		t.Fatal(err)
	}
	meta := "id: \"beta\"\nformat: \"1.0\"\n"
	if err := os.WriteFile(filepath.Join(packPath, MetadataFile), []byte(meta), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenDir(packPath); err == nil || !strings.Contains(err.Error(), "must match folder name") {
		t.Errorf("OpenDir with mismatched id: err = %v", err)
	}
}

func TestParseMetadataBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		fails   string
	}{
		{name: "valid", content: "id: \"alpha\"\nformat: \"1.0\"\n"},
		{name: "with title", content: "id: \"alpha\"\nformat: \"1.0.2\"\ntitle: \"Alpha\"\n"},
		{name: "missing id", content: "format: \"1.0\"\n", fails: "incomplete value"},
		{name: "missing format", content: "id: \"alpha\"\n", fails: "incomplete value"},
		{name: "uppercase id", content: "id: \"Alpha\"\nformat: \"1.0\"\n", fails: "invalid value"},
		{name: "unsupported format", content: "id: \"alpha\"\nformat: \"2.0\"\n", fails: "unsupported pack format"},
		{name: "unknown field", content: "id: \"alpha\"\nformat: \"1.0\"\nbogus: true\n", fails: "not allowed"},
		{name: "not cue", content: "{{{", fails: "pack.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meta, err := ParseMetadataBytes([]byte(tt.content), "pack.cue")
			if tt.fails != "" {
				if err == nil || !strings.Contains(err.Error(), tt.fails) {
					t.Errorf("err = %v, want containing %q", err, tt.fails)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if meta.ID != "alpha" {
				t.Errorf("ID = %q, want alpha", meta.ID)
			}
		})
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := writePack(t, dir, "alpha", map[string]string{
		"data/core/config/server.json": `{"port": 25565}`,
	})

	zipPath, err := Archive(packPath, filepath.Join(dir, "alpha.zip"))
	if err != nil {
		t.Fatal(err)
	}

	p, err := OpenArchive(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.ID() != "alpha" {
		t.Errorf("ID() = %q, want alpha", p.ID())
	}

	cfg := respath.MustOf("core", "config/server.json")
	if !p.Exists(cfg) {
		t.Fatal("archived resource missing")
	}
	rc, err := p.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
}

func TestUnpackRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := writePack(t, dir, "alpha", map[string]string{
		"data/core/motd.txt": "welcome",
	})

	zipPath, err := Archive(packPath, filepath.Join(dir, "alpha.zip"))
	if err != nil {
		t.Fatal(err)
	}

	destDir := t.TempDir()
	extracted, err := Unpack(UnpackOptions{Source: zipPath, DestDir: destDir})
	if err != nil {
		t.Fatal(err)
	}

	p, err := OpenDir(extracted)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if !p.Exists(respath.MustOf("core", "motd.txt")) {
		t.Error("extracted pack is missing its resource")
	}

	// A second unpack without overwrite must refuse.
	if _, err := Unpack(UnpackOptions{Source: zipPath, DestDir: destDir}); err == nil {
		t.Error("Unpack over an existing pack should fail without Overwrite")
	}
	if _, err := Unpack(UnpackOptions{Source: zipPath, DestDir: destDir, Overwrite: true}); err != nil {
		t.Errorf("Unpack with Overwrite failed: %v", err)
	}
}

func TestUnpackIgnoresSiblingRoots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "mixed.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	entries := map[string]string{
		"alpha.bpack/pack.cue":           "id: \"alpha\"\nformat: \"1.0\"\n",
		"alpha.bpack/data/core/motd.txt": "welcome",
		// Shares the pack root as a name prefix but is a different directory.
		"alpha.bpackx/stray.txt":         "stray",
		"alpha.bpack2/data/core/x.txt":   "stray",
	}
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	destDir := t.TempDir()
	extracted, err := Unpack(UnpackOptions{Source: zipPath, DestDir: destDir})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(extracted) != "alpha.bpack" {
		t.Errorf("extracted root = %s, want alpha.bpack", extracted)
	}
	for _, stray := range []string{"alpha.bpackx", "alpha.bpack2"} {
		if _, err := os.Stat(filepath.Join(destDir, stray)); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("sibling root %s was extracted", stray)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := writePack(t, dir, "alpha", map[string]string{
		"data/core/x.txt": "x",
	})

	result, err := Validate(packPath)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("Valid = false, issues: %v", result.Issues)
	}
	if result.PackName != "alpha" {
		t.Errorf("PackName = %q, want alpha", result.PackName)
	}
	if !reflect.DeepEqual(result.Namespaces, []string{"core"}) {
		t.Errorf("Namespaces = %v, want [core]", result.Namespaces)
	}
}

func TestValidateFindsIssues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath := writePack(t, dir, "alpha", map[string]string{
		"data/loose.txt": "not in a namespace",
	})
	// Nested pack.
	nested := filepath.Join(packPath, "inner.bpack")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	result, err := Validate(packPath)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Fatal("Valid = true for a pack with structural problems")
	}

	var messages []string
	for _, issue := range result.Issues {
		messages = append(messages, issue.Error())
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "nested packs are not allowed") {
		t.Errorf("missing nested-pack issue in: %s", joined)
	}
	if !strings.Contains(joined, "namespace directories") {
		t.Errorf("missing loose-file issue in: %s", joined)
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	packPath, err := Create(CreateOptions{
		Name:      "com.example.tools",
		ParentDir: dir,
		Title:     "Tools",
	})
	if err != nil {
		t.Fatal(err)
	}

	p, err := OpenDir(packPath)
	if err != nil {
		t.Fatalf("created pack does not open: %v", err)
	}
	defer p.Close()
	if p.Info().Title != "Tools" {
		t.Errorf("Title = %q, want Tools", p.Info().Title)
	}

	namespaces, err := p.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(namespaces, []string{"tools"}) {
		t.Errorf("Namespaces = %v, want [tools]", namespaces)
	}

	// Creating the same pack twice must fail.
	if _, err := Create(CreateOptions{Name: "com.example.tools", ParentDir: dir}); err == nil {
		t.Error("Create over an existing pack should fail")
	}
}
