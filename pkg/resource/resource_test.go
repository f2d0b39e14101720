// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"bastion/pkg/respath"
)

func testPack(t *testing.T) Pack {
	t.Helper()

	packPath := writePack(t, t.TempDir(), "alpha", map[string]string{
		"data/core/lang/en.json":      `{"hello": "world"}`,
		"data/core/lang/en.json.meta": `{"comment": "english strings"}`,
		"data/core/motd.txt":          "line one\nline two\n",
	})
	p, err := OpenDir(packPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestResourceReads(t *testing.T) {
	t.Parallel()

	p := testPack(t)
	r := NewResource(respath.MustOf("core", "motd.txt"), p)

	if r.PackID() != "alpha" {
		t.Errorf("PackID() = %q, want alpha", r.PackID())
	}

	text, err := r.Text()
	if err != nil {
		t.Fatal(err)
	}
	if text != "line one\nline two\n" {
		t.Errorf("Text() = %q", text)
	}

	lines, err := r.Lines()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []string{"line one", "line two"}) {
		t.Errorf("Lines() = %v", lines)
	}

	var buf bytes.Buffer
	n, err := r.CopyTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(text)) || buf.String() != text {
		t.Errorf("CopyTo wrote %d bytes %q", n, buf.String())
	}

	// Each Open returns an independent reader.
	first, err := r.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	second, err := r.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
}

func TestResourceView(t *testing.T) {
	t.Parallel()

	p := testPack(t)
	r := NewResource(respath.MustOf("core", "lang/en.json"), p)

	view, err := r.View("json")
	if err != nil {
		t.Fatal(err)
	}
	if view["hello"] != "world" {
		t.Errorf("view = %v", view)
	}

	if _, err := r.View("nope"); err == nil {
		t.Error("View with unknown format should fail")
	}
}

func TestResourceMeta(t *testing.T) {
	t.Parallel()

	p := testPack(t)

	withMeta := NewResource(respath.MustOf("core", "lang/en.json"), p)
	if !withMeta.HasMeta() {
		t.Error("HasMeta() = false for a resource with a sidecar")
	}
	meta, err := withMeta.Meta()
	if err != nil {
		t.Fatal(err)
	}
	if meta["comment"] != "english strings" {
		t.Errorf("meta = %v", meta)
	}

	withoutMeta := NewResource(respath.MustOf("core", "motd.txt"), p)
	if withoutMeta.HasMeta() {
		t.Error("HasMeta() = true for a resource without a sidecar")
	}
	if _, err := withoutMeta.Meta(); !errors.Is(err, ErrNoMetadata) {
		t.Errorf("Meta() = %v, want ErrNoMetadata", err)
	}
}

func TestResourceWriteFile(t *testing.T) {
	t.Parallel()

	p := testPack(t)
	r := NewResource(respath.MustOf("core", "motd.txt"), p)

	dest := filepath.Join(t.TempDir(), "motd.txt")
	if err := r.WriteFile(dest); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "line one\nline two\n" {
		t.Errorf("written file = %q", got)
	}
}
