// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "yaml", "toml", "cbor"} {
		f, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) returned error: %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, f.Name())
		}
	}

	if _, err := Lookup("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Lookup of unknown format: got %v, want ErrUnknownFormat", err)
	}
}

func TestByExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{ext: ".json", want: "json"},
		{ext: ".yaml", want: "yaml"},
		{ext: ".yml", want: "yaml"},
		{ext: ".toml", want: "toml"},
		{ext: ".dat", want: "cbor"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()

			f, err := ByExtension(tt.ext)
			if err != nil {
				t.Fatalf("ByExtension(%q) returned error: %v", tt.ext, err)
			}
			if f.Name() != tt.want {
				t.Errorf("ByExtension(%q) = %q, want %q", tt.ext, f.Name(), tt.want)
			}
		})
	}

	if _, err := ByExtension(".xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ByExtension of unknown ext: got %v, want ErrUnknownFormat", err)
	}
}

func TestJSONDecode(t *testing.T) {
	t.Parallel()

	f, _ := Lookup("json")
	v, err := f.Decode(strings.NewReader(`{"animation": {"frametime": 2}}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	anim, ok := v["animation"].(map[string]any)
	if !ok {
		t.Fatalf("animation section missing: %v", v)
	}
	if anim["frametime"] != float64(2) {
		t.Errorf("frametime = %v", anim["frametime"])
	}
}

func TestJSONDecodeInvalid(t *testing.T) {
	t.Parallel()

	f, _ := Lookup("json")
	if _, err := f.Decode(strings.NewReader(`{broken`)); err == nil {
		t.Error("Decode of invalid json succeeded")
	}
}

func TestYAMLDecode(t *testing.T) {
	t.Parallel()

	f, _ := Lookup("yaml")
	v, err := f.Decode(strings.NewReader("title: stone\nhardness: 1.5\n"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if v["title"] != "stone" {
		t.Errorf("title = %v", v["title"])
	}
}

func TestTOMLDecode(t *testing.T) {
	t.Parallel()

	f, _ := Lookup("toml")
	v, err := f.Decode(strings.NewReader("[block]\nname = \"stone\"\n"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	block, ok := v["block"].(map[string]any)
	if !ok {
		t.Fatalf("block section missing: %v", v)
	}
	if block["name"] != "stone" {
		t.Errorf("name = %v", block["name"])
	}
}

func TestCBORRoundTrip(t *testing.T) {
	t.Parallel()

	f, _ := Lookup("cbor")
	in := View{"level": uint64(7), "name": "spawn"}

	var buf bytes.Buffer
	if err := f.Encode(&buf, in); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out, err := f.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if out["name"] != "spawn" {
		t.Errorf("name = %v", out["name"])
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	names := Names()
	want := map[string]bool{"cbor": true, "json": true, "toml": true, "yaml": true}
	for _, n := range names {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Errorf("Names() missing formats: %v (got %v)", want, names)
	}
}
