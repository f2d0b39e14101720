// SPDX-License-Identifier: MPL-2.0

package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type jsonFormat struct{}

func (jsonFormat) Name() string         { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Decode(r io.Reader) (View, error) {
	var v View
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

func (jsonFormat) Encode(w io.Writer, v View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type yamlFormat struct{}

func (yamlFormat) Name() string         { return "yaml" }
func (yamlFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlFormat) Decode(r io.Reader) (View, error) {
	var v View
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return v, nil
}

func (yamlFormat) Encode(w io.Writer, v View) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

type tomlFormat struct{}

func (tomlFormat) Name() string         { return "toml" }
func (tomlFormat) Extensions() []string { return []string{".toml"} }

func (tomlFormat) Decode(r io.Reader) (View, error) {
	var v View
	dec := toml.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	return v, nil
}

func (tomlFormat) Encode(w io.Writer, v View) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

// cborFormat is the binary codec used for compact persisted game data.
type cborFormat struct{}

func (cborFormat) Name() string         { return "cbor" }
func (cborFormat) Extensions() []string { return []string{".cbor", ".dat"} }

func (cborFormat) Decode(r io.Reader) (View, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read cbor: %w", err)
	}
	var v View
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode cbor: %w", err)
	}
	return v, nil
}

func (cborFormat) Encode(w io.Writer, v View) error {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cbor: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write cbor: %w", err)
	}
	return nil
}
