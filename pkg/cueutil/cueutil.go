// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema
// definition. Pack metadata and the runtime configuration both load
// through it, so validation errors come out in one shape.
package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// MaxFileSize caps the documents Decode accepts. Oversized inputs are
// rejected before the evaluator sees them.
const MaxFileSize int64 = 5 << 20

// Schema is a compiled CUE schema rooted at one definition, ready to
// validate and decode user documents. Construct with NewSchema or
// MustSchema; a Schema is safe for concurrent use.
type Schema struct {
	ctx  *cue.Context
	root cue.Value
	def  string
}

// NewSchema compiles src and resolves the definition the documents must
// satisfy, e.g. "#Pack".
func NewSchema(src, def string) (*Schema, error) {
	ctx := cuecontext.New()
	compiled := ctx.CompileString(src)
	if compiled.Err() != nil {
		return nil, fmt.Errorf("compile schema: %w", compiled.Err())
	}
	root := compiled.LookupPath(cue.ParsePath(def))
	if root.Err() != nil {
		return nil, fmt.Errorf("schema has no definition %s: %w", def, root.Err())
	}
	return &Schema{ctx: ctx, root: root, def: def}, nil
}

// MustSchema is NewSchema for embedded schemas, panicking on error.
func MustSchema(src, def string) *Schema {
	s, err := NewSchema(src, def)
	if err != nil {
		panic(err)
	}
	return s
}

// Def returns the definition path the schema was rooted at.
func (s *Schema) Def() string { return s.def }

// Decode validates data against the schema and decodes it into dst.
// Every field must be concrete. file names the document in errors.
func (s *Schema) Decode(dst any, data []byte, file string) error {
	return s.decode(dst, data, file, true)
}

// DecodeLoose is Decode without the concreteness requirement, for
// documents whose optional fields may stay unset.
func (s *Schema) DecodeLoose(dst any, data []byte, file string) error {
	return s.decode(dst, data, file, false)
}

func (s *Schema) decode(dst any, data []byte, file string, concrete bool) error {
	if int64(len(data)) > MaxFileSize {
		return fmt.Errorf("%s: %d bytes exceeds the %d byte limit", file, len(data), MaxFileSize)
	}
	doc := s.ctx.CompileBytes(data, cue.Filename(file))
	if doc.Err() != nil {
		return DescribeError(doc.Err(), file)
	}
	unified := s.root.Unify(doc)
	if err := unified.Validate(cue.Concrete(concrete)); err != nil {
		return DescribeError(err, file)
	}
	if err := unified.Decode(dst); err != nil {
		return DescribeError(err, file)
	}
	return nil
}
