// SPDX-License-Identifier: MPL-2.0

package param

import (
	"errors"
	"sort"
	"strings"
)

type (
	// seq parses its children in order.
	seq struct {
		params []Parameter
	}

	// firstOf tries its children in order until one parses, rewinding the
	// stream between attempts.
	firstOf struct {
		params []Parameter
	}

	// SeqBuilder chains parameters into a sequence.
	SeqBuilder struct {
		params   []Parameter
		optional bool
		weak     bool
	}

	// FirstOfBuilder chains parameters into an ordered alternative.
	FirstOfBuilder struct {
		params   []Parameter
		optional bool
		weak     bool
	}

	// optionalGroup wraps a combinator so the whole group may be skipped.
	// A weak group also rolls back when the group parses partially: the
	// stream rewinds and no values leak into the context.
	optionalGroup struct {
		inner Parameter
		weak  bool
	}
)

// Seq returns a Parameter that parses the given parameters in order.
func Seq(params ...Parameter) Parameter {
	return &seq{params: params}
}

// FirstOf returns a Parameter that tries each given parameter in order and
// stops at the first success. The stream rewinds between attempts.
func FirstOf(params ...Parameter) Parameter {
	return &firstOf{params: params}
}

// NewSeq starts a SeqBuilder with the given parameters.
func NewSeq(params ...Parameter) *SeqBuilder {
	return &SeqBuilder{params: params}
}

// Then appends parameters to the sequence.
func (b *SeqBuilder) Then(params ...Parameter) *SeqBuilder {
	b.params = append(b.params, params...)
	return b
}

// Optional makes the whole sequence skippable when the stream is
// exhausted. A present but unparseable argument still fails.
func (b *SeqBuilder) Optional() *SeqBuilder {
	b.optional = true
	return b
}

// OptionalWeak makes the whole sequence skippable: on any parse failure
// the stream rewinds and the sequence contributes nothing.
func (b *SeqBuilder) OptionalWeak() *SeqBuilder {
	b.optional = true
	b.weak = true
	return b
}

// Build creates the sequence parameter.
func (b *SeqBuilder) Build() Parameter {
	return wrapOptional(Seq(b.params...), b.optional, b.weak)
}

// NewFirstOf starts a FirstOfBuilder with the given parameters.
func NewFirstOf(params ...Parameter) *FirstOfBuilder {
	return &FirstOfBuilder{params: params}
}

// Or appends alternatives, checked in the order added.
func (b *FirstOfBuilder) Or(params ...Parameter) *FirstOfBuilder {
	b.params = append(b.params, params...)
	return b
}

// Optional makes the alternative skippable when the stream is exhausted.
func (b *FirstOfBuilder) Optional() *FirstOfBuilder {
	b.optional = true
	return b
}

// OptionalWeak makes the alternative skippable: when every branch fails
// the stream rewinds and the group contributes nothing.
func (b *FirstOfBuilder) OptionalWeak() *FirstOfBuilder {
	b.optional = true
	b.weak = true
	return b
}

// Build creates the alternative parameter.
func (b *FirstOfBuilder) Build() Parameter {
	return wrapOptional(FirstOf(b.params...), b.optional, b.weak)
}

func wrapOptional(p Parameter, optional, weak bool) Parameter {
	if !optional {
		return p
	}
	return &optionalGroup{inner: p, weak: weak}
}

// Parse implements Parameter.
func (s *seq) Parse(src Source, args *Args, ctx *Context) error {
	for _, p := range s.params {
		if err := p.Parse(src, args, ctx); err != nil {
			return err
		}
	}
	return nil
}

// Complete implements Parameter. Children that parse cleanly are skipped;
// the first child that fails or exhausts the stream supplies the
// completions.
func (s *seq) Complete(src Source, args *Args, ctx *Context) ([]string, error) {
	for _, p := range s.params {
		snap := args.Snapshot()
		if !args.HasNext() {
			return p.Complete(src, args, ctx)
		}
		if err := p.Parse(src, args, ctx); err != nil {
			args.Restore(snap)
			return p.Complete(src, args, ctx)
		}
	}
	return nil, nil
}

// Usage implements Parameter.
func (s *seq) Usage(src Source) string {
	parts := make([]string, 0, len(s.params))
	for _, p := range s.params {
		if u := p.Usage(src); u != "" {
			parts = append(parts, u)
		}
	}
	return strings.Join(parts, " ")
}

// Parse implements Parameter. Each alternative parses into a scratch
// context so a partially successful attempt leaves no values behind.
func (f *firstOf) Parse(src Source, args *Args, ctx *Context) error {
	var errs []error
	for _, p := range f.params {
		snap := args.Snapshot()
		scratch := NewContext()
		err := p.Parse(src, args, scratch)
		if err == nil {
			for key, vs := range scratch.values {
				ctx.values[key] = append(ctx.values[key], vs...)
			}
			return nil
		}
		args.Restore(snap)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Complete implements Parameter. Candidates from all alternatives are
// merged and deduplicated.
func (f *firstOf) Complete(src Source, args *Args, ctx *Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range f.params {
		snap := args.Snapshot()
		cands, err := p.Complete(src, args, ctx)
		args.Restore(snap)
		if err != nil {
			continue
		}
		for _, c := range cands {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Usage implements Parameter.
func (f *firstOf) Usage(src Source) string {
	parts := make([]string, 0, len(f.params))
	for _, p := range f.params {
		if u := p.Usage(src); u != "" {
			parts = append(parts, u)
		}
	}
	return strings.Join(parts, "|")
}

// Parse implements Parameter. An empty stream always satisfies the
// group. The weak variant also swallows parse failures, rewinding the
// stream and discarding any values the attempt produced.
func (g *optionalGroup) Parse(src Source, args *Args, ctx *Context) error {
	if !args.HasNext() {
		return nil
	}
	if !g.weak {
		return g.inner.Parse(src, args, ctx)
	}
	snap := args.Snapshot()
	scratch := NewContext()
	if err := g.inner.Parse(src, args, scratch); err != nil {
		args.Restore(snap)
		return nil
	}
	for key, vs := range scratch.values {
		ctx.values[key] = append(ctx.values[key], vs...)
	}
	return nil
}

// Complete implements Parameter.
func (g *optionalGroup) Complete(src Source, args *Args, ctx *Context) ([]string, error) {
	return g.inner.Complete(src, args, ctx)
}

// Usage implements Parameter.
func (g *optionalGroup) Usage(src Source) string {
	if u := g.inner.Usage(src); u != "" {
		return "[" + u + "]"
	}
	return ""
}
