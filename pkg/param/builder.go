// SPDX-License-Identifier: MPL-2.0

package param

import (
	"errors"
	"fmt"
)

// ErrIncompleteBuilder is returned by Build when the key or parser is
// missing.
var ErrIncompleteBuilder = errors.New("incomplete parameter builder")

type (
	// Builder assembles a Parameter from a key, a value parser, optional
	// completion and usage overrides, and modifiers.
	Builder struct {
		key        string
		parser     ValueParser
		completer  ValueCompleter
		usage      ValueUsage
		modifiers  []Modifier
		permission string
	}

	// built is the Parameter produced by Builder.Build.
	built struct {
		key        string
		parser     ValueParser
		completer  ValueCompleter
		usage      ValueUsage
		modifiers  []Modifier
		permission string
	}
)

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Key sets the context key parsed values are stored under. Mandatory.
func (b *Builder) Key(key string) *Builder {
	b.key = key
	return b
}

// Parser sets the value parser. Mandatory.
func (b *Builder) Parser(p ValueParser) *Builder {
	b.parser = p
	return b
}

// Completer overrides completion. Without it, completion falls back to the
// parser when it implements ValueCompleter, else to no candidates.
func (b *Builder) Completer(c ValueCompleter) *Builder {
	b.completer = c
	return b
}

// UsageOverride overrides usage rendering. Without it, usage falls back to
// the parser when it implements ValueUsage, else to "<key>".
func (b *Builder) UsageOverride(u ValueUsage) *Builder {
	b.usage = u
	return b
}

// Modifier appends modifiers. They wrap the parser call in the order added:
// the first added is called first and reaches later ones through next.
func (b *Builder) Modifier(mods ...Modifier) *Builder {
	b.modifiers = append(b.modifiers, mods...)
	return b
}

// RequirePermission gates the parameter on a permission. A source without
// it skips the parameter entirely.
func (b *Builder) RequirePermission(permission string) *Builder {
	b.permission = permission
	return b
}

// Optional marks the parameter optional: a missing argument is skipped
// without error.
func (b *Builder) Optional() *Builder { return b.Modifier(OptionalModifier()) }

// OptionalWeak marks the parameter weakly optional: a missing or
// unparseable argument is skipped without error and the stream rewinds.
func (b *Builder) OptionalWeak() *Builder { return b.Modifier(OptionalWeakModifier()) }

// Default inserts value under the key when the argument is missing or
// cannot be parsed; the stream rewinds so a later parameter may consume the
// token.
func (b *Builder) Default(value any) *Builder { return b.Modifier(DefaultModifier(value)) }

// Repeated requires the parameter to parse exactly times values.
func (b *Builder) Repeated(times int) *Builder { return b.Modifier(RepeatedModifier(times)) }

// AllOf makes the parameter consume and parse every remaining argument.
func (b *Builder) AllOf() *Builder { return b.Modifier(AllOfModifier()) }

// OnlyOne rejects the parse when the key ends up with more or fewer than
// one value.
func (b *Builder) OnlyOne() *Builder { return b.Modifier(OnlyOneModifier()) }

// Build creates the Parameter. It fails when the key or parser is missing.
func (b *Builder) Build() (Parameter, error) {
	if b.key == "" {
		return nil, fmt.Errorf("%w: key not set", ErrIncompleteBuilder)
	}
	if b.parser == nil {
		return nil, fmt.Errorf("%w: parser not set for key %q", ErrIncompleteBuilder, b.key)
	}
	return &built{
		key:        b.key,
		parser:     b.parser,
		completer:  b.completer,
		usage:      b.usage,
		modifiers:  b.modifiers,
		permission: b.permission,
	}, nil
}

// MustBuild is like Build but panics on error. Intended for package-level
// command declarations.
func (b *Builder) MustBuild() Parameter {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Parse implements Parameter.
func (p *built) Parse(src Source, args *Args, ctx *Context) error {
	if p.permission != "" && !src.HasPermission(p.permission) {
		return nil
	}

	// The innermost continuation parses one value and stores it. Modifiers
	// may invoke it zero or several times.
	parseOne := func() error {
		v, err := p.parser.ParseValue(src, args)
		if err != nil {
			return err
		}
		ctx.Put(p.key, v)
		return nil
	}

	next := parseOne
	for i := len(p.modifiers) - 1; i >= 0; i-- {
		mod := p.modifiers[i]
		inner := next
		next = func() error {
			return mod.ModifyParse(p.key, src, args, ctx, inner)
		}
	}
	err := next()
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Usage == "" {
			pe.Usage = p.Usage(src)
		}
	}
	return err
}

// Complete implements Parameter.
func (p *built) Complete(src Source, args *Args, ctx *Context) ([]string, error) {
	prefix := ""
	if tok, err := args.Peek(); err == nil {
		prefix = tok
	}

	if p.completer != nil {
		return p.completer.CompleteValue(src, prefix), nil
	}
	if c, ok := p.parser.(ValueCompleter); ok {
		return c.CompleteValue(src, prefix), nil
	}
	return nil, nil
}

// Usage implements Parameter.
func (p *built) Usage(src Source) string {
	var usage string
	switch {
	case p.usage != nil:
		usage = p.usage.UsageValue(p.key, src)
	default:
		if u, ok := p.parser.(ValueUsage); ok {
			usage = u.UsageValue(p.key, src)
		} else {
			usage = "<" + p.key + ">"
		}
	}
	for _, mod := range p.modifiers {
		if um, ok := mod.(UsageModifier); ok {
			usage = um.ModifyUsage(usage)
		}
	}
	return usage
}
