// SPDX-License-Identifier: MPL-2.0

package param

import "fmt"

type (
	optionalMod     struct{}
	optionalWeakMod struct{}
	defaultMod      struct {
		value func(src Source) (any, bool)
	}
	repeatedMod struct {
		times int
	}
	allOfMod   struct{}
	onlyOneMod struct{}
)

// OptionalModifier skips the parameter when no argument remains. A present
// but unparseable argument still fails.
func OptionalModifier() Modifier { return optionalMod{} }

// OptionalWeakModifier skips the parameter when no argument remains or the
// argument cannot be parsed; on failure the stream rewinds so the token
// stays available to later parameters.
func OptionalWeakModifier() Modifier { return optionalWeakMod{} }

// DefaultModifier inserts value when the argument is missing or cannot be
// parsed. On parse failure the stream rewinds, leaving the token to later
// parameters.
func DefaultModifier(value any) Modifier {
	return defaultMod{value: func(Source) (any, bool) { return value, true }}
}

// DefaultFuncModifier is DefaultModifier with a source-dependent fallback.
// When fn reports false, the original parse error is surfaced.
func DefaultFuncModifier(fn func(src Source) (any, bool)) Modifier {
	return defaultMod{value: fn}
}

// RepeatedModifier parses the value exactly times times.
func RepeatedModifier(times int) Modifier { return repeatedMod{times: times} }

// AllOfModifier parses values until the stream is exhausted.
func AllOfModifier() Modifier { return allOfMod{} }

// OnlyOneModifier fails the parse unless the key holds exactly one value
// afterwards.
func OnlyOneModifier() Modifier { return onlyOneMod{} }

func (optionalMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	if !args.HasNext() {
		return nil
	}
	return next()
}

func (optionalMod) ModifyUsage(usage string) string { return "[" + usage + "]" }

func (optionalWeakMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	if !args.HasNext() {
		return nil
	}
	snap := args.Snapshot()
	if err := next(); err != nil {
		args.Restore(snap)
		return nil
	}
	return nil
}

func (optionalWeakMod) ModifyUsage(usage string) string { return "[" + usage + "]" }

func (d defaultMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	if !args.HasNext() {
		if v, ok := d.value(src); ok {
			ctx.Put(key, v)
			return nil
		}
		return ErrNotEnoughArguments
	}
	snap := args.Snapshot()
	err := next()
	if err == nil {
		return nil
	}
	if v, ok := d.value(src); ok {
		args.Restore(snap)
		ctx.Put(key, v)
		return nil
	}
	return err
}

func (defaultMod) ModifyUsage(usage string) string { return "[" + usage + "]" }

func (r repeatedMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	for i := 0; i < r.times; i++ {
		if err := next(); err != nil {
			return err
		}
	}
	return nil
}

func (r repeatedMod) ModifyUsage(usage string) string {
	return fmt.Sprintf("%s{%d}", usage, r.times)
}

func (allOfMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	for args.HasNext() {
		if err := next(); err != nil {
			return err
		}
	}
	return nil
}

func (allOfMod) ModifyUsage(usage string) string { return usage + "..." }

func (onlyOneMod) ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error {
	if err := next(); err != nil {
		return err
	}
	if n := ctx.Count(key); n != 1 {
		return args.errorHere("expected exactly one value for %q, got %d", key, n)
	}
	return nil
}
