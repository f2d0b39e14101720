// SPDX-License-Identifier: MPL-2.0

package param

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"bastion/pkg/respath"
)

// boolTokens maps the accepted boolean spellings to their values.
var boolTokens = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "0": false,
}

type (
	boolParser         struct{}
	intParser          struct{}
	floatParser        struct{}
	stringParser       struct{}
	durationParser     struct{}
	remainingParser    struct{}
	remainingRawParser struct{}
	pathParser         struct{}

	choicesParser struct {
		choices     func() map[string]any
		showInUsage bool
	}

	literalParser struct {
		literals []string
		value    any
	}
)

// BoolValue parses "true"/"false" and common spellings thereof.
func BoolValue() ValueParser { return boolParser{} }

// IntValue parses a base-10 int64.
func IntValue() ValueParser { return intParser{} }

// FloatValue parses a float64.
func FloatValue() ValueParser { return floatParser{} }

// StringValue consumes a single token verbatim.
func StringValue() ValueParser { return stringParser{} }

// DurationValue parses a Go duration string such as "1m30s".
func DurationValue() ValueParser { return durationParser{} }

// RemainingValue joins every remaining token with single spaces.
func RemainingValue() ValueParser { return remainingParser{} }

// RemainingRawValue returns the raw remainder of the input line, quotes
// and escapes included, consuming every remaining token.
func RemainingRawValue() ValueParser { return remainingRawParser{} }

// PathValue parses a namespaced resource path.
func PathValue() ValueParser { return pathParser{} }

// ChoicesValue accepts one of a fixed set of tokens, storing the mapped
// value. When showInUsage is set, usage text lists the choices.
func ChoicesValue(choices map[string]any, showInUsage bool) ValueParser {
	return choicesParser{choices: func() map[string]any { return choices }, showInUsage: showInUsage}
}

// DynamicChoicesValue is ChoicesValue with choices supplied at parse time.
func DynamicChoicesValue(supplier func() map[string]any) ValueParser {
	return choicesParser{choices: supplier}
}

// LiteralValue accepts any of the given literal tokens (case-insensitive)
// and stores value.
func LiteralValue(value any, literals ...string) ValueParser {
	return literalParser{literals: literals, value: value}
}

// LookupValue parses a resource path and resolves it through a catalog
// lookup. what names the catalog in error messages (e.g. "key"). Paths
// that resolve to nothing fail the parse.
func LookupValue[T any](what string, lookup func(respath.Path) (T, bool)) ValueParser {
	return ParserFunc(func(src Source, args *Args) (any, error) {
		tok, err := args.Next()
		if err != nil {
			return nil, err
		}
		p, err := respath.Parse(tok)
		if err != nil {
			return nil, args.errorHere("%v", err)
		}
		v, ok := lookup(p)
		if !ok {
			return nil, args.errorHere("unknown %s %q", what, tok)
		}
		return v, nil
	})
}

func (boolParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	v, ok := boolTokens[strings.ToLower(tok)]
	if !ok {
		return nil, args.errorHere("expected true or false")
	}
	return v, nil
}

func (boolParser) CompleteValue(src Source, prefix string) []string {
	return filterPrefix([]string{"false", "true"}, prefix)
}

func (intParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, args.errorHere("expected an integer")
	}
	return v, nil
}

func (floatParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, args.errorHere("expected a number")
	}
	return v, nil
}

func (stringParser) ParseValue(src Source, args *Args) (any, error) {
	return args.Next()
}

func (durationParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	v, err := time.ParseDuration(tok)
	if err != nil {
		return nil, args.errorHere("expected a duration such as 1m30s")
	}
	return v, nil
}

func (remainingParser) ParseValue(src Source, args *Args) (any, error) {
	if !args.HasNext() {
		return nil, ErrNotEnoughArguments
	}
	return strings.Join(args.ConsumeAll(), " "), nil
}

func (remainingParser) UsageValue(key string, src Source) string {
	return "<" + key + "...>"
}

func (remainingRawParser) ParseValue(src Source, args *Args) (any, error) {
	if !args.HasNext() {
		return nil, ErrNotEnoughArguments
	}
	return args.RawRemaining(), nil
}

func (remainingRawParser) UsageValue(key string, src Source) string {
	return "<" + key + "...>"
}

func (pathParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	p, err := respath.Parse(tok)
	if err != nil {
		return nil, args.errorHere("%v", err)
	}
	return p, nil
}

func (c choicesParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	choices := c.choices()
	if v, ok := choices[tok]; ok {
		return v, nil
	}
	return nil, args.errorHere("expected one of: %s", strings.Join(choiceNames(choices), ", "))
}

func (c choicesParser) CompleteValue(src Source, prefix string) []string {
	return filterPrefix(choiceNames(c.choices()), prefix)
}

func (c choicesParser) UsageValue(key string, src Source) string {
	if !c.showInUsage {
		return "<" + key + ">"
	}
	return "<" + strings.Join(choiceNames(c.choices()), "|") + ">"
}

func (l literalParser) ParseValue(src Source, args *Args) (any, error) {
	tok, err := args.Next()
	if err != nil {
		return nil, err
	}
	for _, lit := range l.literals {
		if strings.EqualFold(tok, lit) {
			return l.value, nil
		}
	}
	return nil, args.errorHere("expected one of: %s", strings.Join(l.literals, ", "))
}

func (l literalParser) CompleteValue(src Source, prefix string) []string {
	return filterPrefix(l.literals, prefixLower(prefix))
}

func (l literalParser) UsageValue(key string, src Source) string {
	return strings.Join(l.literals, "|")
}

// choiceNames returns the sorted choice tokens.
func choiceNames(choices map[string]any) []string {
	names := make([]string, 0, len(choices))
	for name := range choices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// filterPrefix returns the candidates starting with prefix, sorted.
func filterPrefix(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func prefixLower(s string) string { return strings.ToLower(s) }

// Convenience builders for the standard parameter shapes.

// Bool returns a builder for a boolean parameter stored under key.
func Bool(key string) *Builder { return NewBuilder().Key(key).Parser(BoolValue()) }

// Int returns a builder for an integer parameter stored under key.
func Int(key string) *Builder { return NewBuilder().Key(key).Parser(IntValue()) }

// Float returns a builder for a floating-point parameter stored under key.
func Float(key string) *Builder { return NewBuilder().Key(key).Parser(FloatValue()) }

// String returns a builder for a single-token string parameter.
func String(key string) *Builder { return NewBuilder().Key(key).Parser(StringValue()) }

// Duration returns a builder for a duration parameter.
func Duration(key string) *Builder { return NewBuilder().Key(key).Parser(DurationValue()) }

// Remaining returns a builder joining all remaining tokens into one string.
func Remaining(key string) *Builder { return NewBuilder().Key(key).Parser(RemainingValue()) }

// RemainingRaw returns a builder capturing the raw remainder of the input.
func RemainingRaw(key string) *Builder { return NewBuilder().Key(key).Parser(RemainingRawValue()) }

// Path returns a builder for a namespaced resource path parameter.
func Path(key string) *Builder { return NewBuilder().Key(key).Parser(PathValue()) }

// Choices returns a builder accepting one of the given tokens.
func Choices(key string, choices map[string]any) *Builder {
	return NewBuilder().Key(key).Parser(ChoicesValue(choices, true))
}

// Literal returns a builder matching one of the literal tokens and storing
// value under key.
func Literal(key string, value any, literals ...string) *Builder {
	return NewBuilder().Key(key).Parser(LiteralValue(value, literals...))
}
