// SPDX-License-Identifier: MPL-2.0

package param

type (
	// Parameter defines how one element of a command argument string is
	// parsed. Parse consumes tokens and stores values in the context;
	// Complete proposes completions for the token at the cursor; Usage
	// renders the parameter for help text.
	Parameter interface {
		Parse(src Source, args *Args, ctx *Context) error
		Complete(src Source, args *Args, ctx *Context) ([]string, error)
		Usage(src Source) string
	}

	// ValueParser extracts a single value from the argument stream.
	ValueParser interface {
		ParseValue(src Source, args *Args) (any, error)
	}

	// ValueCompleter proposes completions for a partial token. Returned
	// candidates are already filtered against prefix.
	ValueCompleter interface {
		CompleteValue(src Source, prefix string) []string
	}

	// ValueUsage overrides how a parameter renders in usage text.
	ValueUsage interface {
		UsageValue(key string, src Source) string
	}

	// ParseNext is the continuation a Modifier wraps. Each invocation runs
	// the remainder of the modifier chain and finally the value parser,
	// consuming one element and storing it in the context.
	ParseNext func() error

	// Modifier changes the parse behavior of a parameter. Modifiers wrap
	// around the parser call: the first modifier added is invoked first and
	// is expected to call next to reach later modifiers and the parser.
	Modifier interface {
		ModifyParse(key string, src Source, args *Args, ctx *Context, next ParseNext) error
	}

	// UsageModifier is optionally implemented by modifiers that change how
	// the parameter renders in usage text (e.g. optional brackets).
	UsageModifier interface {
		ModifyUsage(usage string) string
	}

	// ParserFunc adapts a function to the ValueParser interface.
	ParserFunc func(src Source, args *Args) (any, error)

	// CompleterFunc adapts a function to the ValueCompleter interface.
	CompleterFunc func(src Source, prefix string) []string
)

// ParseValue implements ValueParser.
func (f ParserFunc) ParseValue(src Source, args *Args) (any, error) { return f(src, args) }

// CompleteValue implements ValueCompleter.
func (f CompleterFunc) CompleteValue(src Source, prefix string) []string { return f(src, prefix) }
