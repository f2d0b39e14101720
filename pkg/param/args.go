// SPDX-License-Identifier: MPL-2.0

// Package param implements the command argument grammar: a tokenized
// argument stream, an execution context collecting parsed values under
// typed keys, and composable parameters built from value parsers,
// modifiers, and combinators. Parameters report completions and usage text
// in addition to parsing.
package param

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("argument parse error")

	// ErrNotEnoughArguments is returned when a parameter needs a token but
	// the stream is exhausted.
	ErrNotEnoughArguments = fmt.Errorf("%w: not enough arguments", ErrParse)
)

type (
	// ParseError describes a failure to parse one argument. Position is the
	// index of the offending token within the stream. Usage is filled in by
	// the failing parameter.
	ParseError struct {
		Arg      string
		Position int
		Message  string
		Usage    string
	}

	// Args is a cursor over tokenized command arguments. Snapshot and
	// Restore enable backtracking, which firstOf and the weak-optional
	// modifier rely on. starts holds the byte offset of each token within
	// raw, for raw-remainder extraction.
	Args struct {
		tokens []string
		starts []int
		raw    string
		pos    int
	}

	// Snapshot captures the cursor state of an Args stream.
	Snapshot struct {
		pos int
	}
)

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	var msg string
	if e.Arg == "" {
		msg = fmt.Sprintf("at argument %d: %s", e.Position, e.Message)
	} else {
		msg = fmt.Sprintf("at argument %d (%q): %s", e.Position, e.Arg, e.Message)
	}
	if e.Usage != "" {
		msg += fmt.Sprintf(" (usage: %s)", e.Usage)
	}
	return msg
}

// Unwrap returns ErrParse for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrParse }

// Tokenize splits a raw command line into argument tokens. Double quotes
// group words into a single token and backslashes escape the next rune.
// An unterminated quote is not an error; the remainder forms one token.
func Tokenize(line string) *Args {
	var (
		tokens  []string
		starts  []int
		current strings.Builder
		quoted  bool
		escaped bool
		started bool
	)

	mark := func(i int) {
		if !started {
			starts = append(starts, i)
			started = true
		}
	}

	for i, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			mark(i)
		case r == '"':
			quoted = !quoted
			mark(i)
		case r == ' ' && !quoted:
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			mark(i)
		}
	}
	if started {
		tokens = append(tokens, current.String())
	}

	return &Args{tokens: tokens, starts: starts, raw: line}
}

// NewArgs wraps pre-split tokens, e.g. os.Args style input.
func NewArgs(tokens []string) *Args {
	starts := make([]int, len(tokens))
	offset := 0
	for i, tok := range tokens {
		starts[i] = offset
		offset += len(tok) + 1
	}
	return &Args{tokens: tokens, starts: starts, raw: strings.Join(tokens, " ")}
}

// HasNext reports whether another token is available.
func (a *Args) HasNext() bool { return a.pos < len(a.tokens) }

// Next consumes and returns the next token.
func (a *Args) Next() (string, error) {
	if !a.HasNext() {
		return "", ErrNotEnoughArguments
	}
	tok := a.tokens[a.pos]
	a.pos++
	return tok, nil
}

// Peek returns the next token without consuming it.
func (a *Args) Peek() (string, error) {
	if !a.HasNext() {
		return "", ErrNotEnoughArguments
	}
	return a.tokens[a.pos], nil
}

// Position returns the index of the next token.
func (a *Args) Position() int { return a.pos }

// Remaining returns the unconsumed tokens without advancing the cursor.
func (a *Args) Remaining() []string {
	rest := make([]string, len(a.tokens)-a.pos)
	copy(rest, a.tokens[a.pos:])
	return rest
}

// ConsumeAll consumes and returns every remaining token.
func (a *Args) ConsumeAll() []string {
	rest := a.Remaining()
	a.pos = len(a.tokens)
	return rest
}

// Raw returns the original unsplit input line.
func (a *Args) Raw() string { return a.raw }

// RawRemaining returns the raw input from the next token onward, quotes
// and escapes included, and consumes the rest of the stream. It returns
// "" when the stream is exhausted.
func (a *Args) RawRemaining() string {
	if !a.HasNext() {
		return ""
	}
	rest := a.raw[a.starts[a.pos]:]
	a.pos = len(a.tokens)
	return rest
}

// Snapshot captures the cursor so a failed parse attempt can be rolled back.
func (a *Args) Snapshot() Snapshot { return Snapshot{pos: a.pos} }

// Restore rewinds the cursor to a previously captured snapshot.
func (a *Args) Restore(s Snapshot) { a.pos = s.pos }

// errorHere builds a ParseError for the token at the current cursor, or for
// the end of the stream when exhausted.
func (a *Args) errorHere(format string, argv ...any) error {
	arg := ""
	if a.pos > 0 && a.pos <= len(a.tokens) {
		arg = a.tokens[a.pos-1]
	}
	return &ParseError{
		Arg:      arg,
		Position: a.pos,
		Message:  fmt.Sprintf(format, argv...),
	}
}
