// SPDX-License-Identifier: MPL-2.0

// Package issue provides structured, user-facing error types.
//
// An ActionableError explains what failed and what the user can do
// about it. It wraps the underlying cause so errors.Is/errors.As
// still work through it.
package issue

import (
	"fmt"
	"strings"
)

// ActionableError is an error that carries context about the failed
// operation and suggestions for resolving it.
type ActionableError struct {
	// Operation describes what was being attempted, e.g. "load pack".
	Operation string
	// Resource identifies what the operation acted on, e.g. a pack id
	// or a resource path.
	Resource string
	// Suggestions lists concrete actions the user can take.
	Suggestions []string
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	var sb strings.Builder
	if e.Operation != "" {
		sb.WriteString("failed to ")
		sb.WriteString(e.Operation)
		if e.Resource != "" {
			sb.WriteString(" ")
			sb.WriteString(e.Resource)
		}
	} else if e.Resource != "" {
		sb.WriteString("error with ")
		sb.WriteString(e.Resource)
	} else {
		sb.WriteString("operation failed")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// HasSuggestions reports whether the error carries any suggestions.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Format renders the error for display. In verbose mode the
// suggestions are included, one per line.
func (e *ActionableError) Format(verbose bool) string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if verbose && e.HasSuggestions() {
		sb.WriteString("\n\nSuggestions:")
		for _, s := range e.Suggestions {
			sb.WriteString("\n  - ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// ErrorContext builds an ActionableError fluently.
type ErrorContext struct {
	operation   string
	resource    string
	suggestions []string
	cause       error
}

// NewErrorContext starts a new error builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets the operation description.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithOperationf sets the operation description with formatting.
func (c *ErrorContext) WithOperationf(format string, args ...any) *ErrorContext {
	c.operation = fmt.Sprintf(format, args...)
	return c
}

// WithResource sets the resource identifier.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends a single suggestion.
func (c *ErrorContext) WithSuggestion(s string) *ErrorContext {
	c.suggestions = append(c.suggestions, s)
	return c
}

// WithSuggestions appends multiple suggestions.
func (c *ErrorContext) WithSuggestions(ss ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, ss...)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build constructs the ActionableError.
func (c *ErrorContext) Build() *ActionableError {
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError constructs the ActionableError as a plain error value.
func (c *ErrorContext) BuildError() error {
	return c.Build()
}
