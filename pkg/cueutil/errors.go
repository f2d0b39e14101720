// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// DescribeError rewrites a CUE evaluation error into
// "<file>: <field path>: <message>" form, one line per finding. Field
// paths use bracket notation for list indices, e.g. packs[0].id.
func DescribeError(err error, file string) error {
	if err == nil {
		return nil
	}
	all := cueerrors.Errors(err)
	if len(all) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		p := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if p != "" {
			// CUE sometimes repeats the path inside the message.
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, p), ":"))
			lines = append(lines, p+": "+msg)
			continue
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", file, lines[0])
	}
	return fmt.Errorf("%s:\n  %s", file, strings.Join(lines, "\n  "))
}

// fieldPath renders a CUE error path, a flat slice like
// ["packs", "0", "id"], as packs[0].id.
func fieldPath(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[")
			b.WriteString(part)
			b.WriteString("]")
		case i > 0:
			b.WriteString(".")
			b.WriteString(part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
