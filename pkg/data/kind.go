// SPDX-License-Identifier: MPL-2.0

package data

import (
	"time"

	"bastion/pkg/respath"
)

// Kind identifies the Go type a Key's values must have.
type Kind int

const (
	// KindAny places no constraint on the value type.
	KindAny Kind = iota
	// KindBool is for bool values.
	KindBool
	// KindInt is for int64 values.
	KindInt
	// KindFloat is for float64 values.
	KindFloat
	// KindString is for string values.
	KindString
	// KindDuration is for time.Duration values.
	KindDuration
	// KindStringList is for []string values.
	KindStringList
	// KindPath is for respath.Path values.
	KindPath
	// KindMap is for map[string]any values.
	KindMap
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDuration:
		return "duration"
	case KindStringList:
		return "string list"
	case KindPath:
		return "resource path"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Matches reports whether v is an acceptable value for the kind.
func (k Kind) Matches(v any) bool {
	switch k {
	case KindAny:
		return true
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindDuration:
		_, ok := v.(time.Duration)
		return ok
	case KindStringList:
		_, ok := v.([]string)
		return ok
	case KindPath:
		_, ok := v.(respath.Path)
		return ok
	case KindMap:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}
