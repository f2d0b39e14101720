// SPDX-License-Identifier: MPL-2.0

package param

type (
	// Source is whoever is invoking the command. Parameters consult it for
	// permission-gated parsing and for source-sensitive completions.
	Source interface {
		// Name identifies the source in usage and error text.
		Name() string
		// HasPermission reports whether the source holds the permission.
		HasPermission(permission string) bool
	}

	// Context accumulates parsed values during one command invocation.
	// A key may collect several values (repeated or all-of parameters).
	Context struct {
		values map[string][]any
	}

	// StaticSource is a Source with a fixed name and permission set. The
	// zero value has no name and no permissions.
	StaticSource struct {
		SourceName  string
		Permissions []string
	}
)

// Name implements Source.
func (s StaticSource) Name() string { return s.SourceName }

// HasPermission implements Source.
func (s StaticSource) HasPermission(permission string) bool {
	for _, p := range s.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string][]any)}
}

// Put appends a value under key.
func (c *Context) Put(key string, value any) {
	c.values[key] = append(c.values[key], value)
}

// One returns the single value stored under key. The second return is false
// when the key is absent or holds more than one value.
func (c *Context) One(key string) (any, bool) {
	vs := c.values[key]
	if len(vs) != 1 {
		return nil, false
	}
	return vs[0], true
}

// All returns every value stored under key, in insertion order.
func (c *Context) All(key string) []any {
	vs := c.values[key]
	out := make([]any, len(vs))
	copy(out, vs)
	return out
}

// Has reports whether at least one value is stored under key.
func (c *Context) Has(key string) bool { return len(c.values[key]) > 0 }

// Count returns the number of values stored under key.
func (c *Context) Count(key string) int { return len(c.values[key]) }

// OneAs retrieves the single value under key as type T.
func OneAs[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.One(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// AllAs retrieves every value under key as type T, skipping values of other
// types.
func AllAs[T any](c *Context, key string) []T {
	var out []T
	for _, v := range c.All(key) {
		if typed, ok := v.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
