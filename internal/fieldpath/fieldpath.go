// Package fieldpath converts between nested submission records and flat
// dot-separated field paths. Every component that diffs, compares, or
// patches snapshots goes through this codec so a field is addressed the
// same way everywhere.
package fieldpath

import "strings"

const sep = "."

// Flatten converts a nested record into a map of dot-separated paths to
// leaf values. Nested maps recurse; everything else (strings, numbers,
// booleans, nil, slices) is a leaf. Empty nested maps produce no paths.
func Flatten(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	flattenInto("", data, out)
	return out
}

func flattenInto(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + sep + k
		}
		if child, ok := v.(map[string]any); ok {
			flattenInto(key, child, out)
			continue
		}
		out[key] = v
	}
}

// Unflatten rebuilds a nested record from a flat path map. It is the
// inverse of Flatten: Unflatten(Flatten(r)) == r for records without
// empty subtrees.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for path, value := range flat {
		Set(out, path, value)
	}
	return out
}

// Get returns the leaf value at path, reporting whether it exists.
func Get(data map[string]any, path string) (any, bool) {
	keys := strings.Split(path, sep)
	current := data
	for _, k := range keys[:len(keys)-1] {
		child, ok := current[k].(map[string]any)
		if !ok {
			return nil, false
		}
		current = child
	}
	v, ok := current[keys[len(keys)-1]]
	return v, ok
}

// Set writes value at path, creating intermediate maps as needed. A
// non-map value sitting on an intermediate segment is replaced.
func Set(data map[string]any, path string, value any) {
	keys := strings.Split(path, sep)
	current := data
	for _, k := range keys[:len(keys)-1] {
		child, ok := current[k].(map[string]any)
		if !ok {
			child = make(map[string]any)
			current[k] = child
		}
		current = child
	}
	current[keys[len(keys)-1]] = value
}

// Delete removes the leaf at path. Missing intermediate segments are a
// no-op. Emptied parent maps are pruned so flattening stays clean.
func Delete(data map[string]any, path string) {
	keys := strings.Split(path, sep)
	deleteIn(data, keys)
}

func deleteIn(m map[string]any, keys []string) {
	if len(keys) == 1 {
		delete(m, keys[0])
		return
	}
	child, ok := m[keys[0]].(map[string]any)
	if !ok {
		return
	}
	deleteIn(child, keys[1:])
	if len(child) == 0 {
		delete(m, keys[0])
	}
}

// Clone deep-copies a record. Leaf values are shared; only the map
// structure is duplicated, which is enough because leaves are scalars.
func Clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if child, ok := v.(map[string]any); ok {
			out[k] = Clone(child)
			continue
		}
		out[k] = v
	}
	return out
}

// MatchPattern reports whether a dot-separated path matches a pattern.
// Patterns use the same dot syntax; a "*" segment matches exactly one
// path segment. Used for the configured critical-field list.
func MatchPattern(pattern, path string) bool {
	if pattern == path {
		return true
	}
	pp := strings.Split(pattern, sep)
	sp := strings.Split(path, sep)
	if len(pp) != len(sp) {
		return false
	}
	for i := range pp {
		if pp[i] != "*" && pp[i] != sp[i] {
			return false
		}
	}
	return true
}

// MatchAny reports whether path matches any of the patterns.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchPattern(p, path) {
			return true
		}
	}
	return false
}
