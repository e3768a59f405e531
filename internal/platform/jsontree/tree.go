// Package jsontree edits decoded JSON documents addressed by slash paths.
//
// Nodes are the shapes produced by decoding JSON into any: map[string]any,
// []any, string, float64, bool and nil. Writing nil deletes a key and prunes
// parents left empty, which matches how real-time document stores treat
// null.
package jsontree

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Split turns "a/b//c/" into ["a","b","c"]. The root path is empty.
func Split(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	out := raw[:0]
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Join(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(part, "/"); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return strings.Join(clean, "/")
}

// Root returns the first segment of path.
func Root(path string) string {
	parts := Split(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Related reports whether a write at one path can change the value at the other.
func Related(a, b string) bool {
	pa, pb := Split(a), Split(b)
	n := min(len(pa), len(pb))
	for i := 0; i < n; i++ {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// Get returns the node at path or nil.
func Get(root any, path []string) any {
	node := root
	for _, key := range path {
		next, ok := child(node, key)
		if !ok {
			return nil
		}
		node = next
	}
	return node
}

// Set stores value at path and returns the new root. A nil value deletes.
func Set(root any, path []string, value any) any {
	if len(path) == 0 {
		return prune(value)
	}

	node := asObject(root)
	key := path[0]
	if len(path) == 1 {
		if isEmpty(value) {
			delete(node, key)
		} else {
			node[key] = value
		}
	} else {
		next := Set(node[key], path[1:], value)
		if next == nil {
			delete(node, key)
		} else {
			node[key] = next
		}
	}

	if len(node) == 0 {
		return nil
	}
	return node
}

// Update applies each field, whose key may itself be a relative path, under path.
func Update(root any, path []string, fields map[string]any) any {
	for key, value := range fields {
		full := append(append([]string(nil), path...), Split(key)...)
		root = Set(root, full, value)
	}
	return root
}

// Normalize turns a typed Go value into the plain node shape by a JSON
// round trip.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return nil, err
	}
	var node any
	if err := sonic.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return node, nil
}

// Clone deep-copies maps and slices.
func Clone(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

func child(node any, key string) (any, bool) {
	switch v := node.(type) {
	case map[string]any:
		item, ok := v[key]
		return item, ok
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], v[idx] != nil
	default:
		return nil, false
	}
}

func asObject(node any) map[string]any {
	switch v := node.(type) {
	case map[string]any:
		return v
	case []any:
		out := make(map[string]any, len(v))
		for i, item := range v {
			if item != nil {
				out[strconv.Itoa(i)] = item
			}
		}
		return out
	default:
		return make(map[string]any)
	}
}

func prune(node any) any {
	if isEmpty(node) {
		return nil
	}
	return node
}

func isEmpty(node any) bool {
	switch v := node.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
