package agents

import (
	"fmt"
	"strconv"
	"strings"
)

// FallbackLanguage is consulted when a string is missing in the requested
// language.
const FallbackLanguage = "en"

// Catalog is an agent's configuration tree as served by the backend:
// localized strings keyed by language, plus any agent settings.
type Catalog struct {
	tree map[string]any
}

func NewCatalog(tree map[string]any) *Catalog {
	if tree == nil {
		tree = map[string]any{}
	}
	return &Catalog{tree: tree}
}

// Lookup resolves a dot separated path below a language, e.g.
// Lookup("fr", "errors.generic").
func (c *Catalog) Lookup(lang, path string) (any, bool) {
	if c == nil {
		return nil, false
	}
	root, ok := c.tree[lang]
	if !ok {
		return nil, false
	}
	return deepGet(root, path)
}

// T returns the localized string at path, falling back first to
// [FallbackLanguage] and then to fallback.
func (c *Catalog) T(lang, path, fallback string) string {
	for _, l := range []string{lang, FallbackLanguage} {
		if value, ok := c.Lookup(l, path); ok {
			if s := toString(value); s != "" {
				return s
			}
		}
	}
	return fallback
}

// Setting resolves a dot separated path from the root of the tree.
func (c *Catalog) Setting(path string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return deepGet(c.tree, path)
}

// Merge returns a new catalog with override layered over c.
func (c *Catalog) Merge(override map[string]any) *Catalog {
	var base map[string]any
	if c != nil {
		base = c.tree
	}
	return NewCatalog(DeepMerge(base, override))
}

// Tree returns a copy of the underlying tree.
func (c *Catalog) Tree() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return DeepMerge(nil, c.tree)
}

// DeepMerge merges override into base without modifying either. Nested maps
// are merged key by key, any other override value replaces the base value.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		existing, ok := out[k].(map[string]any)
		if next, isMap := v.(map[string]any); ok && isMap {
			out[k] = DeepMerge(existing, next)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepMerge(nil, t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

func deepGet(root any, path string) (any, bool) {
	cur := root
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
