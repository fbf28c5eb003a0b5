// Package options implements the ordered option mapping shared by the site
// file, folder files and entry front-matter, and the cascading merge rules
// applied between them.
package options

import (
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Keys with special merge semantics.
const (
	KeyTags   = "tags"
	KeyPrefix = "prefix"
)

// Map is an ordered key/value mapping. Values are scalars, []any sequences or
// nested *Map values. The zero value is an empty map ready to use.
type Map struct {
	keys   []string
	values map[string]any
}

// New returns an empty map.
func New() *Map { return &Map{values: map[string]any{}} }

// FromPairs builds a map from alternating key/value arguments. It panics on
// an odd argument count or a non-string key and is meant for defaults and tests.
func FromPairs(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("options: FromPairs needs an even number of arguments")
	}
	m := New()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("options: key %v is not a string", kv[i]))
		}
		m.Set(k, kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// String returns the value under key rendered as a string, or "" when absent.
func (m *Map) String(key string) string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return ""
	}
	return scalarString(v)
}

// Bool returns the value under key as a bool. Absent or non-boolean values
// return def.
func (m *Map) Bool(key string, def bool) bool {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// Int returns the value under key as an int. Numeric strings are accepted.
func (m *Map) Int(key string, def int) int {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	if n, ok := toInt(v); ok {
		return n
	}
	return def
}

// Strings returns the value under key as a string slice. A scalar value is
// returned as a one-element slice.
func (m *Map) Strings(key string) []string {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			out = append(out, scalarString(item))
		}
		return out
	default:
		return []string{scalarString(v)}
	}
}

// Ints returns the value under key as an int slice, dropping non-numeric items.
func (m *Map) Ints(key string) []int {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		if n, ok := toInt(v); ok {
			return []int{n}
		}
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := toInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := New()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

// ToMap converts m into plain nested map[string]any values, which is the
// shape template engines index into.
func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping node preserving key order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromNode(node)
	if err != nil {
		return err
	}
	switch decoded := v.(type) {
	case *Map:
		*m = *decoded
	case nil:
		*m = Map{values: map[string]any{}}
	default:
		return fmt.Errorf("options: expected a mapping, got %s", node.Tag)
	}
	return nil
}

// Parse decodes a YAML document into a Map. An empty document yields an
// empty map.
func Parse(data []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return New(), nil
	}
	m := New()
	if err := m.UnmarshalYAML(doc.Content[0]); err != nil {
		return nil, err
	}
	return m, nil
}

func fromNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])
	case yaml.AliasNode:
		return fromNode(node.Alias)
	case yaml.MappingNode:
		m := New()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Tag == "!!merge" {
				inherited, err := fromNode(valNode)
				if err != nil {
					return nil, err
				}
				if im, ok := inherited.(*Map); ok {
					for _, k := range im.keys {
						if !m.Has(k) {
							m.Set(k, im.values[k])
						}
					}
				}
				continue
			}
			v, err := fromNode(valNode)
			if err != nil {
				return nil, err
			}
			m.Set(keyNode.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Normalize returns s in Unicode NFC form.
func Normalize(s string) string { return norm.NFC.String(s) }

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToMap()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}
