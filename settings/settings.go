// Package settings provides the nested settings value of a model and its
// flattened, dotted-key storage form.
package settings

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Separator joins the path segments of a flattened key.
const Separator = "."

// Value is a nested settings structure. Leaves are scalars (string, bool,
// int, float64 or nil) and branches are Values.
type Value map[string]any

// Flat is the flattened form of a Value, keyed by dotted path, with leaves
// encoded by EncodeLeaf.
type Flat map[string]string

// Keys returns the keys of f in sorted order.
func (f Flat) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at the dotted path.
func (v Value) Get(path string) (any, bool) {
	var cur any = v
	for _, seg := range strings.Split(path, Separator) {
		m, ok := branch(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	c := make(Value, len(v))
	for k, x := range v {
		if m, ok := branch(x); ok {
			c[k] = Value(m).Clone()
			continue
		}
		c[k] = x
	}
	return c
}

// Merge returns a copy of base with the top-level keys of over replacing
// those of base. Nested values are replaced whole, not merged.
func Merge(base, over Value) Value {
	m := base.Clone()
	if m == nil {
		m = make(Value, len(over))
	}
	for k, x := range over.Clone() {
		m[k] = x
	}
	return m
}

// Flatten flattens v into dotted keys with encoded leaves. Empty branches
// have no flat representation and are dropped.
func Flatten(v Value) (Flat, error) {
	f := make(Flat)
	if err := flatten(f, "", v); err != nil {
		return nil, err
	}
	return f, nil
}

func flatten(f Flat, prefix string, v map[string]any) error {
	for k, x := range v {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		if m, ok := branch(x); ok {
			if err := flatten(f, key, m); err != nil {
				return err
			}
			continue
		}
		s, err := EncodeLeaf(x)
		if err != nil {
			return fmt.Errorf("settings: key %q: %w", key, err)
		}
		f[key] = s
	}
	return nil
}

// Expand rebuilds the nested Value from its flattened form. When a key is
// both a leaf and the prefix of another key, the branch wins.
func Expand(f Flat) Value {
	v := make(Value)
	for _, key := range f.Keys() {
		segs := strings.Split(key, Separator)
		cur := v
		for _, seg := range segs[:len(segs)-1] {
			next, ok := cur[seg].(Value)
			if !ok {
				next = make(Value)
				cur[seg] = next
			}
			cur = next
		}
		last := segs[len(segs)-1]
		if _, ok := cur[last].(Value); ok {
			continue
		}
		cur[last] = DecodeLeaf(f[key])
	}
	return v
}

// EncodeLeaf encodes a scalar leaf as a YAML scalar. Strings that would
// read back as another type are quoted.
func EncodeLeaf(x any) (string, error) {
	switch x.(type) {
	case nil, string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
	default:
		return "", fmt.Errorf("unsupported leaf type %T", x)
	}
	b, err := yaml.Marshal(x)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}

// DecodeLeaf decodes a stored leaf. Values that are not valid YAML scalars
// are returned as the raw string.
func DecodeLeaf(s string) any {
	var x any
	if err := yaml.Unmarshal([]byte(s), &x); err != nil {
		return s
	}
	switch x.(type) {
	case nil:
		if s == "" {
			return ""
		}
		return nil
	case string, bool, int, float64:
		return x
	}
	return s
}

func branch(x any) (map[string]any, bool) {
	switch m := x.(type) {
	case Value:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}
