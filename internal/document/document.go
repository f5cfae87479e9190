// Package document holds the in-memory model of a QDB document: ordered
// mappings, sequences and JSON scalars, with helpers to inspect, clone and
// compare them.
//
// Mappings are *orderedmap.OrderedMap[string, any] so that the key order of
// the backing file survives a load/save cycle. Sequences are []any. Numbers
// are float64.
package document

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Mapping is an insertion-ordered JSON object.
type Mapping = orderedmap.OrderedMap[string, any]

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return orderedmap.New[string, any]()
}

// KindOf returns the container kind of v.
func KindOf(v any) types.Kind {
	switch v.(type) {
	case *Mapping:
		return types.KindMapping
	case []any:
		return types.KindSequence
	default:
		return types.KindNone
	}
}

// IsContainer reports whether v is a mapping or a sequence.
func IsContainer(v any) bool {
	return KindOf(v) != types.KindNone
}

// Len returns the number of entries of a container, or 0.
func Len(v any) int {
	switch c := v.(type) {
	case *Mapping:
		return c.Len()
	case []any:
		return len(c)
	}
	return 0
}

// Index parses a canonical non-negative decimal sequence index. "01", "-1"
// and "+1" are not indexes.
func Index(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 || strconv.Itoa(n) != seg {
		return 0, false
	}
	return n, true
}

// Child returns the entry of container v at key.
func Child(v any, key string) (any, bool) {
	switch c := v.(type) {
	case *Mapping:
		return c.Get(key)
	case []any:
		i, ok := Index(key)
		if !ok || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

// Each calls fn for every entry of container v in order until fn returns
// false. Sequence keys are decimal indexes.
func Each(v any, fn func(key string, value any) bool) {
	switch c := v.(type) {
	case *Mapping:
		for p := c.Oldest(); p != nil; p = p.Next() {
			if !fn(p.Key, p.Value) {
				return
			}
		}
	case []any:
		for i, e := range c {
			if !fn(strconv.Itoa(i), e) {
				return
			}
		}
	}
}

// Keys returns the keys of container v in order.
func Keys(v any) []string {
	keys := make([]string, 0, Len(v))
	Each(v, func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// IndexOf returns the position of the first element of s equal to item.
func IndexOf(s []any, item any) int {
	for i, e := range s {
		if Equal(e, item) {
			return i
		}
	}
	return -1
}

// ShallowClone copies the top level of a container. Other values are
// returned as is.
func ShallowClone(v any) any {
	switch c := v.(type) {
	case *Mapping:
		m := NewMapping()
		for p := c.Oldest(); p != nil; p = p.Next() {
			m.Set(p.Key, p.Value)
		}
		return m
	case []any:
		s := make([]any, len(c))
		copy(s, c)
		return s
	}
	return v
}

// Clone copies v recursively.
func Clone(v any) any {
	switch c := v.(type) {
	case *Mapping:
		m := NewMapping()
		for p := c.Oldest(); p != nil; p = p.Next() {
			m.Set(p.Key, Clone(p.Value))
		}
		return m
	case []any:
		s := make([]any, len(c))
		for i, e := range c {
			s[i] = Clone(e)
		}
		return s
	}
	return v
}

// Equal reports whether a and b hold the same JSON value. Mapping key order
// is not significant.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		y, ok := b.(*Mapping)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for p := x.Oldest(); p != nil; p = p.Next() {
			v, ok := y.Get(p.Key)
			if !ok || !Equal(p.Value, v) {
				return false
			}
		}
		return true
	}
	return false
}
