// Package collection provides insertion-ordered keyed containers: Collection,
// and the specializations Cache, DataStore and Manager built on it.
//
// None of the types are safe for concurrent use.
package collection

import (
	"iter"
	"math/rand/v2"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Collection is a map with unique keys that remembers insertion order.
// Keys and Values are materialized lazily and cached until the next Set,
// Delete or Clear.
type Collection[K comparable, V any] struct {
	m *orderedmap.OrderedMap[K, V]

	keyCache   []K
	valueCache []V
}

// Pair is a key/value entry used to seed a Collection.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// New returns a Collection holding pairs in order.
func New[K comparable, V any](pairs ...Pair[K, V]) *Collection[K, V] {
	c := &Collection[K, V]{m: orderedmap.New[K, V]()}
	for _, p := range pairs {
		c.Set(p.Key, p.Value)
	}
	return c
}

func (c *Collection[K, V]) invalidate() {
	c.keyCache, c.valueCache = nil, nil
}

// Set stores value under key. An existing key keeps its position.
func (c *Collection[K, V]) Set(key K, value V) *Collection[K, V] {
	c.invalidate()
	c.m.Set(key, value)
	return c
}

// Get returns the value stored under key.
func (c *Collection[K, V]) Get(key K) (V, bool) {
	return c.m.Get(key)
}

// Has reports whether key is present.
func (c *Collection[K, V]) Has(key K) bool {
	_, ok := c.m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (c *Collection[K, V]) Delete(key K) bool {
	c.invalidate()
	_, ok := c.m.Delete(key)
	return ok
}

// Clear removes every entry.
func (c *Collection[K, V]) Clear() {
	c.invalidate()
	c.m = orderedmap.New[K, V]()
}

// Len returns the number of entries.
func (c *Collection[K, V]) Len() int {
	return c.m.Len()
}

// Keys returns the keys in order. The slice is shared until the next
// change and must not be modified.
func (c *Collection[K, V]) Keys() []K {
	if c.keyCache == nil || len(c.keyCache) != c.m.Len() {
		keys := make([]K, 0, c.m.Len())
		for p := c.m.Oldest(); p != nil; p = p.Next() {
			keys = append(keys, p.Key)
		}
		c.keyCache = keys
	}
	return c.keyCache
}

// Values returns the values in order. The slice is shared until the next
// change and must not be modified.
func (c *Collection[K, V]) Values() []V {
	if c.valueCache == nil || len(c.valueCache) != c.m.Len() {
		values := make([]V, 0, c.m.Len())
		for p := c.m.Oldest(); p != nil; p = p.Next() {
			values = append(values, p.Value)
		}
		c.valueCache = values
	}
	return c.valueCache
}

// All iterates over the entries in order.
func (c *Collection[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for p := c.m.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// First returns the oldest value.
func (c *Collection[K, V]) First() (V, bool) {
	if p := c.m.Oldest(); p != nil {
		return p.Value, true
	}
	var zero V
	return zero, false
}

// FirstN returns up to n values from the front. A negative n takes from
// the back instead.
func (c *Collection[K, V]) FirstN(n int) []V {
	if n < 0 {
		return c.LastN(-n)
	}
	values := c.Values()
	return slices.Clone(values[:min(n, len(values))])
}

// Last returns the newest value.
func (c *Collection[K, V]) Last() (V, bool) {
	if p := c.m.Newest(); p != nil {
		return p.Value, true
	}
	var zero V
	return zero, false
}

// LastN returns up to n values from the back. A negative n takes from the
// front instead.
func (c *Collection[K, V]) LastN(n int) []V {
	if n < 0 {
		return c.FirstN(-n)
	}
	values := c.Values()
	return slices.Clone(values[len(values)-min(n, len(values)):])
}

// Random returns a random value.
func (c *Collection[K, V]) Random() (V, bool) {
	values := c.Values()
	if len(values) == 0 {
		var zero V
		return zero, false
	}
	return values[rand.IntN(len(values))], true
}

// RandomN returns up to n distinct entries' values in random order.
func (c *Collection[K, V]) RandomN(n int) []V {
	values := c.Values()
	n = min(max(n, 0), len(values))
	out := make([]V, 0, n)
	for _, i := range rand.Perm(len(values))[:n] {
		out = append(out, values[i])
	}
	return out
}

// Find returns the first value for which test holds.
func (c *Collection[K, V]) Find(test func(value V, key K) bool) (V, bool) {
	for k, v := range c.All() {
		if test(v, k) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Sweep removes every entry for which test holds and returns how many were
// removed.
func (c *Collection[K, V]) Sweep(test func(value V, key K) bool) int {
	var doomed []K
	for k, v := range c.All() {
		if test(v, k) {
			doomed = append(doomed, k)
		}
	}
	for _, k := range doomed {
		c.Delete(k)
	}
	return len(doomed)
}

// Filter returns a new Collection with the entries for which test holds.
func (c *Collection[K, V]) Filter(test func(value V, key K) bool) *Collection[K, V] {
	out := New[K, V]()
	for k, v := range c.All() {
		if test(v, k) {
			out.Set(k, v)
		}
	}
	return out
}

// Partition splits the entries into those for which test holds and the
// rest.
func (c *Collection[K, V]) Partition(test func(value V, key K) bool) (pass, fail *Collection[K, V]) {
	pass, fail = New[K, V](), New[K, V]()
	for k, v := range c.All() {
		if test(v, k) {
			pass.Set(k, v)
		} else {
			fail.Set(k, v)
		}
	}
	return pass, fail
}

// Some reports whether test holds for at least one entry.
func (c *Collection[K, V]) Some(test func(value V, key K) bool) bool {
	_, ok := c.Find(test)
	return ok
}

// Every reports whether test holds for all entries. It is true for an
// empty Collection.
func (c *Collection[K, V]) Every(test func(value V, key K) bool) bool {
	for k, v := range c.All() {
		if !test(v, k) {
			return false
		}
	}
	return true
}

// Intersect returns the entries of other whose keys are also in c.
func (c *Collection[K, V]) Intersect(other *Collection[K, V]) *Collection[K, V] {
	return other.Filter(func(_ V, key K) bool { return c.Has(key) })
}

// Difference returns the entries whose key is in exactly one of c and
// other, those of other first.
func (c *Collection[K, V]) Difference(other *Collection[K, V]) *Collection[K, V] {
	out := other.Filter(func(_ V, key K) bool { return !c.Has(key) })
	for k, v := range c.All() {
		if !other.Has(k) {
			out.Set(k, v)
		}
	}
	return out
}

// Tap calls fn for every entry and returns c.
func (c *Collection[K, V]) Tap(fn func(value V, key K)) *Collection[K, V] {
	for k, v := range c.All() {
		fn(v, k)
	}
	return c
}

// Clone returns a shallow copy of c.
func (c *Collection[K, V]) Clone() *Collection[K, V] {
	out := New[K, V]()
	for k, v := range c.All() {
		out.Set(k, v)
	}
	return out
}

// Merge returns a copy of c with the entries of others applied in order.
// None of the inputs change.
func (c *Collection[K, V]) Merge(others ...*Collection[K, V]) *Collection[K, V] {
	out := c.Clone()
	for _, o := range others {
		for k, v := range o.All() {
			out.Set(k, v)
		}
	}
	return out
}

// Sort returns a copy of c ordered by cmp over the values. Equal values keep
// their relative order.
func (c *Collection[K, V]) Sort(cmp func(a, b V) int) *Collection[K, V] {
	pairs := make([]Pair[K, V], 0, c.Len())
	for k, v := range c.All() {
		pairs = append(pairs, Pair[K, V]{Key: k, Value: v})
	}
	slices.SortStableFunc(pairs, func(a, b Pair[K, V]) int { return cmp(a.Value, b.Value) })
	return New(pairs...)
}

// Map returns fn applied to every entry of c, in order.
func Map[K comparable, V, R any](c *Collection[K, V], fn func(value V, key K) R) []R {
	out := make([]R, 0, c.Len())
	for k, v := range c.All() {
		out = append(out, fn(v, k))
	}
	return out
}

// Reduce folds the entries of c into a single value starting from initial.
func Reduce[K comparable, V, A any](c *Collection[K, V], fn func(acc A, value V, key K) A, initial A) A {
	acc := initial
	for k, v := range c.All() {
		acc = fn(acc, v, k)
	}
	return acc
}
