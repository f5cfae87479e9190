// Package ordering provides the FIFO Queue and LIFO Stack helpers.
package ordering

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/qdb/pkg/collection"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Queue is a first-in first-out list of distinct values.
type Queue[V comparable] struct {
	values []V
}

// NewQueue returns a Queue holding values in order. Duplicates are dropped.
func NewQueue[V comparable](values ...V) *Queue[V] {
	q := &Queue[V]{}
	for _, v := range values {
		_, _ = q.Add(v)
	}
	return q
}

// Size returns the number of queued values.
func (q *Queue[V]) Size() int {
	return len(q.values)
}

// Add appends v and returns the new size. It returns types.ErrRejected if v
// is already queued.
func (q *Queue[V]) Add(v V) (int, error) {
	if slices.Contains(q.values, v) {
		return 0, fmt.Errorf("queue add: duplicate value: %w", types.ErrRejected)
	}
	q.values = append(q.values, v)
	return len(q.values), nil
}

// Next removes and returns the front value.
func (q *Queue[V]) Next() (V, bool) {
	var zero V
	if len(q.values) == 0 {
		return zero, false
	}
	v := q.values[0]
	q.values[0] = zero
	q.values = q.values[1:]
	return v, true
}

// Remove deletes the value at position i and returns it.
func (q *Queue[V]) Remove(i int) (V, error) {
	var zero V
	if i < 0 || i >= len(q.values) {
		return zero, fmt.Errorf("queue remove %d: %w", i, types.ErrAbsent)
	}
	v := q.values[i]
	q.values = slices.Delete(q.values, i, i+1)
	return v, nil
}

// Values returns a copy of the queued values, front first.
func (q *Queue[V]) Values() []V {
	return slices.Clone(q.values)
}

// Iterate calls fn for every queued value without changing the queue. fn
// may record results in the Cache it is given; that Cache starts with seed
// and is returned.
func (q *Queue[V]) Iterate(fn func(v V, results *collection.Cache[int]), seed ...collection.Pair[int, any]) *collection.Cache[int] {
	results := collection.NewCache(seed...)
	for _, v := range q.values {
		fn(v, results)
	}
	return results
}
