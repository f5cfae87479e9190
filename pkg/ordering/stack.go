package ordering

import "slices"

// Stack is a last-in first-out list.
type Stack[V any] struct {
	values []V
}

// NewStack returns a Stack with values pushed in order, so the last one is
// on top.
func NewStack[V any](values ...V) *Stack[V] {
	return &Stack[V]{values: slices.Clone(values)}
}

// Size returns the number of stacked values.
func (s *Stack[V]) Size() int {
	return len(s.values)
}

// Push stacks values in order and returns the new size.
func (s *Stack[V]) Push(values ...V) int {
	s.values = append(s.values, values...)
	return len(s.values)
}

// Pop removes and returns the top value.
func (s *Stack[V]) Pop() (V, bool) {
	got := s.PopN(1)
	if len(got) == 0 {
		var zero V
		return zero, false
	}
	return got[0], true
}

// PopN removes up to n values and returns them top first.
func (s *Stack[V]) PopN(n int) []V {
	n = min(max(n, 0), len(s.values))
	out := make([]V, 0, n)
	for range n {
		last := len(s.values) - 1
		out = append(out, s.values[last])
		var zero V
		s.values[last] = zero
		s.values = s.values[:last]
	}
	return out
}

// Seek returns the value offset places below the top without removing it.
func (s *Stack[V]) Seek(offset int) (V, bool) {
	i := len(s.values) - 1 - offset
	if offset < 0 || i < 0 {
		var zero V
		return zero, false
	}
	return s.values[i], true
}

// Flush removes every value and returns them bottom first.
func (s *Stack[V]) Flush() []V {
	out := s.values
	s.values = nil
	return out
}

// Values returns a copy of the stacked values, bottom first.
func (s *Stack[V]) Values() []V {
	return slices.Clone(s.values)
}
