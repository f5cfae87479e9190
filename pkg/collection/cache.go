package collection

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Cache is a Collection of arbitrary values with an id counter and numeric
// in-place operators.
//
// The operators return types.ErrAbsent when the key is missing and
// types.ErrRejected when the stored value or the operand is not a usable
// number. Results are stored back as float64.
type Cache[K comparable] struct {
	*Collection[K, any]
	nextID int
}

// NewCache returns a Cache seeded with pairs.
func NewCache[K comparable](pairs ...Pair[K, any]) *Cache[K] {
	return &Cache[K]{Collection: New(pairs...)}
}

// NextID returns the next id from the Cache's counter, starting at 0.
func (c *Cache[K]) NextID() int {
	id := c.nextID
	c.nextID++
	return id
}

// Increment adds one to the value at key.
func (c *Cache[K]) Increment(key K) (float64, error) {
	return c.apply(key, "increment", func(x float64) (float64, bool) { return x + 1, true })
}

// Decrement subtracts one from the value at key.
func (c *Cache[K]) Decrement(key K) (float64, error) {
	return c.apply(key, "decrement", func(x float64) (float64, bool) { return x - 1, true })
}

// Add adds n to the value at key.
func (c *Cache[K]) Add(key K, n float64) (float64, error) {
	return c.applyOperand(key, "add", n, func(x float64) (float64, bool) { return x + n, true })
}

// Subtract subtracts n from the value at key.
func (c *Cache[K]) Subtract(key K, n float64) (float64, error) {
	return c.applyOperand(key, "subtract", n, func(x float64) (float64, bool) { return x - n, true })
}

// Multiply multiplies the value at key by n.
func (c *Cache[K]) Multiply(key K, n float64) (float64, error) {
	return c.applyOperand(key, "multiply", n, func(x float64) (float64, bool) { return x * n, true })
}

// Divide divides the value at key by n. A zero divisor is rejected.
func (c *Cache[K]) Divide(key K, n float64) (float64, error) {
	return c.applyOperand(key, "divide", n, func(x float64) (float64, bool) { return x / n, n != 0 })
}

// Square raises the value at key to the power of two.
func (c *Cache[K]) Square(key K) (float64, error) {
	return c.apply(key, "square", func(x float64) (float64, bool) { return x * x, true })
}

// Power raises the value at key to the power of n.
func (c *Cache[K]) Power(key K, n float64) (float64, error) {
	return c.applyOperand(key, "power", n, func(x float64) (float64, bool) { return math.Pow(x, n), true })
}

// Root replaces the value at key with its square root. Negative values are
// rejected.
func (c *Cache[K]) Root(key K) (float64, error) {
	return c.apply(key, "root", func(x float64) (float64, bool) { return math.Sqrt(x), x >= 0 })
}

// Exp replaces the value at key with e raised to it.
func (c *Cache[K]) Exp(key K) (float64, error) {
	return c.apply(key, "exp", func(x float64) (float64, bool) { return math.Exp(x), true })
}

// Absolute replaces the value at key with its absolute value.
func (c *Cache[K]) Absolute(key K) (float64, error) {
	return c.apply(key, "absolute", func(x float64) (float64, bool) { return math.Abs(x), true })
}

// Accumulate replaces the value at key with fn applied to it.
func (c *Cache[K]) Accumulate(key K, fn func(value any) any) (any, error) {
	if fn == nil {
		return nil, fmt.Errorf("accumulate: %w", types.ErrRejected)
	}
	v, ok := c.Get(key)
	if !ok {
		return nil, fmt.Errorf("accumulate: %w", types.ErrAbsent)
	}
	next := fn(v)
	c.Set(key, next)
	return next, nil
}

func (c *Cache[K]) applyOperand(key K, op string, n float64, fn func(float64) (float64, bool)) (float64, error) {
	if math.IsNaN(n) {
		return 0, fmt.Errorf("%s: operand is NaN: %w", op, types.ErrRejected)
	}
	return c.apply(key, op, fn)
}

func (c *Cache[K]) apply(key K, op string, fn func(float64) (float64, bool)) (float64, error) {
	v, ok := c.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, types.ErrAbsent)
	}
	x, ok := Number(v)
	if !ok {
		return 0, fmt.Errorf("%s: value %v is not a number: %w", op, v, types.ErrRejected)
	}
	next, ok := fn(x)
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, types.ErrRejected)
	}
	c.Set(key, next)
	return next, nil
}

// Number converts the numeric kinds a caller may store into float64. NaN is
// not a number.
func Number(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	default:
		return 0, false
	}
	return x, !math.IsNaN(x)
}
