package collection

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

func TestCacheNextID(t *testing.T) {
	c := NewCache[string]()
	assert.Equal(t, 0, c.NextID())
	assert.Equal(t, 1, c.NextID())
	assert.Equal(t, 2, c.NextID())
}

func TestCacheOperators(t *testing.T) {
	tests := []struct {
		name  string
		start any
		op    func(c *Cache[string]) (float64, error)
		want  float64
	}{
		{"increment", 1.0, func(c *Cache[string]) (float64, error) { return c.Increment("n") }, 2},
		{"increment int", 1, func(c *Cache[string]) (float64, error) { return c.Increment("n") }, 2},
		{"increment zero", 0.0, func(c *Cache[string]) (float64, error) { return c.Increment("n") }, 1},
		{"decrement", 1.0, func(c *Cache[string]) (float64, error) { return c.Decrement("n") }, 0},
		{"add", 2.0, func(c *Cache[string]) (float64, error) { return c.Add("n", 3) }, 5},
		{"subtract", 2.0, func(c *Cache[string]) (float64, error) { return c.Subtract("n", 3) }, -1},
		{"multiply", 2.0, func(c *Cache[string]) (float64, error) { return c.Multiply("n", 3) }, 6},
		{"divide", 3.0, func(c *Cache[string]) (float64, error) { return c.Divide("n", 2) }, 1.5},
		{"square", 4.0, func(c *Cache[string]) (float64, error) { return c.Square("n") }, 16},
		{"power", 2.0, func(c *Cache[string]) (float64, error) { return c.Power("n", 10) }, 1024},
		{"root", 9.0, func(c *Cache[string]) (float64, error) { return c.Root("n") }, 3},
		{"exp", 0.0, func(c *Cache[string]) (float64, error) { return c.Exp("n") }, 1},
		{"absolute", -4.5, func(c *Cache[string]) (float64, error) { return c.Absolute("n") }, 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(Pair[string, any]{"n", tt.start})
			got, err := tt.op(c)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)

			stored, _ := c.Get("n")
			assert.InDelta(t, tt.want, stored, 1e-9)
		})
	}
}

func TestCacheOperatorErrors(t *testing.T) {
	c := NewCache(
		Pair[string, any]{"word", "ten"},
		Pair[string, any]{"neg", -1.0},
		Pair[string, any]{"n", 4.0},
	)

	_, err := c.Increment("missing")
	assert.ErrorIs(t, err, types.ErrAbsent)

	_, err = c.Increment("word")
	assert.ErrorIs(t, err, types.ErrRejected)

	_, err = c.Root("neg")
	assert.ErrorIs(t, err, types.ErrRejected)

	_, err = c.Divide("n", 0)
	assert.ErrorIs(t, err, types.ErrRejected)

	_, err = c.Add("n", math.NaN())
	assert.ErrorIs(t, err, types.ErrRejected)

	v, _ := c.Get("n")
	assert.Equal(t, 4.0, v, "rejected operations leave the value alone")
}

func TestCacheAccumulate(t *testing.T) {
	c := NewCache(Pair[string, any]{"tags", []string{"a"}})

	got, err := c.Accumulate("tags", func(v any) any { return append(v.([]string), "b") })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = c.Accumulate("missing", func(v any) any { return v })
	assert.True(t, errors.Is(err, types.ErrAbsent))

	_, err = c.Accumulate("tags", nil)
	assert.True(t, errors.Is(err, types.ErrRejected))
}

func TestNumber(t *testing.T) {
	for _, v := range []any{1, int8(1), int64(1), uint32(1), float32(1), 1.0} {
		x, ok := Number(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 1.0, x)
	}
	for _, v := range []any{"1", nil, true, math.NaN()} {
		_, ok := Number(v)
		assert.False(t, ok, "%v", v)
	}
}
