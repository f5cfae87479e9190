package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

func TestDataStoreRecordsCarryTheirKey(t *testing.T) {
	d := NewDataStore[string, int]()

	rec, err := d.Set("a", 1)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Key)
	assert.Equal(t, 1, rec.Value)

	_, err = d.Set("a", 2)
	assert.ErrorIs(t, err, types.ErrRejected)

	got, ok := d.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got.Value)
}

func TestDataStoreLRR(t *testing.T) {
	d := NewDataStore[string, int]()
	_, _ = d.Set("a", 1)
	_, _ = d.Set("b", 2)
	assert.Nil(t, d.LRR())

	rec, ok := d.Resolve("a")
	require.True(t, ok)
	assert.Same(t, rec, d.LRR())

	again, _ := d.Resolve("a")
	assert.Same(t, rec, again)

	_, ok = d.Resolve("missing")
	assert.False(t, ok)
	assert.Same(t, rec, d.LRR(), "a failed resolve keeps the memo")

	d.Replace("a", 10)
	assert.Nil(t, d.LRR(), "replace drops the memo for that key")

	rec, _ = d.Resolve("a")
	assert.Equal(t, 10, rec.Value)

	d.Delete("b")
	assert.Same(t, rec, d.LRR(), "deleting another key keeps the memo")

	d.Delete("a")
	assert.Nil(t, d.LRR())
	assert.Equal(t, 0, d.Len())
}

func TestDataStoreFindAndAll(t *testing.T) {
	d := NewDataStore[string, int]()
	_, _ = d.Set("a", 1)
	_, _ = d.Set("b", 2)

	rec, ok := d.Find(func(v int, _ string) bool { return v == 2 })
	require.True(t, ok)
	assert.Equal(t, "b", rec.Key)

	var sum int
	for _, v := range d.All() {
		sum += v
	}
	assert.Equal(t, 3, sum)
	assert.Equal(t, []string{"a", "b"}, d.Keys())
	assert.True(t, d.Has("a"))
}

func TestManager(t *testing.T) {
	m := NewManager[string]()

	require.NoError(t, m.Add("one", "uno"))
	assert.ErrorIs(t, m.Add("one", "eins"), types.ErrRejected)
	assert.ErrorIs(t, m.Add("", "x"), types.ErrRejected)

	v, ok := m.Resolve("one")
	require.True(t, ok)
	assert.Equal(t, "uno", v)

	lrr, ok := m.LRR()
	require.True(t, ok)
	assert.Equal(t, "uno", lrr)

	require.NoError(t, m.Remove("one"))
	assert.ErrorIs(t, m.Remove("one"), types.ErrAbsent)

	_, ok = m.LRR()
	assert.False(t, ok)
	_, ok = m.Resolve("one")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Store().Len())
}
