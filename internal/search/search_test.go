package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(texts ...string) []Candidate {
	out := make([]Candidate, len(texts))
	for i, s := range texts {
		out[i] = Candidate{Key: string(rune('0' + i)), Text: s}
	}
	return out
}

func TestDice(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"night", "nacht", 0.25},
		{"healed", "sealed", 0.8},
		{"same", "same", 1},
		{"a", "b", 0},
		{"", "", 1},
		{"ab", "", 0},
		{"a b", "ab", 1},
		{"aaaa", "aa", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Dice(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRankSubstringMatches(t *testing.T) {
	matches := Rank("oo", candidates("foo", "bar", "roo", "doo", "boo"), false, 0)
	require.Len(t, matches, 5)

	best := matches[0]
	assert.Equal(t, 100.0, best.Rating)
	assert.Contains(t, []string{"roo", "doo", "boo"}, best.Target)
	assert.Equal(t, "boo", best.Target, "ties favor later entries")
	assert.Equal(t, "bar", matches[4].Target)
	assert.Equal(t, 0.0, matches[4].Rating)
}

func TestRankCase(t *testing.T) {
	matches := Rank("FOO", candidates("foo"), false, 0)
	require.Len(t, matches, 1)
	assert.Equal(t, 100.0, matches[0].Rating)
	assert.Equal(t, "foo", matches[0].Target)

	matches = Rank("FOO", candidates("foo"), true, 0)
	assert.Equal(t, 0.0, matches[0].Rating)
}

func TestRankAmount(t *testing.T) {
	c := candidates("alpha", "alpine", "beta", "alps")

	assert.Len(t, Rank("alp", c, false, 2), 2)
	assert.Len(t, Rank("alp", c, false, 10), 4)
	assert.Len(t, Rank("alp", c, false, 0), 4)
	assert.Empty(t, Rank("alp", nil, false, 0))
}

func TestRankKeepsKeys(t *testing.T) {
	matches := Rank("beta", candidates("alpha", "beta"), false, 0)
	assert.Equal(t, "1", matches[0].Key)
	assert.Equal(t, "0", matches[1].Key)
}
