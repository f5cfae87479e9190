// Package search ranks candidate strings by similarity to a term.
//
// Similarity is the Sorensen-Dice coefficient over character bigrams, scaled
// to [0, 100]. A candidate that contains the term scores 100.
package search

import (
	"slices"
	"strings"
	"unicode"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// MaxRating is the rating of an exact or containing match.
const MaxRating = 100

// Candidate is a string to rank and the entry it came from.
type Candidate struct {
	Key  string
	Text string
}

// Rank rates every candidate against term and returns the matches ordered by
// rating, best first. Candidates with equal ratings are ordered latest
// first. A positive amount keeps only the best amount matches.
func Rank(term string, candidates []Candidate, caseSensitive bool, amount int) []types.Match {
	if !caseSensitive {
		term = strings.ToLower(term)
	}
	matches := make([]types.Match, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		text := c.Text
		if !caseSensitive {
			text = strings.ToLower(text)
		}
		matches = append(matches, types.Match{Key: c.Key, Target: c.Text, Rating: Rate(term, text)})
	}
	slices.SortStableFunc(matches, func(a, b types.Match) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		}
		return 0
	})
	if amount > 0 && amount < len(matches) {
		matches = matches[:amount]
	}
	return matches
}

// Rate returns the similarity of term and candidate in [0, 100].
func Rate(term, candidate string) float64 {
	if term != "" && strings.Contains(candidate, term) {
		return MaxRating
	}
	return Dice(term, candidate) * MaxRating
}

// Dice returns the bigram Sorensen-Dice coefficient of a and b in [0, 1].
// Whitespace is ignored. Strings shorter than two characters share no
// bigrams unless they are equal.
func Dice(a, b string) float64 {
	ra, rb := stripSpace(a), stripSpace(b)
	if slices.Equal(ra, rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	grams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		grams[[2]rune{ra[i], ra[i+1]}]++
	}
	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		g := [2]rune{rb[i], rb[i+1]}
		if grams[g] > 0 {
			grams[g]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}
