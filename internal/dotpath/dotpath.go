// Package dotpath resolves dotted paths such as "users.0.name" or
// "users[0].name" against a document tree and applies reads and edits at the
// addressed location.
//
// Edits are copy-on-write: every container between the root and the edited
// location is shallow-copied and the returned Resolution.Root is the rebuilt
// tree. The input tree is never modified, so callers must replace their root
// with Resolution.Root after a successful edit.
package dotpath

import (
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/qdb/internal/document"
)

// Op selects what Resolve does at the addressed location.
type Op int

const (
	// OpGet reads the value.
	OpGet Op = iota
	// OpSet stores the item, creating missing intermediate mappings.
	OpSet
	// OpPush appends the item when the location holds a sequence and
	// otherwise behaves as OpSet.
	OpPush
	// OpErase removes the last key from a mapping or splices the last index
	// out of a sequence.
	OpErase
	// OpEraseItem removes the first element equal to the item when the
	// parent is a sequence, and the last key when it is a mapping.
	OpEraseItem
)

// lengthProperty is readable on strings and sequences.
const lengthProperty = "length"

// MaxGap is the largest number of nulls a write past the end of a sequence
// pads with. Writes further out are not applied.
const MaxGap = 1024

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Value is the resolved value for reads, the item for set and push, and
	// the removed value for erases.
	Value any
	// Found reports whether the location held a value before the call.
	Found bool
	// Applied reports whether an edit changed the tree.
	Applied bool
	// Root is the input root for reads and unapplied edits, and the rebuilt
	// root otherwise.
	Root any
	// Relative is the parent container of the location after the edit.
	Relative any
	// Parent holds the segments leading to the parent container.
	Parent []string
	// Last is the final segment.
	Last string
}

var bracketReplacer = strings.NewReplacer("[", ".", "]", "")

// Parse splits a path into segments. Every bracket index becomes a dot
// segment and empty segments are dropped, so "a[0][1]..b" is
// ["a", "0", "1", "b"].
func Parse(path string) []string {
	parts := strings.Split(bracketReplacer.Replace(path), ".")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Resolve walks path from root and applies op. item is ignored by OpGet and
// OpErase.
func Resolve(root any, path string, op Op, item any) Resolution {
	return ResolveSegments(root, Parse(path), op, item)
}

// ResolveSegments is Resolve on already split segments. Segments are taken
// literally, so a segment may contain dots or brackets.
func ResolveSegments(root any, segs []string, op Op, item any) Resolution {
	res := Resolution{Root: root}
	if len(segs) == 0 {
		return resolveRoot(root, op, item, res)
	}
	res.Parent, res.Last = segs[:len(segs)-1], segs[len(segs)-1]

	if op == OpGet {
		return read(root, res)
	}

	w := writer{op: op, item: item, res: &res}
	if next, ok := w.apply(root, 0); ok {
		res.Root = next
		res.Applied = true
	}
	return res
}

// resolveRoot handles the empty path, which addresses the root itself.
func resolveRoot(root any, op Op, item any, res Resolution) Resolution {
	switch op {
	case OpGet:
		res.Value, res.Found = root, true
	case OpSet:
		res.Value, res.Found, res.Applied = item, true, true
		res.Root, res.Relative = item, item
	case OpPush:
		if s, ok := root.([]any); ok {
			res.Root = appendCopy(s, item)
			res.Value, res.Found, res.Applied = item, true, true
			res.Relative = res.Root
		}
	case OpEraseItem:
		if s, ok := root.([]any); ok {
			if i := document.IndexOf(s, item); i >= 0 {
				res.Root = spliceCopy(s, i)
				res.Value, res.Found, res.Applied = s[i], true, true
				res.Relative = res.Root
			}
		}
	}
	return res
}

func read(root any, res Resolution) Resolution {
	cur := root
	for _, seg := range res.Parent {
		if !document.IsContainer(cur) {
			return res
		}
		next, ok := document.Child(cur, seg)
		if !ok {
			return res
		}
		cur = next
	}
	res.Relative = cur
	res.Value, res.Found = property(cur, res.Last)
	return res
}

// property reads key from v. Besides container entries it exposes the length
// of strings and sequences.
func property(v any, key string) (any, bool) {
	if got, ok := document.Child(v, key); ok {
		return got, true
	}
	if key != lengthProperty {
		return nil, false
	}
	switch c := v.(type) {
	case string:
		return float64(utf8.RuneCountInString(c)), true
	case []any:
		return float64(len(c)), true
	}
	return nil, false
}

type writer struct {
	op   Op
	item any
	res  *Resolution
}

// creates reports whether missing intermediates are created on the way down.
func (w *writer) creates() bool {
	return w.op == OpSet || w.op == OpPush
}

// apply returns the replacement for node after editing below segment i.
func (w *writer) apply(node any, i int) (any, bool) {
	if i == len(w.res.Parent) {
		return w.leaf(node)
	}
	seg := w.res.Parent[i]

	switch c := node.(type) {
	case *document.Mapping:
		child, ok := c.Get(seg)
		if !ok {
			if !w.creates() {
				return nil, false
			}
			child = document.NewMapping()
		}
		next, ok := w.apply(child, i+1)
		if !ok {
			return nil, false
		}
		m := document.ShallowClone(c).(*document.Mapping)
		m.Set(seg, next)
		return m, true
	case []any:
		idx, ok := document.Index(seg)
		if !ok {
			return nil, false
		}
		var child any
		if idx < len(c) {
			child = c[idx]
		} else {
			if !w.creates() || !withinGap(c, idx) {
				return nil, false
			}
			child = document.NewMapping()
		}
		next, ok := w.apply(child, i+1)
		if !ok {
			return nil, false
		}
		return setIndexCopy(c, idx, next), true
	}
	return nil, false
}

// leaf applies the edit to the parent container of the location.
func (w *writer) leaf(node any) (any, bool) {
	last := w.res.Last

	switch w.op {
	case OpPush:
		if target, ok := document.Child(node, last); ok {
			if s, ok := target.([]any); ok {
				w.res.Found = true
				return w.store(node, appendCopy(s, w.item))
			}
		}
		return w.set(node)
	case OpSet:
		return w.set(node)
	case OpErase:
		return w.erase(node)
	case OpEraseItem:
		if s, ok := node.([]any); ok {
			i := document.IndexOf(s, w.item)
			if i < 0 {
				return nil, false
			}
			w.res.Value, w.res.Found = s[i], true
			next := spliceCopy(s, i)
			w.res.Relative = next
			return next, true
		}
		return w.erase(node)
	}
	return nil, false
}

func (w *writer) set(node any) (any, bool) {
	if !document.IsContainer(node) {
		// The cursor is a scalar: the item takes its place.
		w.res.Value = w.item
		w.res.Relative = w.item
		return w.item, true
	}
	_, w.res.Found = document.Child(node, w.res.Last)
	return w.store(node, w.item)
}

// store writes value at the last key of a container copy.
func (w *writer) store(node, value any) (any, bool) {
	var next any
	switch c := node.(type) {
	case *document.Mapping:
		m := document.ShallowClone(c).(*document.Mapping)
		m.Set(w.res.Last, value)
		next = m
	case []any:
		idx, ok := document.Index(w.res.Last)
		if !ok || !withinGap(c, idx) {
			return nil, false
		}
		next = setIndexCopy(c, idx, value)
	default:
		return nil, false
	}
	w.res.Value = w.item
	w.res.Relative = next
	return next, true
}

func (w *writer) erase(node any) (any, bool) {
	last := w.res.Last
	switch c := node.(type) {
	case *document.Mapping:
		old, ok := c.Get(last)
		if !ok {
			return nil, false
		}
		m := document.ShallowClone(c).(*document.Mapping)
		m.Delete(last)
		w.res.Value, w.res.Found, w.res.Relative = old, true, m
		return m, true
	case []any:
		idx, ok := document.Index(last)
		if !ok || idx >= len(c) {
			return nil, false
		}
		next := spliceCopy(c, idx)
		w.res.Value, w.res.Found, w.res.Relative = c[idx], true, next
		return next, true
	}
	return nil, false
}

// withinGap reports whether idx is at most MaxGap slots past the end of s.
func withinGap(s []any, idx int) bool {
	return idx-len(s) <= MaxGap
}

// setIndexCopy returns a copy of s with v at idx. Writing past the end pads
// the gap with nulls; callers check withinGap first.
func setIndexCopy(s []any, idx int, v any) []any {
	n := len(s)
	if idx >= n {
		n = idx + 1
	}
	out := make([]any, n)
	copy(out, s)
	out[idx] = v
	return out
}

func appendCopy(s []any, v any) []any {
	out := make([]any, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func spliceCopy(s []any, i int) []any {
	out := make([]any, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
