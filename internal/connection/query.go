package connection

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/internal/dotpath"
	"github.com/mesh-intelligence/qdb/internal/search"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Return implements types.Connection.
func (c *Connection) Return(path string, fn func(value any)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return partial("return", types.ErrAbsent)
	}
	v, ok := dotpath.Get(c.doc, path)
	if !ok {
		return absent("return")
	}
	fn(document.Clone(v))
	return nil
}

// Each implements types.Connection.
func (c *Connection) Each(path string, fn func(value any, key string)) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return partial("each", types.ErrAbsent)
	}
	target, err := c.containerLocked("each", path)
	if err != nil {
		return err
	}
	document.Each(target, func(key string, value any) bool {
		fn(document.Clone(value), key)
		return true
	})
	return nil
}

// Filter implements types.Connection.
func (c *Connection) Filter(path string, test types.TestFunc) ([]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return nil, partial("filter", types.ErrAbsent)
	}
	target, err := c.containerLocked("filter", path)
	if err != nil {
		return nil, err
	}
	out := []any{}
	document.Each(target, func(key string, value any) bool {
		v := document.Clone(value)
		if test(v, key) {
			out = append(out, v)
		}
		return true
	})
	return out, nil
}

// Find implements types.Connection.
func (c *Connection) Find(path string, test types.TestFunc) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return nil, partial("find", types.ErrAbsent)
	}
	target, err := c.containerLocked("find", path)
	if err != nil {
		return nil, err
	}
	var (
		found any
		ok    bool
	)
	document.Each(target, func(key string, value any) bool {
		v := document.Clone(value)
		if test(v, key) {
			found, ok = v, true
			return false
		}
		return true
	})
	if !ok {
		return nil, absent("find")
	}
	return found, nil
}

// Map implements types.Connection.
func (c *Connection) Map(path string, fn types.EditFunc) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("map", types.ErrRejected)
	}
	target, err := c.containerLocked("map", path)
	if err != nil {
		return nil, err
	}

	var mapErr error
	next := rebuild(target, func(key string, value any) (any, bool) {
		v, err := normalize("map", fn(document.Clone(value), key))
		if err != nil && mapErr == nil {
			mapErr = err
		}
		return v, true
	})
	if mapErr != nil {
		return nil, mapErr
	}
	if err := c.setLocked("map", dotpath.Parse(path), next); err != nil {
		return nil, err
	}
	return document.Clone(next), nil
}

// Sort implements types.Connection. Mappings are reordered by value. Equal
// entries keep their order.
func (c *Connection) Sort(path string, cmp func(a, b any) int) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("sort", types.ErrRejected)
	}
	target, err := c.containerLocked("sort", path)
	if err != nil {
		return nil, err
	}

	type entry struct {
		key   string
		value any
	}
	entries := make([]entry, 0, document.Len(target))
	document.Each(target, func(key string, value any) bool {
		entries = append(entries, entry{key, value})
		return true
	})
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp(document.Clone(a.value), document.Clone(b.value))
	})

	var next any
	if _, ok := target.(*document.Mapping); ok {
		m := document.NewMapping()
		for _, e := range entries {
			m.Set(e.key, e.value)
		}
		next = m
	} else {
		s := make([]any, len(entries))
		for i, e := range entries {
			s[i] = e.value
		}
		next = s
	}
	if err := c.setLocked("sort", dotpath.Parse(path), next); err != nil {
		return nil, err
	}
	return document.Clone(next), nil
}

// Search implements types.Connection.
//
// Without a Target the candidates are the string elements of an array, or
// the keys of an object. With a Target they are the strings found at that
// path below every entry. Other values are skipped.
func (c *Connection) Search(term string, opts types.SearchOptions) (*types.SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return nil, partial("search", types.ErrAbsent)
	}
	target, err := c.containerLocked("search", opts.Path)
	if err != nil {
		return nil, err
	}

	var candidates []search.Candidate
	_, isMapping := target.(*document.Mapping)
	document.Each(target, func(key string, value any) bool {
		switch {
		case opts.Target != "":
			value, _ = dotpath.Get(value, opts.Target)
		case isMapping:
			value = key
		}
		if s, ok := value.(string); ok {
			candidates = append(candidates, search.Candidate{Key: key, Text: s})
		}
		return true
	})

	res := &types.SearchResult{
		Matches: search.Rank(term, candidates, opts.CaseSensitive, opts.Amount),
		Path:    dotpath.Parse(opts.Path),
		Target:  opts.Target,
	}
	if len(res.Matches) == 0 {
		return res, fmt.Errorf("search %q: no candidates: %w", term, types.ErrAbsent)
	}
	res.Best = res.Matches[0]
	return res, nil
}
