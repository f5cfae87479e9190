package connection

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/internal/dotpath"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Set implements types.Connection.
func (c *Connection) Set(key string, value any, path string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("set", types.ErrRejected)
	}
	v, err := normalize("set", value)
	if err != nil {
		return nil, err
	}
	if err := c.setLocked("set", keyPath(key, path), v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// keyPath returns the segments addressed by key and path. The key is always a
// single segment, so keys holding dots or brackets are used as they are.
func keyPath(key, path string) []string {
	segs := dotpath.Parse(path)
	if key == "" {
		return segs
	}
	return append([]string{key}, segs...)
}

// setLocked stores v at segs. No segments replaces the document, which must
// then stay a container.
func (c *Connection) setLocked(op string, segs []string, v any) error {
	if len(segs) == 0 && !document.IsContainer(v) {
		return fmt.Errorf("%s: document must be an object or an array: %w", op, types.ErrRejected)
	}
	res := dotpath.SetAt(c.doc, segs, v)
	if !res.Applied {
		return rejected(op)
	}
	return c.commit(op, res.Root)
}

// Fetch implements types.Connection.
func (c *Connection) Fetch(key, path string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return nil, partial("fetch", types.ErrAbsent)
	}
	v, ok := dotpath.GetAt(c.doc, keyPath(key, path))
	if !ok {
		return nil, absent("fetch")
	}
	return document.Clone(v), nil
}

// Get implements types.Connection.
//
// Deprecated: use Fetch.
func (c *Connection) Get(key, path string) (any, error) {
	c.log.Warn("Get is deprecated, use Fetch instead")
	return c.Fetch(key, path)
}

// Keys implements types.Connection.
func (c *Connection) Keys(path string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return nil, partial("keys", types.ErrAbsent)
	}
	target, err := c.containerLocked("keys", path)
	if err != nil {
		return nil, err
	}
	return document.Keys(target), nil
}

// containerLocked resolves path to a mapping or a sequence.
func (c *Connection) containerLocked(op, path string) (any, error) {
	v, ok := dotpath.Get(c.doc, path)
	if !ok {
		return nil, absent(op)
	}
	if !document.IsContainer(v) {
		return nil, fmt.Errorf("%s: %q is not an object or an array: %w", op, path, types.ErrRejected)
	}
	return v, nil
}

// Append implements types.Connection. A mapping document with an empty key
// stores the value under a generated UUIDv7 key.
func (c *Connection) Append(key string, value any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("append", types.ErrRejected)
	}
	v, err := normalize("append", value)
	if err != nil {
		return nil, err
	}

	switch doc := c.doc.(type) {
	case *document.Mapping:
		if key == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("append: %w", err)
			}
			key = id.String()
		}
		if _, ok := doc.Get(key); ok {
			return nil, fmt.Errorf("append: key %q exists: %w", key, types.ErrRejected)
		}
		if err := c.setLocked("append", []string{key}, v); err != nil {
			return nil, err
		}
	case []any:
		if key != "" {
			return nil, fmt.Errorf("append: keys are not allowed on an array: %w", types.ErrRejected)
		}
		if document.IndexOf(doc, v) >= 0 {
			return nil, fmt.Errorf("append: item exists: %w", types.ErrRejected)
		}
		if err := c.pushLocked("append", nil, v); err != nil {
			return nil, err
		}
	}
	return document.Clone(v), nil
}

// pushLocked appends v to the sequence at segs.
func (c *Connection) pushLocked(op string, segs []string, v any) error {
	res := dotpath.PushAt(c.doc, segs, v)
	if !res.Applied {
		return rejected(op)
	}
	return c.commit(op, res.Root)
}

// Insert implements types.Connection.
func (c *Connection) Insert(value any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked("insert", value)
}

func (c *Connection) insertLocked(op string, value any) (any, error) {
	if c.state != types.StateConnected {
		return nil, partial(op, types.ErrRejected)
	}
	if _, ok := c.doc.([]any); !ok {
		return nil, fmt.Errorf("%s: document is not an array: %w", op, types.ErrRejected)
	}
	v, err := normalize(op, value)
	if err != nil {
		return nil, err
	}
	if err := c.pushLocked(op, nil, v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// Push implements types.Connection.
func (c *Connection) Push(value any, path string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == "" {
		return c.insertLocked("push", value)
	}
	if c.state != types.StateConnected {
		return nil, partial("push", types.ErrRejected)
	}
	if cur, _ := dotpath.Get(c.doc, path); document.KindOf(cur) != types.KindSequence {
		return nil, fmt.Errorf("push: %q is not an array: %w", path, types.ErrRejected)
	}
	v, err := normalize("push", value)
	if err != nil {
		return nil, err
	}
	if err := c.pushLocked("push", dotpath.Parse(path), v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// Update implements types.Connection. The key must exist. On an array
// document the key is an index, or else an element equal to the key.
func (c *Connection) Update(key string, value any, path string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("update", types.ErrRejected)
	}
	v, err := normalize("update", value)
	if err != nil {
		return nil, err
	}

	if _, ok := document.Child(c.doc, key); !ok {
		seq, isSeq := c.doc.([]any)
		i := -1
		if isSeq {
			i = document.IndexOf(seq, key)
		}
		if i < 0 {
			return nil, absent("update")
		}
		key = strconv.Itoa(i)
	}
	if err := c.setLocked("update", keyPath(key, path), v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// Edit implements types.Connection.
func (c *Connection) Edit(test types.TestFunc, edit types.EditFunc) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("edit", types.ErrAbsent)
	}

	var (
		matchKey string
		prev     any
		found    bool
	)
	document.Each(c.doc, func(key string, value any) bool {
		if test(document.Clone(value), key) {
			matchKey, prev, found = key, value, true
			return false
		}
		return true
	})
	if !found {
		return nil, absent("edit")
	}

	v, err := normalize("edit", edit(document.Clone(prev), matchKey))
	if err != nil {
		return nil, err
	}
	if err := c.setLocked("edit", []string{matchKey}, v); err != nil {
		return nil, err
	}
	return document.Clone(prev), nil
}

// Modify implements types.Connection.
func (c *Connection) Modify(fn func(doc any) any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("modify", types.ErrRejected)
	}
	v, err := normalize("modify", fn(document.Clone(c.doc)))
	if err != nil {
		return nil, err
	}
	if err := c.setLocked("modify", nil, v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// Ensure implements types.Connection. With an empty key on an array
// document the value itself is the membership test.
func (c *Connection) Ensure(key string, value any, path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return false, partial("ensure", types.ErrRejected)
	}
	v, err := normalize("ensure", value)
	if err != nil {
		return false, err
	}

	segs := keyPath(key, path)
	if len(segs) == 0 {
		seq, ok := c.doc.([]any)
		if !ok {
			return false, fmt.Errorf("ensure: a key is required on an object: %w", types.ErrRejected)
		}
		if document.IndexOf(seq, v) >= 0 {
			return false, nil
		}
		if err := c.pushLocked("ensure", nil, v); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, ok := dotpath.GetAt(c.doc, segs); ok {
		return false, nil
	}
	if err := c.setLocked("ensure", segs, v); err != nil {
		return false, err
	}
	return true, nil
}

// Invert implements types.Connection.
func (c *Connection) Invert(path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return false, partial("invert", types.ErrRejected)
	}
	segs := dotpath.Parse(path)
	if len(segs) == 0 {
		return false, fmt.Errorf("invert: path is required: %w", types.ErrRejected)
	}

	cur, ok := dotpath.GetAt(c.doc, segs)
	if !ok {
		return false, absent("invert")
	}
	b, ok := cur.(bool)
	if !ok {
		return false, fmt.Errorf("invert: %q is not a boolean: %w", path, types.ErrRejected)
	}
	if err := c.setLocked("invert", segs, !b); err != nil {
		return false, err
	}
	return !b, nil
}

// Exists implements types.Connection. On an array document a key that is
// not an index also matches an equal element.
func (c *Connection) Exists(key, path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.lookupLocked(key, path)
	return ok
}

// Has implements types.Connection.
func (c *Connection) Has(key, path string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.lookupLocked(key, path); ok {
		return document.Clone(v)
	}
	return document.NewMapping()
}

func (c *Connection) lookupLocked(key, path string) (any, bool) {
	if c.state != types.StateConnected {
		return nil, false
	}
	segs := keyPath(key, path)
	if len(segs) == 0 {
		return nil, false
	}
	if v, ok := dotpath.GetAt(c.doc, segs); ok {
		return v, true
	}
	if seq, ok := c.doc.([]any); ok && path == "" {
		if i := document.IndexOf(seq, key); i >= 0 {
			return seq[i], true
		}
	}
	return nil, false
}

// Expect implements types.Connection. With overwrite the expected value is
// stored whatever the outcome of the comparison.
func (c *Connection) Expect(key string, expected any, path string, overwrite bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return false, partial("expect", types.ErrAbsent)
	}
	v, err := normalize("expect", expected)
	if err != nil {
		return false, err
	}

	segs := keyPath(key, path)
	cur, ok := dotpath.GetAt(c.doc, segs)
	match := ok && len(segs) > 0 && document.Equal(cur, v)
	if overwrite {
		if err := c.setLocked("expect", segs, v); err != nil {
			return match, err
		}
	}
	return match, nil
}

// Accumulate implements types.Connection. fn receives nil when nothing is
// stored at path.
func (c *Connection) Accumulate(path string, fn func(current any) any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("accumulate", types.ErrRejected)
	}
	segs := dotpath.Parse(path)
	if len(segs) == 0 {
		return nil, fmt.Errorf("accumulate: path is required: %w", types.ErrRejected)
	}

	cur, _ := dotpath.GetAt(c.doc, segs)
	v, err := normalize("accumulate", fn(document.Clone(cur)))
	if err != nil {
		return nil, err
	}
	if err := c.setLocked("accumulate", segs, v); err != nil {
		return nil, err
	}
	return document.Clone(v), nil
}

// Destroy implements types.Connection.
func (c *Connection) Destroy() (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil, partial("destroy", types.ErrRejected)
	}
	if err := c.commit("destroy", document.NewMapping()); err != nil {
		return nil, err
	}
	c.log.Info("destroyed database", "path", c.path)
	return document.NewMapping(), nil
}

// Sweep implements types.Connection.
func (c *Connection) Sweep(path string, test types.TestFunc) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return 0, partial("sweep", types.ErrRejected)
	}
	target, err := c.containerLocked("sweep", path)
	if err != nil {
		return 0, err
	}

	removed := 0
	next := rebuild(target, func(key string, value any) (any, bool) {
		if test(document.Clone(value), key) {
			removed++
			return nil, false
		}
		return value, true
	})
	if removed == 0 {
		return 0, nil
	}
	if err := c.setLocked("sweep", dotpath.Parse(path), next); err != nil {
		return 0, err
	}
	return removed, nil
}

// rebuild returns a container of the same kind as target holding fn's
// result for every entry fn keeps.
func rebuild(target any, fn func(key string, value any) (any, bool)) any {
	if _, ok := target.(*document.Mapping); ok {
		out := document.NewMapping()
		document.Each(target, func(key string, value any) bool {
			if v, keep := fn(key, value); keep {
				out.Set(key, v)
			}
			return true
		})
		return out
	}
	out := make([]any, 0, document.Len(target))
	document.Each(target, func(key string, value any) bool {
		if v, keep := fn(key, value); keep {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Delete implements types.Connection. Without a path, a key on an array
// document is an index, or else an element equal to the key.
func (c *Connection) Delete(key, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return partial("delete", types.ErrRejected)
	}
	segs := keyPath(key, path)
	if len(segs) == 0 {
		return fmt.Errorf("delete: key is required: %w", types.ErrRejected)
	}

	res := dotpath.EraseAt(c.doc, segs)
	if !res.Applied && path == "" {
		if _, ok := c.doc.([]any); ok {
			res = dotpath.EraseItemAt(c.doc, nil, key)
		}
	}
	if !res.Applied {
		return absent("delete")
	}
	return c.commit("delete", res.Root)
}
