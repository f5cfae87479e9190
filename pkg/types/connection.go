package types

import "context"

// State is the lifecycle state of a Connection.
type State int

// Connection states. Only StateConnected holds a document.
const (
	StateBase State = iota
	StatePartial
	StateConnected
	StateDisconnected
	StateReconnecting
)

var stateNames = [...]string{"BASE", "PARTIAL", "CONNECTED", "DISCONNECTED", "RECONNECTING"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Kind is the shape of a document root.
type Kind int

// Document kinds.
const (
	KindNone Kind = iota
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindMapping:
		return "object"
	case KindSequence:
		return "array"
	default:
		return "none"
	}
}

// TestFunc reports whether an entry matches. key is the mapping key or the
// decimal sequence index.
type TestFunc func(value any, key string) bool

// EditFunc returns the replacement for an entry.
type EditFunc func(value any, key string) any

// Connection is a file-backed JSON document. Keys address top-level entries
// (or sequence indexes) and paths address nested values below the key. An
// empty key means "no key" and an empty path means "no nested traversal".
//
// Mapping values are handed out as *orderedmap.OrderedMap[string, any] and
// sequences as []any. Values passed to callbacks are copies; callbacks must not
// call back into the Connection.
type Connection interface {
	// Path returns the backing file, or "" when not connected.
	Path() string
	// State returns the lifecycle state.
	State() State
	// Kind returns the shape of the document.
	Kind() Kind
	// Len returns the number of top-level entries.
	Len() int

	// Set stores value at key (and path). An empty key replaces the document.
	Set(key string, value any, path string) (any, error)
	// Fetch returns the value at key (and path), or the document for "".
	Fetch(key, path string) (any, error)
	// Get is the deprecated spelling of Fetch.
	Get(key, path string) (any, error)
	// Keys returns the ordered keys of the container at path.
	Keys(path string) ([]string, error)

	// Append inserts a unique entry. It rejects an existing key, or an item
	// already present in a sequence document.
	Append(key string, value any) (any, error)
	// Insert pushes value onto a sequence document.
	Insert(value any) (any, error)
	// Push appends value to the sequence at path, or behaves as Insert.
	Push(value any, path string) (any, error)
	// Update replaces an existing entry.
	Update(key string, value any, path string) (any, error)
	// Edit replaces the first entry passing test and returns its old value.
	Edit(test TestFunc, edit EditFunc) (any, error)
	// Modify replaces the document with the result of fn.
	Modify(fn func(doc any) any) (any, error)
	// Ensure inserts value only when the target is absent.
	Ensure(key string, value any, path string) (bool, error)
	// Invert flips the boolean at path.
	Invert(path string) (bool, error)

	// Exists reports whether the key (and path) resolves.
	Exists(key, path string) bool
	// Has returns the resolved value, or an empty mapping.
	Has(key, path string) any
	// Expect compares the resolved value with expected, optionally
	// overwriting it.
	Expect(key string, expected any, path string, overwrite bool) (bool, error)
	// Accumulate writes back fn applied to the value at path.
	Accumulate(path string, fn func(current any) any) (any, error)

	// Destroy resets the document to an empty mapping.
	Destroy() (any, error)
	// Sweep removes the entries of the container at path that pass test.
	Sweep(path string, test TestFunc) (int, error)
	// Delete removes the entry at key (and path).
	Delete(key, path string) error

	// Return calls fn with the value at path.
	Return(path string, fn func(value any)) error
	// Each calls fn for every entry of the container at path.
	Each(path string, fn func(value any, key string)) error
	// Filter returns the values of the container at path that pass test.
	Filter(path string, test TestFunc) ([]any, error)
	// Map replaces every entry of the container at path with fn's result.
	Map(path string, fn EditFunc) (any, error)
	// Sort orders the container at path by cmp and writes it back.
	Sort(path string, cmp func(a, b any) int) (any, error)
	// Find returns the first value of the container at path passing test.
	Find(path string, test TestFunc) (any, error)
	// Search ranks strings of the document by similarity to term.
	Search(term string, opts SearchOptions) (*SearchResult, error)

	// Poll re-reads the backing file.
	Poll() error
	// Backup writes one backup to the configured destination.
	Backup(ctx context.Context) error
	// Disconnect stops background work and releases the document.
	Disconnect() error
	// Reconnect attaches to another file. The state is unchanged on error.
	Reconnect(path string) error
	// Resume attaches a non-connected connection to path with opts.
	Resume(path string, opts Options) error
}

// Pool is a directory of connections keyed by file name without extension.
type Pool interface {
	// Select returns the named connection.
	Select(name string) (Connection, bool)
	// LRR returns the last resolved connection, if any.
	LRR() Connection
	// Names returns the connection names in discovery order.
	Names() []string
	// Kinds returns the document kind of every connection.
	Kinds() map[string]Kind
	// Close disconnects every connection and stops background work.
	Close() error
}
