package collection

import (
	"fmt"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Manager keeps named instances in a DataStore.
type Manager[V any] struct {
	store *DataStore[string, V]
}

// NewManager returns an empty Manager.
func NewManager[V any]() *Manager[V] {
	return &Manager[V]{store: NewDataStore[string, V]()}
}

// Add registers v under id. It returns types.ErrRejected for an empty or
// taken id.
func (m *Manager[V]) Add(id string, v V) error {
	if id == "" {
		return fmt.Errorf("add: empty id: %w", types.ErrRejected)
	}
	_, err := m.store.Set(id, v)
	return err
}

// Remove unregisters id. It returns types.ErrAbsent if id is unknown.
func (m *Manager[V]) Remove(id string) error {
	if !m.store.Delete(id) {
		return fmt.Errorf("remove %q: %w", id, types.ErrAbsent)
	}
	return nil
}

// Resolve returns the instance registered under id.
func (m *Manager[V]) Resolve(id string) (V, bool) {
	rec, ok := m.store.Resolve(id)
	if !ok {
		var zero V
		return zero, false
	}
	return rec.Value, true
}

// LRR returns the last resolved instance.
func (m *Manager[V]) LRR() (V, bool) {
	rec := m.store.LRR()
	if rec == nil {
		var zero V
		return zero, false
	}
	return rec.Value, true
}

// Store exposes the underlying DataStore.
func (m *Manager[V]) Store() *DataStore[string, V] {
	return m.store
}
