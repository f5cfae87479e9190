package collection

import (
	"fmt"
	"iter"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Record is a DataStore entry. It carries the key it was stored under.
type Record[K comparable, V any] struct {
	Key   K
	Value V
}

// DataStore is a Collection of Records that remembers the last record it
// resolved (the LRR).
type DataStore[K comparable, V any] struct {
	records *Collection[K, *Record[K, V]]
	lrr     *Record[K, V]
}

// NewDataStore returns an empty DataStore.
func NewDataStore[K comparable, V any]() *DataStore[K, V] {
	return &DataStore[K, V]{records: New[K, *Record[K, V]]()}
}

// Set stores value under a new key. It returns types.ErrRejected if the key
// is already taken.
func (d *DataStore[K, V]) Set(key K, value V) (*Record[K, V], error) {
	if d.records.Has(key) {
		return nil, fmt.Errorf("set %v: key exists: %w", key, types.ErrRejected)
	}
	rec := &Record[K, V]{Key: key, Value: value}
	d.records.Set(key, rec)
	return rec, nil
}

// Replace stores value under key whether or not the key exists.
func (d *DataStore[K, V]) Replace(key K, value V) *Record[K, V] {
	d.forget(key)
	rec := &Record[K, V]{Key: key, Value: value}
	d.records.Set(key, rec)
	return rec
}

// Get returns the record stored under key without touching the LRR.
func (d *DataStore[K, V]) Get(key K) (*Record[K, V], bool) {
	return d.records.Get(key)
}

// Resolve returns the record stored under key and remembers it as the LRR.
func (d *DataStore[K, V]) Resolve(key K) (*Record[K, V], bool) {
	if d.lrr != nil && d.lrr.Key == key {
		return d.lrr, true
	}
	rec, ok := d.records.Get(key)
	if ok {
		d.lrr = rec
	}
	return rec, ok
}

// LRR returns the last resolved record, or nil.
func (d *DataStore[K, V]) LRR() *Record[K, V] {
	return d.lrr
}

// Delete removes key and reports whether it was present.
func (d *DataStore[K, V]) Delete(key K) bool {
	d.forget(key)
	return d.records.Delete(key)
}

func (d *DataStore[K, V]) forget(key K) {
	if d.lrr != nil && d.lrr.Key == key {
		d.lrr = nil
	}
}

// Has reports whether key is present.
func (d *DataStore[K, V]) Has(key K) bool {
	return d.records.Has(key)
}

// Len returns the number of records.
func (d *DataStore[K, V]) Len() int {
	return d.records.Len()
}

// Keys returns the keys in insertion order.
func (d *DataStore[K, V]) Keys() []K {
	return d.records.Keys()
}

// Find returns the first record whose value satisfies test.
func (d *DataStore[K, V]) Find(test func(value V, key K) bool) (*Record[K, V], bool) {
	return d.records.Find(func(rec *Record[K, V], key K) bool { return test(rec.Value, key) })
}

// All iterates over the stored values in insertion order.
func (d *DataStore[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for k, rec := range d.records.All() {
			if !yield(k, rec.Value) {
				return
			}
		}
	}
}
