// Package qdb is the public entry point: it opens file-backed JSON documents
// and pools of them, and copies document containers into the collection
// helpers.
//
// Example:
//
//	db, err := qdb.Connect("users.json", types.Options{Polling: time.Minute})
//	if err != nil {
//	    return err
//	}
//	defer db.Disconnect()
//	_, err = db.Set("ann", map[string]any{"age": 31}, "")
package qdb

import (
	"github.com/mesh-intelligence/qdb/internal/connection"
	"github.com/mesh-intelligence/qdb/pkg/collection"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Version is the library version reported by the CLI.
const Version = "0.1.0"

// Connect opens the JSON document at path. A missing file yields an idle
// connection in types.StatePartial; call Resume once the file exists.
func Connect(path string, opts types.Options) (types.Connection, error) {
	c, err := connection.Connect(path, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// OpenPool opens one connection per *.json file in dir.
func OpenPool(dir string, opts types.Options) (types.Pool, error) {
	p, err := connection.OpenPool(dir, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ToCache copies the entries of the container at path (the whole document
// for "") into a new Cache keyed like the document.
func ToCache(conn types.Connection, path string) (*collection.Cache[string], error) {
	cache := collection.NewCache[string]()
	err := conn.Each(path, func(value any, key string) {
		cache.Set(key, value)
	})
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// ToDataStore copies the entries of the container at path (the whole
// document for "") into a new DataStore keyed like the document.
func ToDataStore(conn types.Connection, path string) (*collection.DataStore[string, any], error) {
	store := collection.NewDataStore[string, any]()
	err := conn.Each(path, func(value any, key string) {
		store.Replace(key, value)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
