package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

// boltRecord is the msgpack value stored per snapshot.
type boltRecord struct {
	Taken    time.Time `msgpack:"taken"`
	Checksum uint64    `msgpack:"checksum"`
	Data     []byte    `msgpack:"data"`
}

// Bolt keeps snapshots in a bbolt file, one bucket per document, keyed by
// ULID so that keys sort by time.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the archive at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open backup archive: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Write implements Sink.
func (b *Bolt) Write(_ context.Context, snap Snapshot) (string, error) {
	id, err := ulid.New(ulid.Timestamp(snap.Taken), ulid.DefaultEntropy())
	if err != nil {
		return "", fmt.Errorf("generate backup id: %w", err)
	}
	val, err := msgpack.Marshal(boltRecord{Taken: snap.Taken.UTC(), Checksum: snap.Checksum, Data: snap.Data})
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snap.Name))
		if err != nil {
			return err
		}
		return bucket.Put(id[:], val)
	})
	if err != nil {
		return "", fmt.Errorf("store backup: %w", err)
	}
	return b.db.Path() + "#" + snap.Name + "/" + id.String(), nil
}

// Latest implements Sink.
func (b *Bolt) Latest(_ context.Context, name string) (Snapshot, error) {
	var rec boltRecord
	found := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(name))
		if bucket == nil {
			return nil
		}
		_, v := bucket.Cursor().Last()
		if v == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(v, &rec)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}
	if !found {
		return Snapshot{}, ErrNoBackup
	}
	return Snapshot{Name: name, Data: rec.Data, Checksum: rec.Checksum, Taken: rec.Taken}, nil
}

// Close implements Sink.
func (b *Bolt) Close() error {
	return b.db.Close()
}
