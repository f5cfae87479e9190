// Package backup stores point-in-time copies of QDB documents.
//
// The destination decides the sink: a path ending in .db or .sqlite is a
// SQLite archive, .bolt is a bbolt archive, and anything else is a directory
// that receives one timestamped JSON file per backup.
package backup

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoBackup is returned by Latest when a sink holds no backup of a
// document.
var ErrNoBackup = errors.New("no backup found")

// TimeLayout names backup files and directories. It sorts lexically and has
// no characters that are awkward in file names.
const TimeLayout = "2006-01-02T15-04-05.000Z"

// Snapshot is one backup of a document.
type Snapshot struct {
	// Name identifies the document, usually its file name without extension.
	Name string
	// Data is the encoded document.
	Data []byte
	// Checksum is the xxhash of Data.
	Checksum uint64
	// Taken is when the snapshot was made.
	Taken time.Time
}

// Sink receives snapshots.
type Sink interface {
	// Write stores snap and returns where it went.
	Write(ctx context.Context, snap Snapshot) (string, error)
	// Latest returns the newest snapshot stored under name.
	Latest(ctx context.Context, name string) (Snapshot, error)
	// Close releases the sink.
	Close() error
}

// Open returns the sink for dest.
func Open(dest string) (Sink, error) {
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".db", ".sqlite":
		return OpenSQLite(dest)
	case ".bolt":
		return OpenBolt(dest)
	default:
		return NewDir(dest), nil
	}
}

// Stamp formats t for use in backup names.
func Stamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
