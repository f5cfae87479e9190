// Package connection implements types.Connection on top of a single JSON
// file, and types.Pool on top of a directory of them.
//
// The whole document is held in memory and rewritten atomically after every
// mutating call. Writes go through dotpath, which never mutates the current
// tree, so the in-memory document is only replaced once the file write has
// succeeded.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mesh-intelligence/qdb/internal/backup"
	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Connection is a file-backed JSON document.
type Connection struct {
	mu    sync.RWMutex
	state types.State
	path  string
	opts  types.Options
	log   *slog.Logger

	doc any
	// sum is the checksum of the encoded document as last read or written.
	sum uint64

	sink      backup.Sink
	backupSum uint64
	backedUp  bool
	cancel    context.CancelFunc
}

var _ types.Connection = (*Connection)(nil)

// Connect opens the document at path and starts the background work the
// options ask for. A missing file yields a connection in StatePartial rather
// than an error; Resume attaches it later. Malformed files and invalid
// options are errors.
func Connect(path string, opts types.Options) (*Connection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	c := &Connection{state: types.StateBase, opts: opts, log: opts.Logger.With("component", "manager")}

	if !fileExists(path) {
		c.state = types.StatePartial
		c.log.Info("backing file not found, connected to idle database", "path", path)
		return c, nil
	}

	doc, sum, err := load(path)
	if err != nil {
		return nil, err
	}
	c.attach(path, doc, sum)
	c.startLocked()
	c.log.Info("connected to database", "path", path, "kind", document.KindOf(doc))
	return c, nil
}

// attach installs a loaded document. Callers hold mu or own c exclusively.
func (c *Connection) attach(path string, doc any, sum uint64) {
	c.path = path
	c.doc = doc
	c.sum = sum
	c.state = types.StateConnected
	c.backedUp = false
}

// Path implements types.Connection.
func (c *Connection) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != types.StateConnected {
		return ""
	}
	return c.path
}

// State implements types.Connection.
func (c *Connection) State() types.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Kind implements types.Connection.
func (c *Connection) Kind() types.Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return document.KindOf(c.doc)
}

// Len implements types.Connection.
func (c *Connection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return document.Len(c.doc)
}

// Name returns the file name of the backing file without its extension.
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return nameOf(c.path)
}

func nameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Poll implements types.Connection. An unchanged file is not reloaded.
func (c *Connection) Poll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return partial("poll", types.ErrAbsent)
	}

	doc, sum, err := load(c.path)
	if err != nil {
		c.log.Warn("poll failed", "path", c.path, "error", err)
		return err
	}
	if sum == c.sum {
		return nil
	}
	c.doc, c.sum = doc, sum
	c.log.Debug("reloaded database", "path", c.path)
	return nil
}

// Backup implements types.Connection. A document unchanged since the last
// backup is not written again.
func (c *Connection) Backup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return partial("backup", types.ErrRejected)
	}
	if c.opts.Backups == "" {
		return fmt.Errorf("backup: no destination configured: %w", types.ErrRejected)
	}

	if c.sink == nil {
		sink, err := backup.Open(c.opts.Backups)
		if err != nil {
			return err
		}
		c.sink = sink
		c.seedBackupLocked(ctx)
	}
	if c.backedUp && c.backupSum == c.sum {
		c.log.Debug("backup skipped, document unchanged", "path", c.path)
		return nil
	}
	data, err := document.Encode(c.doc)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	snap := backup.Snapshot{Name: nameOf(c.path), Data: data, Checksum: xxhash.Sum64(data), Taken: now()}
	where, err := c.sink.Write(ctx, snap)
	if err != nil {
		c.log.Error("backup failed", "path", c.path, "error", err)
		return err
	}
	c.backupSum, c.backedUp = snap.Checksum, true
	c.log.Info("created a backup", "path", c.path, "backup", where)
	return nil
}

// seedBackupLocked picks up the newest backup already in the sink, so a
// document left unchanged across restarts is not backed up again.
func (c *Connection) seedBackupLocked(ctx context.Context) {
	snap, err := c.sink.Latest(ctx, nameOf(c.path))
	switch {
	case err == nil:
		c.backupSum, c.backedUp = snap.Checksum, true
	case !errors.Is(err, backup.ErrNoBackup):
		c.log.Warn("cannot read the latest backup", "backups", c.opts.Backups, "error", err)
	}
}

// Disconnect implements types.Connection. It is a no-op on a connection
// that holds no document.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != types.StateConnected {
		return nil
	}
	err := c.stopLocked()
	c.log.Info("disconnected from database", "path", c.path)
	c.state = types.StateDisconnected
	c.doc = nil
	c.sum = 0
	return err
}

// Reconnect implements types.Connection, keeping the current options.
func (c *Connection) Reconnect(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchLocked("reconnect", path, c.opts)
}

// Resume implements types.Connection.
func (c *Connection) Resume(path string, opts types.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchLocked("resume", path, opts.WithDefaults())
}

func (c *Connection) switchLocked(op, path string, opts types.Options) error {
	if !fileExists(path) {
		c.log.Warn("invalid path to database file, refusing connection", "op", op, "path", path)
		return fmt.Errorf("%s %s: %w", op, path, os.ErrNotExist)
	}
	doc, sum, err := load(path)
	if err != nil {
		return err
	}

	prev := c.state
	c.state = types.StateReconnecting
	c.log.Info("reconnecting to database", "path", path, "from", prev)
	stopErr := c.stopLocked()

	c.opts = opts
	c.log = opts.Logger.With("component", "manager")
	c.attach(path, doc, sum)
	c.startLocked()
	c.log.Info("connected to database", "path", path, "kind", document.KindOf(doc))
	return stopErr
}

// stopLocked cancels background work and releases the backup sink.
func (c *Connection) stopLocked() error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.sink == nil {
		return nil
	}
	err := c.sink.Close()
	c.sink = nil
	if err != nil {
		return fmt.Errorf("close backup sink: %w", err)
	}
	return nil
}

// commit persists next and makes it the document. On error the document is
// left unchanged.
func (c *Connection) commit(op string, next any) error {
	data, err := document.Encode(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		c.log.Error("write failed", "op", op, "path", c.path, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	c.doc = next
	c.sum = xxhash.Sum64(data)
	return nil
}

func absent(op string) error {
	return fmt.Errorf("%s: %w", op, types.ErrAbsent)
}

func rejected(op string) error {
	return fmt.Errorf("%s: %w", op, types.ErrRejected)
}

// partial reports a document call on a connection without a document.
func partial(op string, outcome error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrPartial, outcome)
}

// normalize converts a caller value into the document model.
func normalize(op string, v any) (any, error) {
	n, err := document.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errors.Join(types.ErrRejected, err))
	}
	return n, nil
}
