package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/mesh-intelligence/qdb/internal/backup"
	"github.com/mesh-intelligence/qdb/pkg/collection"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Pool holds one Connection per *.json file of a directory, keyed by file
// name without extension.
type Pool struct {
	mu     sync.Mutex
	dir    string
	opts   types.Options
	log    *slog.Logger
	conns  *collection.Manager[*Connection]
	cancel context.CancelFunc
}

var _ types.Pool = (*Pool)(nil)

// OpenPool connects to every JSON file in dir. Polling and backups in opts
// apply to the pool as a whole: every connection is polled, and backups copy
// the directory to <Backups>/Backup-<time>/. The other options are passed to
// each connection.
func OpenPool(dir string, opts types.Options) (*Pool, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	log := opts.Logger.With("component", "pool")

	info, err := os.Stat(dir)
	if err != nil {
		log.Error("incorrect pool path", "path", dir, "error", err)
		return nil, fmt.Errorf("open pool %s: %w", dir, errors.Join(types.ErrPoolPath, err))
	}
	if !info.IsDir() {
		log.Error("pool path is a file, not a directory", "path", dir)
		return nil, fmt.Errorf("open pool %s: %w", dir, types.ErrPoolPath)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", dir, err)
	}

	p := &Pool{dir: dir, opts: opts, log: log, conns: collection.NewManager[*Connection]()}
	connOpts := opts
	connOpts.Polling = 0
	connOpts.Backups = ""

	skipped := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			log.Info("ignoring entry that is not a JSON file", "entry", e.Name())
			skipped++
			continue
		}
		c, err := Connect(filepath.Join(dir, e.Name()), connOpts)
		if err != nil {
			log.Warn("cannot open database, ignoring the file", "file", e.Name(), "error", err)
			skipped++
			continue
		}
		if err := p.conns.Add(c.Name(), c); err != nil {
			_ = c.Disconnect()
			log.Warn("duplicate database name, ignoring the file", "file", e.Name())
			skipped++
		}
	}
	log.Info("connected to pool", "path", dir, "databases", p.conns.Store().Len(), "skipped", skipped)

	p.start()
	return p, nil
}

func (p *Pool) start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	if p.opts.Polling > 0 {
		go every(ctx, p.opts.Polling, func() {
			for _, c := range p.connections() {
				if err := c.Poll(); err != nil && !errors.Is(err, types.ErrPartial) {
					p.log.Warn("polling failed", "database", c.Name(), "error", err)
				}
			}
		})
	}
	if p.opts.Backups != "" {
		go every(ctx, p.opts.Interval, func() {
			if _, err := p.Backup(); err != nil {
				p.log.Warn("scheduled backup failed", "error", err)
			}
		})
	}
}

func (p *Pool) connections() []*Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Connection, 0, p.conns.Store().Len())
	for _, c := range p.conns.Store().All() {
		out = append(out, c)
	}
	return out
}

// Select implements types.Pool.
func (p *Pool) Select(name string) (types.Connection, bool) {
	c, ok := p.Connection(name)
	if !ok {
		return nil, false
	}
	return c, true
}

// Connection is Select returning the concrete type.
func (p *Pool) Connection(name string) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns.Resolve(name)
}

// LRR implements types.Pool.
func (p *Pool) LRR() types.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns.LRR()
	if !ok {
		return nil
	}
	return c
}

// Names implements types.Pool.
func (p *Pool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.conns.Store().Keys())
}

// Kinds implements types.Pool.
func (p *Pool) Kinds() map[string]types.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make(map[string]types.Kind, p.conns.Store().Len())
	for name, c := range p.conns.Store().All() {
		kinds[name] = c.Kind()
	}
	return kinds
}

// Backup copies the pool directory to a new Backup-<time> directory below
// the backup destination and returns its path.
func (p *Pool) Backup() (string, error) {
	if p.opts.Backups == "" {
		return "", fmt.Errorf("pool backup: no destination configured: %w", types.ErrRejected)
	}
	dest := filepath.Join(p.opts.Backups, "Backup-"+backup.Stamp(now()))
	if err := backup.CopyTree(p.dir, dest, p.opts.Backups); err != nil {
		p.log.Error("pool backup failed", "path", p.dir, "error", err)
		return "", fmt.Errorf("pool backup: %w", err)
	}
	p.log.Info("created a backup of the pool", "path", p.dir, "backup", dest)
	return dest, nil
}

// Close implements types.Pool.
func (p *Pool) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	return p.closeAll()
}

func (p *Pool) closeAll() error {
	var errs []error
	for _, c := range p.connections() {
		if err := c.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
