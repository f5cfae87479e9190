package connection

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

var now = time.Now

// Signal plumbing, replaced in tests.
var (
	notify     = signal.Notify
	stopNotify = signal.Stop
	raise      = func(sig os.Signal) {
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			_ = p.Signal(sig)
		}
	}
)

// startLocked launches the background work enabled by c.opts. It is all
// stopped by stopLocked.
func (c *Connection) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if c.opts.Polling > 0 {
		go every(ctx, c.opts.Polling, func() {
			if err := c.Poll(); err != nil && !errors.Is(err, types.ErrPartial) {
				c.log.Warn("polling failed", "error", err)
			}
		})
	}
	if c.opts.Backups != "" {
		go every(ctx, c.opts.Interval, func() {
			if err := c.Backup(ctx); err != nil && !errors.Is(err, types.ErrPartial) && ctx.Err() == nil {
				c.log.Warn("scheduled backup failed", "error", err)
			}
		})
	}
	if c.opts.Watch {
		if err := watchFile(ctx, c.path, c.log, func() {
			if err := c.Poll(); err != nil && !errors.Is(err, types.ErrPartial) {
				c.log.Warn("reload after change failed", "error", err)
			}
		}); err != nil {
			c.log.Warn("cannot watch database file", "path", c.path, "error", err)
		}
	}
	if c.opts.GracefulDisconnect {
		onSignal(ctx, c.log, func() {
			if err := c.Disconnect(); err != nil {
				c.log.Warn("disconnect on signal failed", "error", err)
			}
		})
	}
}

// every calls fn each interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

// watchFile calls reload whenever path is written or replaced. The parent
// directory is watched because atomic writes replace the file.
func watchFile(ctx context.Context, path string, log *slog.Logger, reload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}
	name := filepath.Base(path)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Debug("database file changed", "path", path, "op", event.Op.String())
					reload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("error watching database file", "path", path, "error", err)
			}
		}
	}()
	return nil
}

// onSignal runs fn once on SIGINT or SIGTERM, then re-raises the signal so
// the process still terminates the usual way.
func onSignal(ctx context.Context, log *slog.Logger, fn func()) {
	sigs := make(chan os.Signal, 1)
	notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer stopNotify(sigs)
		select {
		case <-ctx.Done():
		case sig := <-sigs:
			log.Info("signal received, disconnecting", "signal", sig.String())
			fn()
			stopNotify(sigs)
			raise(sig)
		}
	}()
}
