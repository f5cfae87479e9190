package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Dir writes each snapshot to <root>/<name>-<stamp>.json.
type Dir struct {
	root string
}

// NewDir returns a directory sink. The directory is created on first write.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Write implements Sink.
func (d *Dir) Write(_ context.Context, snap Snapshot) (string, error) {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	path := filepath.Join(d.root, snap.Name+"-"+Stamp(snap.Taken)+".json")
	if err := os.WriteFile(path, snap.Data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}

// Latest implements Sink.
func (d *Dir) Latest(_ context.Context, name string) (Snapshot, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoBackup
		}
		return Snapshot{}, fmt.Errorf("read backup directory: %w", err)
	}

	prefix := name + "-"
	var (
		latest string
		taken  time.Time
	)
	for _, e := range entries {
		base := e.Name()
		if e.IsDir() || !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".json") {
			continue
		}
		// Backups of "name-x" share the prefix but not the stamp shape.
		stamp := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".json")
		if len(stamp) != len(TimeLayout) {
			continue
		}
		t, err := time.Parse(TimeLayout, stamp)
		if err != nil {
			continue
		}
		if latest == "" || t.After(taken) {
			latest, taken = base, t
		}
	}
	if latest == "" {
		return Snapshot{}, ErrNoBackup
	}

	data, err := os.ReadFile(filepath.Join(d.root, latest))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}
	return Snapshot{Name: name, Data: data, Checksum: xxhash.Sum64(data), Taken: taken}, nil
}

// Close implements Sink.
func (d *Dir) Close() error {
	return nil
}

// CopyTree copies every regular file below src into dst, keeping the
// relative layout. dst and the skip directories are not copied when they lie
// inside src.
func CopyTree(src, dst string, skip ...string) error {
	excluded := make(map[string]bool, len(skip)+1)
	for _, dir := range append([]string{dst}, skip...) {
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = true
		}
	}
	return filepath.WalkDir(src, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0644)
	})
}
