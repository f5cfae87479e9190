package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS backups (
	backup_id TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	taken_at  TEXT NOT NULL,
	checksum  TEXT NOT NULL,
	body      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backups_name ON backups(name, taken_at);
`

// SQLite keeps snapshots as rows of a single SQLite table.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the archive at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open backup archive: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create backup schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Write implements Sink.
func (s *SQLite) Write(ctx context.Context, snap Snapshot) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate backup id: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO backups (backup_id, name, taken_at, checksum, body) VALUES (?, ?, ?, ?, ?)`,
		id.String(), snap.Name, snap.Taken.UTC().Format(time.RFC3339Nano),
		strconv.FormatUint(snap.Checksum, 16), string(snap.Data))
	if err != nil {
		return "", fmt.Errorf("insert backup: %w", err)
	}
	return s.path + "#" + id.String(), nil
}

// Latest implements Sink.
func (s *SQLite) Latest(ctx context.Context, name string) (Snapshot, error) {
	var taken, sum, body string
	err := s.db.QueryRowContext(ctx,
		`SELECT taken_at, checksum, body FROM backups WHERE name = ? ORDER BY taken_at DESC, backup_id DESC LIMIT 1`,
		name).Scan(&taken, &sum, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoBackup
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query backup: %w", err)
	}

	snap := Snapshot{Name: name, Data: []byte(body)}
	if snap.Taken, err = time.Parse(time.RFC3339Nano, taken); err != nil {
		return Snapshot{}, fmt.Errorf("parse backup time: %w", err)
	}
	if snap.Checksum, err = strconv.ParseUint(sum, 16, 64); err != nil {
		return Snapshot{}, fmt.Errorf("parse backup checksum: %w", err)
	}
	return snap, nil
}

// Close implements Sink.
func (s *SQLite) Close() error {
	return s.db.Close()
}
