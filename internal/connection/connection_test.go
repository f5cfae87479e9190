// Tests for the connection lifecycle, persistence and background work.
package connection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qdb/internal/backup"
	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// open writes content to a fresh file and connects to it.
func open(t *testing.T, content string) (*Connection, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	c, err := Connect(path, types.Options{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Disconnect() })
	return c, path
}

// onDisk decodes the backing file.
func onDisk(t *testing.T, path string) any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	v, err := document.Decode(data)
	require.NoError(t, err)
	return v
}

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := document.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func assertDoc(t *testing.T, want string, got any) {
	t.Helper()
	data, err := document.Encode(got)
	require.NoError(t, err)
	assert.True(t, document.Equal(decode(t, want), got), "want %s, got %s", want, data)
}

func TestConnection_Connect(t *testing.T) {
	c, path := open(t, `{"a": 1, "b": [true]}`)

	assert.Equal(t, types.StateConnected, c.State())
	assert.Equal(t, path, c.Path())
	assert.Equal(t, "db", c.Name())
	assert.Equal(t, types.KindMapping, c.Kind())
	assert.Equal(t, 2, c.Len())
}

func TestConnection_ConnectArray(t *testing.T) {
	c, _ := open(t, `["x", "y", "z"]`)
	assert.Equal(t, types.KindSequence, c.Kind())
	assert.Equal(t, 3, c.Len())
}

func TestConnection_ConnectMissingFileIsPartial(t *testing.T) {
	c, err := Connect(filepath.Join(t.TempDir(), "missing.json"), types.Options{})
	require.NoError(t, err)

	assert.Equal(t, types.StatePartial, c.State())
	assert.Equal(t, "", c.Path())
	assert.Equal(t, types.KindNone, c.Kind())

	_, err = c.Fetch("a", "")
	assert.ErrorIs(t, err, types.ErrPartial)
	assert.ErrorIs(t, err, types.ErrAbsent)

	_, err = c.Set("a", 1, "")
	assert.ErrorIs(t, err, types.ErrPartial)
	assert.ErrorIs(t, err, types.ErrRejected)

	assert.False(t, c.Exists("a", ""))
	assertDoc(t, `{}`, c.Has("a", ""))
	assert.NoError(t, c.Disconnect())
}

func TestConnection_ConnectErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": `), 0644))
	_, err := Connect(bad, types.Options{})
	assert.Error(t, err)

	scalar := filepath.Join(dir, "scalar.json")
	require.NoError(t, os.WriteFile(scalar, []byte(`"text"`), 0644))
	_, err = Connect(scalar, types.Options{})
	assert.ErrorIs(t, err, types.ErrInvalidDocument)

	_, err = Connect(bad, types.Options{Interval: -time.Second})
	assert.ErrorIs(t, err, types.ErrIntervalInvalid)
	_, err = Connect(bad, types.Options{Polling: -time.Second})
	assert.ErrorIs(t, err, types.ErrPollingInvalid)
}

func TestConnection_PersistsWithFourSpaces(t *testing.T) {
	c, path := open(t, `{}`)

	_, err := c.Set("user", map[string]any{"name": "ann"}, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"user\": {\n        \"name\": \"ann\"\n    }\n}", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestConnection_KeepsFileMode(t *testing.T) {
	c, path := open(t, `{}`)
	require.NoError(t, os.Chmod(path, 0600))

	_, err := c.Set("a", 1, "")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConnection_FailedWriteKeepsDocument(t *testing.T) {
	c, path := open(t, `{"a": 1}`)
	require.NoError(t, os.RemoveAll(filepath.Dir(path)))

	_, err := c.Set("a", 2, "")
	require.Error(t, err)

	v, err := c.Fetch("a", "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestConnection_Disconnect(t *testing.T) {
	c, _ := open(t, `{"a": 1}`)

	require.NoError(t, c.Disconnect())
	assert.Equal(t, types.StateDisconnected, c.State())
	assert.Equal(t, "", c.Path())

	_, err := c.Fetch("a", "")
	assert.ErrorIs(t, err, types.ErrPartial)
	require.NoError(t, c.Disconnect(), "disconnect is idempotent")
}

func TestConnection_Reconnect(t *testing.T) {
	c, _ := open(t, `{"a": 1}`)
	other := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`["x"]`), 0644))

	err := c.Reconnect(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, types.StateConnected, c.State())
	assert.Equal(t, types.KindMapping, c.Kind(), "a failed reconnect keeps the document")

	require.NoError(t, c.Reconnect(other))
	assert.Equal(t, types.StateConnected, c.State())
	assert.Equal(t, other, c.Path())
	assert.Equal(t, types.KindSequence, c.Kind())
}

func TestConnection_Resume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "later.json")

	c, err := Connect(path, types.Options{})
	require.NoError(t, err)
	require.Equal(t, types.StatePartial, c.State())

	err = c.Resume(path, types.Options{})
	assert.Error(t, err)
	assert.Equal(t, types.StatePartial, c.State())

	require.NoError(t, os.WriteFile(path, []byte(`{"ok": true}`), 0644))
	require.NoError(t, c.Resume(path, types.Options{}))
	t.Cleanup(func() { _ = c.Disconnect() })

	v, err := c.Fetch("ok", "")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	assert.ErrorIs(t, c.Resume(path, types.Options{Polling: -1}), types.ErrPollingInvalid)
}

func TestConnection_Poll(t *testing.T) {
	c, path := open(t, `{"a": 1}`)

	require.NoError(t, os.WriteFile(path, []byte(`{"a": 2}`), 0644))
	require.NoError(t, c.Poll())

	v, err := c.Fetch("a", "")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	require.NoError(t, os.WriteFile(path, []byte(`{"a": `), 0644))
	assert.Error(t, c.Poll())
	v, _ = c.Fetch("a", "")
	assert.Equal(t, 2.0, v, "a failed poll keeps the document")
}

func TestConnection_PollingOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n": 1}`), 0644))

	c, err := Connect(path, types.Options{Polling: 10 * time.Millisecond})
	require.NoError(t, err)
	defer c.Disconnect()

	require.NoError(t, os.WriteFile(path, []byte(`{"n": 2}`), 0644))
	assert.Eventually(t, func() bool {
		v, err := c.Fetch("n", "")
		return err == nil && v == 2.0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnection_WatchOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n": 1}`), 0644))

	c, err := Connect(path, types.Options{Watch: true})
	require.NoError(t, err)
	defer c.Disconnect()

	require.NoError(t, writeFileAtomic(path, []byte(`{"n": 3}`)))
	assert.Eventually(t, func() bool {
		v, err := c.Fetch("n", "")
		return err == nil && v == 3.0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestConnection_Backup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0644))
	ctx := context.Background()

	for _, dest := range []string{
		filepath.Join(dir, "copies"),
		filepath.Join(dir, "archive.sqlite"),
		filepath.Join(dir, "archive.bolt"),
	} {
		t.Run(filepath.Base(dest), func(t *testing.T) {
			c, err := Connect(path, types.Options{Backups: dest})
			require.NoError(t, err)
			defer c.Disconnect()

			require.NoError(t, c.Backup(ctx))
			_, err = c.Set("a", 2, "")
			require.NoError(t, err)
			require.NoError(t, c.Backup(ctx))
			require.NoError(t, c.Disconnect())

			sink, err := backup.Open(dest)
			require.NoError(t, err)
			defer sink.Close()
			snap, err := sink.Latest(ctx, "users")
			require.NoError(t, err)
			doc, err := document.Decode(snap.Data)
			require.NoError(t, err)
			assertDoc(t, `{"a": 2}`, doc)
		})
	}
}

func TestConnection_BackupSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	dest := filepath.Join(dir, "copies")

	c, err := Connect(path, types.Options{Backups: dest})
	require.NoError(t, err)
	defer c.Disconnect()

	now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
	require.NoError(t, c.Backup(context.Background()))
	now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC) }
	require.NoError(t, c.Backup(context.Background()))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConnection_BackupResumesFromLatest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0644))
	dest := filepath.Join(dir, "copies")
	ctx := context.Background()

	now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	first, err := Connect(path, types.Options{Backups: dest})
	require.NoError(t, err)
	require.NoError(t, first.Backup(ctx))
	require.NoError(t, first.Disconnect())

	// Same content, different layout.
	require.NoError(t, os.WriteFile(path, []byte(`{ "a":1 }`), 0644))
	now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC) }

	second, err := Connect(path, types.Options{Backups: dest})
	require.NoError(t, err)
	defer second.Disconnect()
	require.NoError(t, second.Backup(ctx))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "unchanged document backed up again")

	_, err = second.Set("a", 2, "")
	require.NoError(t, err)
	require.NoError(t, second.Backup(ctx))
	entries, err = os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestConnection_GracefulDisconnectOption(t *testing.T) {
	sigs := make(chan chan<- os.Signal, 1)
	raised := make(chan os.Signal, 1)
	origNotify, origStop, origRaise := notify, stopNotify, raise
	notify = func(c chan<- os.Signal, _ ...os.Signal) { sigs <- c }
	stopNotify = func(chan<- os.Signal) {}
	raise = func(sig os.Signal) { raised <- sig }
	t.Cleanup(func() { notify, stopNotify, raise = origNotify, origStop, origRaise })

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	c, err := Connect(path, types.Options{GracefulDisconnect: true})
	require.NoError(t, err)
	defer c.Disconnect()
	require.Equal(t, types.StateConnected, c.State())

	ch := <-sigs
	ch <- syscall.SIGTERM

	assert.Eventually(t, func() bool {
		return c.State() == types.StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)
	select {
	case sig := <-raised:
		assert.Equal(t, syscall.SIGTERM, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not raised again")
	}
}

func TestConnection_BackupWithoutDestination(t *testing.T) {
	c, _ := open(t, `{}`)
	err := c.Backup(context.Background())
	assert.True(t, errors.Is(err, types.ErrRejected))
}
