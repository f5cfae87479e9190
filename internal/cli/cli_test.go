package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qdb/internal/paths"
)

// qdbEnv isolates a test from the user's configuration and returns the
// document file the commands operate on.
func qdbEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(paths.EnvConfigDir, filepath.Join(dir, "config"))
	t.Setenv(paths.EnvDocument, "")
	return filepath.Join(dir, "db.json")
}

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := execute(t, args...)
	require.Equal(t, exitSuccess, code, "qdb %s: %s", strings.Join(args, " "), errOut)
	return out
}

func TestVersion(t *testing.T) {
	file := qdbEnv(t)
	out := mustRun(t, "version", "--file", file)
	assert.Contains(t, out, "qdb v")
	assert.Contains(t, out, modulePath)
	assert.Contains(t, out, "document: "+file+"\n")
	assert.Contains(t, out, "config: "+os.Getenv(paths.EnvConfigDir)+"\n")
}

func TestInit(t *testing.T) {
	file := qdbEnv(t)

	out := mustRun(t, "init", "--file", file)
	assert.Contains(t, out, "object")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "{}", strings.TrimSpace(string(data)))

	cfg, err := os.ReadFile(filepath.Join(os.Getenv(paths.EnvConfigDir), paths.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "file: "+file)
	assert.Contains(t, string(cfg), "interval: 5h0m0s")

	t.Run("idempotent", func(t *testing.T) {
		mustRun(t, "set", "a", "1", "--file", file)
		mustRun(t, "init", "--file", file)
		assert.Equal(t, "1\n", mustRun(t, "fetch", "a", "--file", file))
	})

	t.Run("config supplies the document", func(t *testing.T) {
		assert.Equal(t, "1\n", mustRun(t, "fetch", "a"))
	})
}

func TestInitArray(t *testing.T) {
	file := qdbEnv(t)
	out := mustRun(t, "init", "--array", "--file", file)
	assert.Contains(t, out, "array")
	mustRun(t, "push", "foo", "--file", file)
	assert.Equal(t, "[\n    \"foo\"\n]\n", mustRun(t, "fetch", "--file", file))
}

func TestDocumentCommands(t *testing.T) {
	file := qdbEnv(t)
	mustRun(t, "init", "--file", file)
	f := func(args ...string) []string { return append(args, "--file", file) }

	mustRun(t, f("set", "user", `{"name":"ann","tags":[]}`)...)
	mustRun(t, f("set", "user", "true", "--path", "admin")...)
	assert.Equal(t, "\"ann\"\n", mustRun(t, f("fetch", "user", "-p", "name")...))
	assert.Equal(t, "3\n", mustRun(t, f("fetch", "user", "-p", "name.length")...))

	mustRun(t, f("push", "red", "--path", "user.tags")...)
	assert.Equal(t, "[\n    \"red\"\n]\n", mustRun(t, f("fetch", "user", "-p", "tags")...))

	assert.Equal(t, "false\n", mustRun(t, f("invert", "user.admin")...))
	assert.Equal(t, "true\n", mustRun(t, f("invert", "user.admin")...))

	assert.Equal(t, "true\n", mustRun(t, f("ensure", "count", "1")...))
	assert.Equal(t, "false\n", mustRun(t, f("ensure", "count", "2")...))
	assert.Equal(t, "1\n", mustRun(t, f("fetch", "count")...))

	mustRun(t, f("append", "plain", "not json")...)
	assert.Equal(t, "\"not json\"\n", mustRun(t, f("fetch", "plain")...))

	_, _, code := execute(t, f("append", "plain", "again")...)
	assert.Equal(t, exitUserError, code)

	assert.Equal(t, "true\n", mustRun(t, f("exists", "user", "-p", "tags")...))
	mustRun(t, f("delete", "user", "-p", "tags")...)
	assert.Equal(t, "false\n", mustRun(t, f("exists", "user", "-p", "tags")...))

	_, errOut, code := execute(t, f("fetch", "missing")...)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "absent")
}

func TestSearchCommand(t *testing.T) {
	file := qdbEnv(t)
	require.NoError(t, os.WriteFile(file, []byte(`["foo","bar","roo","doo","boo"]`), 0o644))

	out := mustRun(t, "search", "oo", "--amount", "3", "--file", file)
	// Three matches plus the best one.
	assert.Equal(t, 4, strings.Count(out, `"rating": 100`))
	assert.NotContains(t, out, `"bar"`)
}

func TestBackupCommand(t *testing.T) {
	file := qdbEnv(t)
	mustRun(t, "init", "--file", file)
	mustRun(t, "set", "a", "1", "--file", file)

	_, _, code := execute(t, "backup", "--file", file)
	assert.Equal(t, exitUserError, code, "no destination configured")

	dest := filepath.Join(t.TempDir(), "archive.db")
	out := mustRun(t, "backup", "--to", dest, "--file", file)
	assert.Contains(t, out, "backed up db")
	assert.FileExists(t, dest)

	out = mustRun(t, "backup", "--latest", "--to", dest, "--file", file)
	assert.Equal(t, "{\n    \"a\": 1\n}\n", out)

	_, _, code = execute(t, "backup", "--latest", "--to", filepath.Join(t.TempDir(), "empty"), "--file", file)
	assert.Equal(t, exitUserError, code)
}

func TestPoolCommand(t *testing.T) {
	qdbEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte(`{"ann":{}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte(`[]`), 0o644))

	out := mustRun(t, "pool", dir)
	assert.Contains(t, out, "users\tobject\n")
	assert.Contains(t, out, "orders\tarray\n")

	dest := t.TempDir()
	out = mustRun(t, "pool", dir, "--backup", "--to", dest)
	assert.Contains(t, out, "backed up")
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.FileExists(t, filepath.Join(dest, entries[0].Name(), "users.json"))
}

func TestExitCodes(t *testing.T) {
	file := qdbEnv(t)
	notDir := filepath.Join(t.TempDir(), "plain.json")
	require.NoError(t, os.WriteFile(notDir, []byte(`{}`), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown flag", []string{"fetch", "--nope"}, exitUserError},
		{"too many args", []string{"set", "a", "b", "c"}, exitUserError},
		{"missing document", []string{"fetch", "--file", file}, exitUserError},
		{"pool on a file", []string{"pool", notDir}, exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := execute(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}
