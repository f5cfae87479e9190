// Package paths resolves the configuration directory and the document file
// used by the qdb command.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the name of the configuration file inside the
// configuration directory.
const ConfigFileName = "config.yaml"

// DefaultDocumentName is the CWD-relative document used when nothing else
// is configured.
const DefaultDocumentName = "qdb.json"

// Environment variable names for overrides.
const (
	EnvConfigDir = "QDB_CONFIG_DIR"
	EnvDocument  = "QDB_FILE"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/qdb (fallback ~/.config/qdb)
// macOS:   ~/Library/Application Support/qdb
// Windows: %APPDATA%/qdb
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "qdb"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "qdb"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "qdb"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > QDB_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDocument returns the document file following the precedence chain:
// flag > configYAMLValue > QDB_FILE env > $(CWD)/qdb.json.
func ResolveDocument(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDocument); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDocumentName), nil
}
