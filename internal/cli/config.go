package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qdb/internal/paths"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyFile     = "file"
	cfgKeyBackups  = "backups"
	cfgKeyInterval = "interval"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	File     string `yaml:"file,omitempty"`
	Backups  string `yaml:"backups,omitempty"`
	Interval string `yaml:"interval"`
}

// settings is the resolved configuration of one command invocation.
type settings struct {
	configDir string
	file      string
	opts      types.Options
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyInterval, types.DefaultInterval)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// loadSettings resolves the config directory, reads config.yaml and resolves
// the document file.
func loadSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	file, err := paths.ResolveDocument(flags.file, v.GetString(cfgKeyFile))
	if err != nil {
		return settings{}, fmt.Errorf("resolve document: %w", err)
	}
	interval := v.GetDuration(cfgKeyInterval)
	if interval <= 0 {
		return settings{}, fmt.Errorf("%w: %s in %s", types.ErrIntervalInvalid, cfgKeyInterval, paths.ConfigFileName)
	}
	return settings{
		configDir: configDir,
		file:      file,
		opts: types.Options{
			Backups:  v.GetString(cfgKeyBackups),
			Interval: interval,
			Logger:   logger,
		},
	}, nil
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist. If it already exists, the function returns nil (idempotent).
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
