package types

import (
	"log/slog"
	"time"
)

// DefaultInterval is the backup interval used when Options.Interval is zero
// (five hours).
const DefaultInterval = 5 * time.Hour

// Options configures a Connection or a Pool.
type Options struct {
	// Polling re-reads the backing file at this interval. Zero disables it.
	Polling time.Duration `json:"polling" yaml:"polling" mapstructure:"polling"`

	// Watch reloads the document when the backing file changes on disk.
	Watch bool `json:"watch" yaml:"watch" mapstructure:"watch"`

	// Backups is the backup destination. Empty disables backups. A path
	// ending in .db or .sqlite selects the SQLite archive, .bolt selects the
	// bbolt archive, anything else is a directory of timestamped copies.
	Backups string `json:"backups" yaml:"backups" mapstructure:"backups"`

	// Interval between two backups. Defaults to DefaultInterval.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// GracefulDisconnect disconnects when the process receives SIGINT or
	// SIGTERM.
	GracefulDisconnect bool `json:"graceful_disconnect" yaml:"graceful_disconnect" mapstructure:"graceful_disconnect"`

	// Logger receives the diagnostic events (connect, disconnect, reconnect,
	// backup, poll, pool skips). Nil discards them.
	Logger *slog.Logger `json:"-" yaml:"-" mapstructure:"-"`
}

// Validate checks that the Options are well-formed.
func (o Options) Validate() error {
	if o.Polling < 0 {
		return ErrPollingInvalid
	}
	if o.Interval < 0 {
		return ErrIntervalInvalid
	}
	return nil
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Interval == 0 {
		o.Interval = DefaultInterval
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
