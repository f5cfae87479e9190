package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qdb/internal/backup"
	"github.com/mesh-intelligence/qdb/internal/connection"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

func newBackupCmd() *cobra.Command {
	var (
		to     string
		latest bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write one backup of the document",
		Long:  "Write one backup of the document. A destination ending in .db or\n.sqlite is a SQLite archive, .bolt a bbolt archive, anything else\na directory of timestamped copies.",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if to != "" {
				s.opts.Backups = to
			}
			if s.opts.Backups == "" {
				return fmt.Errorf("%w: no backup destination, pass --to or set %s in config.yaml", errUsage, cfgKeyBackups)
			}
			if latest {
				return printLatest(cmd, s)
			}
			conn, err := connection.Connect(s.file, s.opts)
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer func() { _ = conn.Disconnect() }()
			if conn.State() != types.StateConnected {
				return fmt.Errorf("%w: document %s does not exist, run qdb init", errUsage, s.file)
			}
			if err := conn.Backup(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backed up %s to %s\n", conn.Name(), s.opts.Backups)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "backup destination (default: backups in config.yaml)")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the newest backup instead of writing one")
	return cmd
}

// printLatest writes the newest snapshot of the document to stdout.
func printLatest(cmd *cobra.Command, s settings) error {
	sink, err := backup.Open(s.opts.Backups)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	name := strings.TrimSuffix(filepath.Base(s.file), filepath.Ext(s.file))
	snap, err := sink.Latest(cmd.Context(), name)
	if errors.Is(err, backup.ErrNoBackup) {
		return fmt.Errorf("no backup of %s in %s: %w", name, s.opts.Backups, types.ErrAbsent)
	}
	if err != nil {
		return err
	}
	logger.Info("latest backup", "name", name, "taken", snap.Taken)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", snap.Data)
	return err
}

func newPoolCmd() *cobra.Command {
	var (
		backup bool
		to     string
	)
	cmd := &cobra.Command{
		Use:   "pool <dir>",
		Short: "List the documents of a directory",
		Long:  "List the documents of a directory with their kinds. With --backup\nthe directory is copied to a timestamped folder under the destination.",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if to != "" {
				s.opts.Backups = to
			}
			pool, err := connection.OpenPool(a[0], s.opts)
			if err != nil {
				return err
			}
			defer func() { _ = pool.Close() }()

			kinds := pool.Kinds()
			for _, name := range pool.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, kinds[name])
			}
			if !backup {
				return nil
			}
			dst, err := pool.Backup()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backed up %s to %s\n", a[0], dst)
			return nil
		},
	}
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the directory to the backup destination")
	cmd.Flags().StringVar(&to, "to", "", "backup destination (default: backups in config.yaml)")
	return cmd
}
