package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/internal/paths"
	"github.com/mesh-intelligence/qdb/pkg/qdb"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

func newInitCmd() *cobra.Command {
	var array bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize qdb configuration and the document file",
		Long:  "Write config.yaml when missing and create an empty document\nwhen the document file does not exist.",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, array)
		},
	}
	cmd.Flags().BoolVar(&array, "array", false, "create an array document instead of an object")
	return cmd
}

func runInit(cmd *cobra.Command, array bool) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	written, err := writeConfigIfMissing(filepath.Join(s.configDir, paths.ConfigFileName), configFile{
		File:     s.file,
		Backups:  s.opts.Backups,
		Interval: s.opts.Interval.String(),
	})
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if written {
		logger.Info("wrote default config", "dir", s.configDir)
	}

	if _, err := os.Stat(s.file); os.IsNotExist(err) {
		var root any = document.NewMapping()
		if array {
			root = []any{}
		}
		data, err := document.Encode(root)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
			return fmt.Errorf("create document dir: %w", err)
		}
		if err := os.WriteFile(s.file, data, 0o644); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
	}

	// Connecting validates an existing file.
	conn, err := qdb.Connect(s.file, s.opts)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = conn.Disconnect() }()
	if conn.State() != types.StateConnected {
		return fmt.Errorf("open document %s: %w", s.file, os.ErrNotExist)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "qdb initialized: %s (%s)\n", s.file, conn.Kind())
	return nil
}
