// Package cli implements the qdb command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qdb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks command-line mistakes so they map to exitUserError.
var errUsage = errors.New("usage")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	file      string
	verbose   bool
}

var (
	flags  rootFlags
	logger = slog.New(slog.DiscardHandler)
)

// NewRootCmd creates the top-level "qdb" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qdb",
		Short: "A file-backed JSON document store",
		Long:  "qdb reads and edits JSON documents through dotted paths,\nwith optional backups and directory pools.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), flags.verbose)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVarP(&flags.file, "file", "f", "", "document file (default: ./qdb.json)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug events")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newSetCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newPushCmd())
	root.AddCommand(newAppendCmd())
	root.AddCommand(newEnsureCmd())
	root.AddCommand(newInvertCmd())
	root.AddCommand(newExistsCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newPoolCmd())

	return root
}

// Execute runs the root command against the process arguments and returns
// the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "qdb:", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errUsage), errors.Is(err, types.ErrAbsent), errors.Is(err, types.ErrRejected):
		return exitUserError
	default:
		return exitSysError
	}
}

// args wraps a cobra argument validator so its failures count as usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}
