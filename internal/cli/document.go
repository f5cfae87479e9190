package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qdb/internal/document"
	"github.com/mesh-intelligence/qdb/pkg/qdb"
	"github.com/mesh-intelligence/qdb/pkg/types"
)

// withDocument connects to the resolved document, runs fn and disconnects.
func withDocument(fn func(conn types.Connection) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	conn, err := qdb.Connect(s.file, s.opts)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			logger.Warn("disconnect failed", "error", err)
		}
	}()
	if conn.State() != types.StateConnected {
		return fmt.Errorf("%w: document %s does not exist, run qdb init", errUsage, s.file)
	}
	return fn(conn)
}

// parseValue reads a JSON value from the command line. Text that is not JSON
// is taken as a string.
func parseValue(arg string) any {
	v, err := document.Decode([]byte(arg))
	if err != nil {
		return arg
	}
	return v
}

func printValue(w io.Writer, v any) error {
	data, err := document.Encode(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func optionalKey(a []string) string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

func newFetchCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "fetch [key]",
		Short: "Print the value at key and path",
		Args:  args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				v, err := conn.Fetch(optionalKey(a), path)
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path below the key")
	return cmd
}

func newSetCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a JSON value at key and path",
		Long:  "Store a JSON value at key and path. An empty key replaces the\ndocument. Values that are not JSON are stored as strings.",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				_, err := conn.Set(a[0], parseValue(a[1]), path)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path below the key")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove the entry at key and path",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				return conn.Delete(a[0], path)
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path below the key")
	return cmd
}

func newPushCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "push <value>",
		Short: "Append a value to the array at path",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				_, err := conn.Push(parseValue(a[0]), path)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path of the array")
	return cmd
}

func newAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append [key] <value>",
		Short: "Insert a unique top-level entry",
		Long:  "Insert a unique top-level entry. Objects without a key get a\ngenerated one; arrays reject keys and duplicate items.",
		Args:  args(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			key, value := "", a[0]
			if len(a) == 2 {
				key, value = a[0], a[1]
			}
			return withDocument(func(conn types.Connection) error {
				_, err := conn.Append(key, parseValue(value))
				return err
			})
		},
	}
}

func newEnsureCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "ensure <key> <value>",
		Short: "Store a value only when the target is absent",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				inserted, err := conn.Ensure(a[0], parseValue(a[1]), path)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(inserted))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path below the key")
	return cmd
}

func newInvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invert <path>",
		Short: "Flip the boolean at path",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				v, err := conn.Invert(a[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(v))
				return err
			})
		},
	}
}

func newExistsCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether key and path resolve",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(conn.Exists(a[0], path)))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "dotted path below the key")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var opts types.SearchOptions
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Rank strings of the document by similarity to term",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return withDocument(func(conn types.Connection) error {
				res, err := conn.Search(a[0], opts)
				if err != nil {
					return err
				}
				v, err := document.Normalize(res)
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "dotted path of the container to search")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "dotted path of the string inside each entry")
	cmd.Flags().IntVarP(&opts.Amount, "amount", "n", 0, "keep only the best n matches")
	cmd.Flags().BoolVar(&opts.CaseSensitive, "case-sensitive", false, "compare without lower-casing")
	return cmd
}
