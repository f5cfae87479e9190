package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qdb/pkg/qdb"
)

const modulePath = "github.com/mesh-intelligence/qdb"

// newVersionCmd reports the build and where the other commands would look
// for their document and configuration.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qdb version and the resolved document",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "qdb v%s\nmodule: %s\n", qdb.Version, modulePath)
			s, err := loadSettings()
			if err != nil {
				logger.Warn("cannot resolve settings", "error", err)
				return nil
			}
			fmt.Fprintf(w, "document: %s\nconfig: %s\n", s.file, s.configDir)
			return nil
		},
	}
}
