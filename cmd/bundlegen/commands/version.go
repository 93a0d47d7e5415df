package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at link time with -ldflags "-X .../commands.version=...".
var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bundlegen version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bundlegen %s\n", version)
			return err
		},
	}
}
