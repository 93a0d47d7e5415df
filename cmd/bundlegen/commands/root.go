package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

// NewRootCmd builds the command tree writing results to out and logs and
// errors to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "bundlegen",
		Short:         "Generate factory dispatchers, service proxies and activators from tagged Go declarations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(generateCmd(), versionCmd())
	return root
}
