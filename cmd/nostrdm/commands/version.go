package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X nostrdm/cmd/nostrdm/commands.version=...".
var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
