package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time with
// -ldflags "-X github.com/arfanana/smart-internship-engine/cmd.version=<tag>".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the internship-engine build version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
