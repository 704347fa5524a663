package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/remotedev"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of remotedev",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "remotedev version %s\n", strings.TrimSpace(remotedev.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
