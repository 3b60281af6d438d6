package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version, overridable at build time with
// -ldflags "-X github.com/sakay/genchat/cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the genchat version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("genchat %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
