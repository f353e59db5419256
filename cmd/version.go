package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the crew version",
	GroupID: "info",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crew %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
