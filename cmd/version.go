package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wasmedgeup %s\n", Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
