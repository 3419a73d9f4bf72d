package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available WasmEdge versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rels := newClients()

		versions, err := rels.List(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Available versions:")
		for i, version := range versions {
			if i == 0 {
				fmt.Printf("%s <- latest\n", version)
				continue
			}
			fmt.Println(version)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
