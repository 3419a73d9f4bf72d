package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmedge/wasmedgeup/internal/config"
	"github.com/wasmedge/wasmedgeup/internal/install"
)

var removePath string

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a WasmEdge installation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ExpandPath(removePath)
		if err != nil {
			return err
		}

		p, err := resolvePlatform("", "")
		if err != nil {
			return err
		}

		scheme, err := namingScheme()
		if err != nil {
			return err
		}

		fetcher, rels := newClients()
		installer := install.New(path, os.TempDir(), p, scheme, fetcher, rels)
		if err := installer.Remove(); err != nil {
			return err
		}

		fmt.Printf("Successfully removed WasmEdge from %s\n", path)
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVarP(&removePath, "path", "p", config.DefaultInstallPath(), "installation path to remove")
	RootCmd.AddCommand(removeCmd)
}
