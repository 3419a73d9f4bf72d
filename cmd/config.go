package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wasmedgeup configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to a config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to determine home directory: %w", err)
		}
		path := filepath.Join(home, ".wasmedgeup", "config.yaml")

		if !configInitForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file %s already exists, use --force to overwrite", path)
			}
		}

		if err := Cfg.Write(path); err != nil {
			return err
		}

		fmt.Printf("Wrote configuration to %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(configCmd)
}
