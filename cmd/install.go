package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmedge/wasmedgeup/internal/config"
	"github.com/wasmedge/wasmedgeup/internal/install"
)

var (
	installPath string
	installTmp  string
	installOS   string
	installArch string
)

var installCmd = &cobra.Command{
	Use:   "install <version>",
	Short: "Install the WasmEdge runtime",
	Long:  `Download, verify, and unpack a WasmEdge runtime release. Use 'latest' to install the newest published version.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolvePlatform(installOS, installArch)
		if err != nil {
			return err
		}

		scheme, err := namingScheme()
		if err != nil {
			return err
		}

		path := installPath
		if !cmd.Flags().Changed("path") && Cfg.Install.Path != "" {
			path = Cfg.Install.Path
		}
		path, err = config.ExpandPath(path)
		if err != nil {
			return err
		}

		tmpDir := installTmp
		if !cmd.Flags().Changed("tmpdir") && Cfg.Install.TmpDir != "" {
			tmpDir = Cfg.Install.TmpDir
		}
		tmpDir, err = config.ExpandPath(tmpDir)
		if err != nil {
			return err
		}

		fetcher, rels := newClients()
		version, err := resolveVersion(cmd.Context(), rels, args[0])
		if err != nil {
			return err
		}

		installer := install.New(path, tmpDir, p, scheme, fetcher, rels)
		if err := installer.Install(cmd.Context(), version); err != nil {
			return err
		}

		fmt.Printf("Successfully installed WasmEdge %s\n", version)
		return nil
	},
}

func init() {
	installCmd.Flags().StringVarP(&installPath, "path", "p", config.DefaultInstallPath(), "installation path")
	installCmd.Flags().StringVarP(&installTmp, "tmpdir", "t", os.TempDir(), "temporary directory for downloads")
	installCmd.Flags().StringVarP(&installOS, "os", "o", "", "override OS detection (linux, ubuntu, darwin, windows)")
	installCmd.Flags().StringVarP(&installArch, "arch", "a", "", "override architecture detection (x86_64, arm64)")
	RootCmd.AddCommand(installCmd)
}
