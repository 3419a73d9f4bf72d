package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmedge/wasmedgeup/internal/config"
	"github.com/wasmedge/wasmedgeup/internal/plugin"
)

var (
	pluginInstallDir string
	pluginRuntime    string
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage WasmEdge plugins",
	Long: "Install, list, and remove WasmEdge plugins.\n\nCommonly available plugins:\n  " +
		strings.Join(plugin.KnownPlugins, "\n  "),
}

var pluginInstallCmd = &cobra.Command{
	Use:   "install <name[@version]>...",
	Short: "Install plugins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newPluginManager(cmd, true)
		if err != nil {
			return err
		}

		failed := 0
		for _, token := range args {
			spec := plugin.ParseSpec(token)
			if err := manager.Install(cmd.Context(), spec.Name, spec.Version); err != nil {
				fmt.Printf("Failed to install plugin %s: %v\n", spec.Name, err)
				failed++
				continue
			}
			fmt.Printf("Successfully installed plugin %s\n", spec.Name)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d plugin installs failed", failed, len(args))
		}
		return nil
	},
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolvePlatform("", "")
		if err != nil {
			return err
		}

		manager, err := newPluginManager(cmd, true)
		if err != nil {
			return err
		}

		plugins, err := manager.List(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Available plugins:")
		for _, info := range plugins {
			if info.Compatible {
				fmt.Printf("%s %s\n", info.Name, info.Version)
				continue
			}
			fmt.Printf("%s %s [Not compatible with %s]\n", info.Name, info.Version, p)
		}
		return nil
	},
}

var pluginInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show published version information for a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newPluginManager(cmd, false)
		if err != nil {
			return err
		}

		name := args[0]
		vm, err := manager.FetchVersionManifest(cmd.Context(), name)
		if err != nil {
			return err
		}

		fmt.Printf("Plugin %s\n", name)
		if len(vm.Maintained) > 0 {
			fmt.Printf("  Maintained: %s\n", strings.Join(vm.Maintained, ", "))
		}
		if len(vm.Deprecated) > 0 {
			fmt.Printf("  Deprecated: %s\n", strings.Join(vm.Deprecated, ", "))
		}

		mf, err := manager.FetchManifest(cmd.Context(), name)
		if err != nil {
			// The build matrix is optional upstream; the version lists above
			// are still worth printing on their own.
			return nil
		}
		for runtime, builds := range mf {
			for version, build := range builds {
				fmt.Printf("  %s (runtime %s): %s\n", version, runtime, strings.Join(build.Platform, ", "))
			}
		}
		return nil
	},
}

var pluginRemoveCmd = &cobra.Command{
	Use:   "remove <name[@version]>...",
	Short: "Remove plugins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newPluginManager(cmd, false)
		if err != nil {
			return err
		}

		failed := 0
		for _, token := range args {
			spec := plugin.ParseSpec(token)
			if err := manager.Remove(spec.Name, spec.Version); err != nil {
				fmt.Printf("Failed to remove plugin %s: %v\n", spec.Name, err)
				failed++
				continue
			}
			fmt.Printf("Successfully removed plugin %s\n", spec.Name)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d plugin removals failed", failed, len(args))
		}
		return nil
	},
}

// newPluginManager wires a manager against the configured install tree.
// Operations addressing release artifacts need a runtime version, defaulted
// to the newest published release; purely local operations like removal skip
// that lookup so they work offline.
func newPluginManager(cmd *cobra.Command, needRuntime bool) (*plugin.Manager, error) {
	p, err := resolvePlatform("", "")
	if err != nil {
		return nil, err
	}

	scheme, err := namingScheme()
	if err != nil {
		return nil, err
	}

	matcher, err := plugin.MatcherByID(Cfg.Plugin.MatchScheme)
	if err != nil {
		return nil, err
	}

	installDir := pluginInstallDir
	if !cmd.Flags().Changed("path") && Cfg.Install.Path != "" {
		installDir = Cfg.Install.Path
	}
	installDir, err = config.ExpandPath(installDir)
	if err != nil {
		return nil, err
	}

	fetcher, rels := newClients()
	version := pluginRuntime
	if needRuntime && version == "" {
		if version, err = rels.Latest(cmd.Context()); err != nil {
			return nil, err
		}
	}

	manager := plugin.NewManager(version, p, scheme, filepath.Join(installDir, "plugin"), fetcher, rels)
	manager.SetMatcher(matcher)
	return manager, nil
}

func init() {
	pluginCmd.PersistentFlags().StringVarP(&pluginInstallDir, "path", "p", config.DefaultInstallPath(), "installation path holding the plugin directory")
	pluginCmd.PersistentFlags().StringVarP(&pluginRuntime, "runtime", "r", "", "runtime version to resolve plugins against (default: latest release)")
	pluginCmd.AddCommand(pluginInstallCmd)
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginInfoCmd)
	pluginCmd.AddCommand(pluginRemoveCmd)
	RootCmd.AddCommand(pluginCmd)
}
