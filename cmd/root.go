package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wasmedge/wasmedgeup/internal/config"
	"github.com/wasmedge/wasmedgeup/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
	Cfg     *config.Config
	Version string
)

var RootCmd = &cobra.Command{
	Use:          "wasmedgeup",
	Short:        "WasmEdge runtime and plugin version manager",
	Long:         `wasmedgeup installs, lists, and removes WasmEdge runtime versions and their plugins.`,
	SilenceUsage: true,
}

func Execute(version string) error {
	Version = version
	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.wasmedgeup/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

func initConfig() {
	var err error

	Cfg, err = config.Load(cfgFile)
	if err != nil {
		logger.Fatalf("Configuration could not be loaded: %v", err)
	}

	level := Cfg.Logging.Level
	if verbose || quiet {
		level = logger.LevelFromFlags(verbose, quiet)
	}

	if err := logger.Init(logger.Config{
		Level:  level,
		Format: Cfg.Logging.Format,
	}); err != nil {
		logger.Fatalf("Logger could not be initialized: %v", err)
	}
}
