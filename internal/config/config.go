package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Install InstallConfig `mapstructure:"install" yaml:"install"`
	Release ReleaseConfig `mapstructure:"release" yaml:"release"`
	Plugin  PluginConfig  `mapstructure:"plugin" yaml:"plugin"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// InstallConfig holds install tree locations
type InstallConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	TmpDir string `mapstructure:"tmpdir" yaml:"tmpdir"`
}

// ReleaseConfig holds the release source and artifact naming revision
type ReleaseConfig struct {
	Owner        string `mapstructure:"owner" yaml:"owner"`
	Repo         string `mapstructure:"repo" yaml:"repo"`
	Mirror       string `mapstructure:"mirror" yaml:"mirror,omitempty"`
	NamingScheme string `mapstructure:"naming_scheme" yaml:"naming_scheme"`
}

// PluginConfig holds plugin handling options
type PluginConfig struct {
	MatchScheme string `mapstructure:"match_scheme" yaml:"match_scheme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultInstallPath is where the runtime lands unless overridden.
func DefaultInstallPath() string {
	return filepath.Join("~", ".wasmedge")
}

// Load loads configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("install.path", DefaultInstallPath())
	v.SetDefault("install.tmpdir", os.TempDir())
	v.SetDefault("release.owner", "WasmEdge")
	v.SetDefault("release.repo", "WasmEdge")
	v.SetDefault("release.naming_scheme", "classic")
	v.SetDefault("plugin.match_scheme", "exact")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.wasmedgeup")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("WASMEDGEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Write serializes cfg as YAML to path, creating parent directories. Used by
// `wasmedgeup config init` to seed an editable config file.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
