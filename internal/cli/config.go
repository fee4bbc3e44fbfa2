// Package cli layers configuration files and environment variables under
// cobra flags. An explicitly set flag wins, then environment or config file,
// then the flag default.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config describes where configuration is looked up.
type Config struct {
	EnvPrefix        string
	ConfigEnvVar     string
	ConfigName       string
	ConfigType       string
	ConfigSearchPath []string
}

// DefaultConfig is the lookup used by the erdsql command.
func DefaultConfig() Config {
	var search []string
	if home, err := os.UserHomeDir(); err == nil {
		search = append(search, filepath.Join(home, ".config", "erdsql"))
	}
	return Config{
		EnvPrefix:        "ERDSQL",
		ConfigEnvVar:     "ERDSQL_CONFIG",
		ConfigName:       "erdsql",
		ConfigType:       "yaml",
		ConfigSearchPath: search,
	}
}

// Init resets viper and loads configuration for cmd. The config file comes
// from the "config" flag on cmd or its root, then cfg.ConfigEnvVar, then a
// search for cfg.ConfigName. A missing searched-for file is not an error.
func Init(cmd *cobra.Command, cfg Config) error {
	configPath, err := configFlag(cmd)
	if err != nil {
		return err
	}

	viper.Reset()
	viper.SetEnvPrefix(cfg.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	explicit := false
	switch {
	case configPath != "":
		viper.SetConfigFile(configPath)
		explicit = true
	case cfg.ConfigEnvVar != "" && os.Getenv(cfg.ConfigEnvVar) != "":
		viper.SetConfigFile(os.Getenv(cfg.ConfigEnvVar))
		explicit = true
	case cfg.ConfigName != "":
		cfgType := strings.TrimSpace(cfg.ConfigType)
		if cfgType == "" {
			cfgType = "yaml"
		}
		viper.SetConfigName(cfg.ConfigName)
		viper.SetConfigType(cfgType)
		viper.AddConfigPath(".")
		for _, path := range cfg.ConfigSearchPath {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				viper.AddConfigPath(trimmed)
			}
		}
	default:
		return nil
	}

	if err := viper.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &missing) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func configFlag(cmd *cobra.Command) (string, error) {
	flags := cmd.Flags()
	if root := cmd.Root(); root != nil && root.PersistentFlags().Lookup("config") != nil {
		flags = root.PersistentFlags()
	}
	if flags.Lookup("config") == nil {
		return "", nil
	}
	path, err := flags.GetString("config")
	if err != nil {
		return "", fmt.Errorf("failed to read config flag: %w", err)
	}
	return path, nil
}

// useViper reports whether key should come from viper rather than the flag.
func useViper(cmd *cobra.Command, key string) bool {
	f := cmd.Flags().Lookup(key)
	return f == nil || (!f.Changed && viper.IsSet(key))
}

// String resolves a string flag.
func String(cmd *cobra.Command, key string) string {
	if useViper(cmd, key) {
		return viper.GetString(key)
	}
	value, _ := cmd.Flags().GetString(key)
	return value
}

// Bool resolves a bool flag.
func Bool(cmd *cobra.Command, key string) bool {
	if useViper(cmd, key) {
		return viper.GetBool(key)
	}
	value, _ := cmd.Flags().GetBool(key)
	return value
}

// StringSlice resolves a string slice flag. Entries are split on commas,
// trimmed, and empty ones dropped, whichever source the value came from.
func StringSlice(cmd *cobra.Command, key string) []string {
	var values []string
	if useViper(cmd, key) {
		values = viper.GetStringSlice(key)
	} else {
		values, _ = cmd.Flags().GetStringSlice(key)
	}
	return splitList(values)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
