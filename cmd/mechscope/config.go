// Config loading for the mechscope CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir      = "data_dir"
	cfgKeySearchLimit  = "search_limit"
	cfgKeyHistoryLimit = "history_limit"

	defaultSearchLimit  = 25
	defaultHistoryLimit = 50
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Mechanic-Scope CLI configuration

# Data directory holding catalog.db and progress.db
# (optional; overridable by --data-dir flag or MECHSCOPE_DATA_DIR)
# data_dir:

# Default result limits
search_limit: 25
history_limit: 50
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper, creating the directory and a default file on first run. A
// missing config.yaml is not an error.
func loadConfig() (*viper.Viper, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeySearchLimit, defaultSearchLimit)
	v.SetDefault(cfgKeyHistoryLimit, defaultHistoryLimit)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file
// does not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveConfigDir returns the directory holding config.yaml: the
// --config flag's directory when given, otherwise ~/.mechscope.
func resolveConfigDir() (string, error) {
	if configFile != "" {
		return filepath.Dir(configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mechscope"), nil
}

// resolveDataDir picks the data directory: --data-dir flag, then the
// MECHSCOPE_DATA_DIR environment variable, then config, then
// ~/.mechscope.
func resolveDataDir() (string, error) {
	if dataDirFlag != "" {
		return dataDirFlag, nil
	}
	if env := os.Getenv("MECHSCOPE_DATA_DIR"); env != "" {
		return env, nil
	}

	v, err := loadConfig()
	if err != nil {
		return "", err
	}
	if dir := v.GetString(cfgKeyDataDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mechscope"), nil
}

// configInt reads an integer setting, falling back to its default when
// the config cannot be loaded.
func configInt(key string, fallback int) int {
	v, err := loadConfig()
	if err != nil {
		return fallback
	}
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return fallback
}
