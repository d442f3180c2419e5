package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FRACVAULT_ENGINE_ADMIN.
const EnvPrefix = "FRACVAULT"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (fracvault.toml), skipped when paths.Main is empty
// 3. Environment variables (FRACVAULT_ prefix), seeded from paths.Env if present
func LoadConfig(paths ConfigPaths) (*Config, error) {
	// Load the dotenv file first so its values are visible as environment
	// variables. Variables already set in the process win.
	envLoaded, err := loadEnvFile(paths.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	// Create viper instance for main config
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	if paths.Main != "" {
		if err := loadMainConfig(v, paths.Main); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Store paths for reference
	config.configPath = paths.Main
	if envLoaded {
		config.envPath = paths.Env
	}

	// 6. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// loadEnvFile loads a dotenv file if one exists at path. A missing file is
// not an error.
func loadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return true, nil
}

// ReloadConfig reloads configuration from the same paths
func ReloadConfig(existingConfig *Config) (*Config, error) {
	paths := ConfigPaths{
		Main: existingConfig.GetConfigPath(),
		Env:  existingConfig.GetEnvPath(),
	}
	return LoadConfig(paths)
}

// SaveExampleConfig saves an example configuration file
func SaveExampleConfig(configPath string) error {
	exampleConfig := generateExampleConfig()

	v := viper.New()

	// Set all example values
	for key, value := range exampleConfig {
		v.Set(key, value)
	}

	// Write to file
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}
