package config

import (
	"path/filepath"
)

// Config represents the complete fracvaultd configuration
type Config struct {
	// 1. RPC server
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// 2. Settlement engine
	Engine EngineConfig `toml:"engine" mapstructure:"engine"`

	// 3. State storage
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`

	// 4. Emitted-record index
	Index IndexConfig `toml:"index" mapstructure:"index"`

	// 5. Logging
	Log LogConfig `toml:"log" mapstructure:"log"`

	// Internal fields for configuration management
	configPath string `toml:"-" mapstructure:"-"`
	envPath    string `toml:"-" mapstructure:"-"`
}

// ConfigPaths holds the paths to configuration files
type ConfigPaths struct {
	Main string // Path to main config file (fracvault.toml)
	Env  string // Path to an optional dotenv file (.env)
}

// DefaultConfigPaths returns the default configuration file paths
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{
		Main: "fracvault.toml",
		Env:  ".env",
	}
}

// ConfigPathsFromDir returns configuration paths for a specific directory
func ConfigPathsFromDir(configDir string) ConfigPaths {
	return ConfigPaths{
		Main: filepath.Join(configDir, "fracvault.toml"),
		Env:  filepath.Join(configDir, ".env"),
	}
}

// GetConfigPath returns the path to the main configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetEnvPath returns the dotenv file that was consulted, if any
func (c *Config) GetEnvPath() string {
	return c.envPath
}

// IsIndexed returns true if committed records are written to a SQL index
func (c *Config) IsIndexed() bool {
	return c.Index.Driver != "" && c.Index.Driver != IndexDriverNone
}

// IsPersistent returns true if state survives a restart
func (c *Config) IsPersistent() bool {
	return c.Storage.Backend != "" && c.Storage.Backend != BackendMemory
}
