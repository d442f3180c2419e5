package config

import "fmt"

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `toml:"format" mapstructure:"format"` // console or json
	File   string `toml:"file" mapstructure:"file"`     // Optional file that receives a copy of every line
}

// Validate validates the log configuration
func (l *LogConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, l.Level) {
		return fmt.Errorf("invalid log level: %s (valid options: debug, info, warn, error)", l.Level)
	}
	if !contains([]string{"console", "json"}, l.Format) {
		return fmt.Errorf("invalid log format: %s (valid options: console, json)", l.Format)
	}
	return nil
}
