package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateConfig performs comprehensive validation on the complete configuration
func ValidateConfig(config *Config) error {
	// Validate server configuration
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	// Validate engine configuration
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}

	// Validate storage and index configuration
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := config.Index.Validate(); err != nil {
		return fmt.Errorf("index validation failed: %w", err)
	}

	// Validate log configuration
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	// Cross-validation checks
	if err := validateCrossReferences(config); err != nil {
		return fmt.Errorf("cross-validation failed: %w", err)
	}

	return nil
}

// validateCrossReferences checks settings that span sections
func validateCrossReferences(config *Config) error {
	// A sqlite index inside the state directory would be opened by two engines
	if config.IsPersistent() && config.Index.Driver == IndexDriverSQLite {
		state := filepath.Clean(config.Storage.Path)
		index := filepath.Clean(config.Index.DSN)
		if index == state || strings.HasPrefix(index, state+string(filepath.Separator)) {
			return fmt.Errorf("sqlite index %s must not live inside storage path %s", config.Index.DSN, config.Storage.Path)
		}
	}

	if config.Log.File != "" && config.IsPersistent() &&
		filepath.Clean(config.Log.File) == filepath.Clean(config.Storage.Path) {
		return fmt.Errorf("log file %s collides with storage path", config.Log.File)
	}

	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
