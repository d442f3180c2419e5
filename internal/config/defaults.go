package config

import (
	"time"

	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/spf13/viper"
)

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// 1. Server defaults
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 5005)
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.standalone", false)

	// 2. Engine defaults
	v.SetDefault("engine.admin", "")
	v.SetDefault("engine.min_offer_duration", tx.DefaultMinOfferDuration)
	v.SetDefault("engine.max_offer_duration", tx.DefaultMaxOfferDuration)

	// 3. Storage defaults
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.cache_size", 4096)
	v.SetDefault("storage.compressor", "lz4")

	// 4. Index defaults (disabled)
	v.SetDefault("index.driver", IndexDriverNone)
	v.SetDefault("index.dsn", "")
	v.SetDefault("index.max_open_conns", 10)
	v.SetDefault("index.default_timeout", 10*time.Second)
	v.SetDefault("index.max_retries", 3)

	// 5. Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// generateExampleConfig generates example configuration values
func generateExampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"server.bind":       "127.0.0.1",
		"server.port":       5005,
		"server.timeout":    "30s",
		"server.standalone": true,

		"engine.admin":              "0x0000000000000000000000000000000000000001",
		"engine.min_offer_duration": "24h",
		"engine.max_offer_duration": "720h",

		"storage.backend":    BackendPebble,
		"storage.path":       "/var/lib/fracvault/state",
		"storage.cache_size": 4096,
		"storage.compressor": "lz4",

		"index.driver":         IndexDriverSQLite,
		"index.dsn":            "/var/lib/fracvault/index.db",
		"index.max_open_conns": 1,

		"log.level":  "info",
		"log.format": "console",
		"log.file":   "/var/log/fracvault/fracvaultd.log",
	}
}
