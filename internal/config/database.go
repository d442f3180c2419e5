package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/storage/relationaldb"
)

// Storage backends
const (
	BackendMemory = state.BackendMemory
	BackendPebble = state.BackendPebble
	BackendBBolt  = state.BackendBBolt
)

// Index drivers
const (
	IndexDriverNone     = "none"
	IndexDriverPostgres = relationaldb.DriverPostgres
	IndexDriverSQLite   = relationaldb.DriverSQLite
)

// StorageConfig represents the [storage] section
// Configures where vault, market and ledger entries are kept
type StorageConfig struct {
	Backend    string `toml:"backend" mapstructure:"backend"`
	Path       string `toml:"path" mapstructure:"path"`
	CacheSize  int    `toml:"cache_size" mapstructure:"cache_size"`
	Compressor string `toml:"compressor" mapstructure:"compressor"`
}

// IndexConfig represents the [index] section
// Committed records are copied into a SQL database for later queries
type IndexConfig struct {
	Driver         string        `toml:"driver" mapstructure:"driver"`
	DSN            string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns   int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	DefaultTimeout time.Duration `toml:"default_timeout" mapstructure:"default_timeout"`
	MaxRetries     int           `toml:"max_retries" mapstructure:"max_retries"`
}

// Validate performs validation on the storage configuration
func (s *StorageConfig) Validate() error {
	validBackends := []string{BackendMemory, BackendPebble, BackendBBolt}
	if !contains(validBackends, s.Backend) {
		return fmt.Errorf("invalid storage backend: %s (valid options: memory, pebble, bbolt)", s.Backend)
	}
	if s.Backend != BackendMemory && s.Path == "" {
		return fmt.Errorf("storage path is required for the %s backend", s.Backend)
	}
	if s.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", s.CacheSize)
	}
	if s.Compressor != "" && !contains([]string{"none", "lz4"}, s.Compressor) {
		return fmt.Errorf("invalid compressor: %s (valid options: none, lz4)", s.Compressor)
	}
	return nil
}

// StoreConfig converts the section for state.Open.
func (s *StorageConfig) StoreConfig() state.StoreConfig {
	return state.StoreConfig{
		Backend:    s.Backend,
		Path:       s.Path,
		CacheSize:  s.CacheSize,
		Compressor: s.Compressor,
	}
}

// Validate performs validation on the index configuration
func (i *IndexConfig) Validate() error {
	switch i.Driver {
	case "", IndexDriverNone:
		return nil
	case IndexDriverPostgres, IndexDriverSQLite:
	default:
		return fmt.Errorf("invalid index driver: %s (valid options: none, postgres, sqlite)", i.Driver)
	}
	if i.DSN == "" {
		return fmt.Errorf("index dsn is required for the %s driver", i.Driver)
	}
	if i.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", i.MaxOpenConns)
	}
	if i.Driver == IndexDriverSQLite && i.MaxOpenConns > 1 {
		return fmt.Errorf("sqlite index supports a single connection, got max_open_conns %d", i.MaxOpenConns)
	}
	return nil
}

// RelationalConfig converts the section for the relationaldb drivers. For
// sqlite the DSN is the database file path.
func (i *IndexConfig) RelationalConfig() *relationaldb.Config {
	var cfg *relationaldb.Config
	if i.Driver == IndexDriverSQLite {
		cfg = relationaldb.SQLiteConfig(i.DSN)
	} else {
		cfg = relationaldb.PostgresConfig(i.DSN)
		if i.MaxOpenConns > 0 {
			cfg.MaxOpenConns = i.MaxOpenConns
			if cfg.MaxIdleConns > cfg.MaxOpenConns {
				cfg.MaxIdleConns = cfg.MaxOpenConns
			}
		}
	}
	if i.DefaultTimeout > 0 {
		cfg.DefaultTimeout = i.DefaultTimeout
	}
	cfg.MaxRetries = i.MaxRetries
	return cfg
}
