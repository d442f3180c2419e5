package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdmin = "0x00000000000000000000000000000000000000aa"

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	mainConfigContent := `
[server]
bind = "0.0.0.0"
port = 6006
timeout = "45s"
standalone = true

[engine]
admin = "` + testAdmin + `"
min_offer_duration = "2h"
max_offer_duration = "48h"

[storage]
backend = "pebble"
path = "/tmp/fracvault/state"
cache_size = 128
compressor = "none"

[index]
driver = "sqlite"
dsn = "/tmp/fracvault-index.db"
max_open_conns = 1

[log]
level = "debug"
format = "json"
`
	mainConfigPath := filepath.Join(tempDir, "fracvault.toml")
	require.NoError(t, os.WriteFile(mainConfigPath, []byte(mainConfigContent), 0644))

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "0.0.0.0:6006", config.Server.ListenAddr())
	assert.Equal(t, 45*time.Second, config.Server.Timeout)
	assert.True(t, config.Server.Standalone)

	assert.Equal(t, 2*time.Hour, config.Engine.MinOfferDuration)
	assert.Equal(t, 48*time.Hour, config.Engine.MaxOfferDuration)

	assert.Equal(t, BackendPebble, config.Storage.Backend)
	assert.Equal(t, 128, config.Storage.CacheSize)
	assert.True(t, config.IsPersistent())

	assert.Equal(t, IndexDriverSQLite, config.Index.Driver)
	assert.True(t, config.IsIndexed())
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, mainConfigPath, config.GetConfigPath())

	txCfg, err := config.TxConfig()
	require.NoError(t, err)
	assert.Equal(t, testAdmin, txCfg.Admin.String())
	assert.True(t, txCfg.Standalone)
	assert.Equal(t, 2*time.Hour, txCfg.MinOfferDuration)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FRACVAULT_ENGINE_ADMIN", testAdmin)

	config, err := LoadConfig(ConfigPaths{})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5005", config.Server.ListenAddr())
	assert.Equal(t, 24*time.Hour, config.Engine.MinOfferDuration)
	assert.Equal(t, 30*24*time.Hour, config.Engine.MaxOfferDuration)
	assert.Equal(t, BackendMemory, config.Storage.Backend)
	assert.False(t, config.IsPersistent())
	assert.False(t, config.IsIndexed())
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	mainConfigPath := filepath.Join(tempDir, "fracvault.toml")
	require.NoError(t, os.WriteFile(mainConfigPath, []byte(`
[server]
port = 6006

[engine]
admin = "`+testAdmin+`"
`), 0644))

	t.Setenv("FRACVAULT_SERVER_PORT", "7007")
	t.Setenv("FRACVAULT_ENGINE_MIN_OFFER_DURATION", "36h")
	t.Setenv("FRACVAULT_SERVER_STANDALONE", "true")

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)
	assert.Equal(t, 7007, config.Server.Port)
	assert.Equal(t, 36*time.Hour, config.Engine.MinOfferDuration)
	assert.True(t, config.Server.Standalone)
}

func TestLoadConfigEnvFile(t *testing.T) {
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("FRACVAULT_ENGINE_ADMIN="+testAdmin+"\nFRACVAULT_LOG_LEVEL=warn\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("FRACVAULT_ENGINE_ADMIN")
		os.Unsetenv("FRACVAULT_LOG_LEVEL")
	})

	config, err := LoadConfig(ConfigPaths{Env: envPath})
	require.NoError(t, err)
	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, envPath, config.GetEnvPath())

	admin, err := config.Engine.AdminAddress()
	require.NoError(t, err)
	assert.Equal(t, testAdmin, admin.String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Main: filepath.Join(t.TempDir(), "missing.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	// A missing env file is fine, but the admin is still required
	_, err = LoadConfig(ConfigPaths{Env: filepath.Join(t.TempDir(), ".env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin address is required")
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 5005, Timeout: time.Second},
		Engine: EngineConfig{
			Admin:            testAdmin,
			MinOfferDuration: time.Hour,
			MaxOfferDuration: 2 * time.Hour,
		},
		Storage: StorageConfig{Backend: BackendMemory},
		Index:   IndexConfig{Driver: IndexDriverNone},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, ValidateConfig(validConfig()))
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "timeout must be positive"},
		{"bad admin", func(c *Config) { c.Engine.Admin = "0x1234" }, "invalid address"},
		{"durations inverted", func(c *Config) { c.Engine.MaxOfferDuration = time.Minute }, "max_offer_duration"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "leveldb" }, "invalid storage backend"},
		{"pebble without path", func(c *Config) { c.Storage.Backend = BackendPebble }, "storage path is required"},
		{"bad compressor", func(c *Config) { c.Storage.Compressor = "zstd" }, "invalid compressor"},
		{"unknown driver", func(c *Config) { c.Index.Driver = "mysql" }, "invalid index driver"},
		{"index without dsn", func(c *Config) { c.Index.Driver = IndexDriverPostgres }, "index dsn is required"},
		{"sqlite pool", func(c *Config) {
			c.Index = IndexConfig{Driver: IndexDriverSQLite, DSN: "index.db", MaxOpenConns: 4}
		}, "single connection"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"index inside state", func(c *Config) {
			c.Storage = StorageConfig{Backend: BackendBBolt, Path: "/data/state"}
			c.Index = IndexConfig{Driver: IndexDriverSQLite, DSN: "/data/state/index.db"}
		}, "must not live inside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := ValidateConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRelationalConfig(t *testing.T) {
	pg := (&IndexConfig{Driver: IndexDriverPostgres, DSN: "postgres://u@h/db", MaxOpenConns: 1, MaxRetries: 5}).RelationalConfig()
	assert.Equal(t, "postgres", pg.Driver)
	assert.Equal(t, "postgres://u@h/db", pg.ConnectionString)
	assert.Equal(t, 1, pg.MaxOpenConns)
	assert.Equal(t, 1, pg.MaxIdleConns)
	assert.Equal(t, 5, pg.MaxRetries)
	require.NoError(t, pg.Validate())

	lite := (&IndexConfig{Driver: IndexDriverSQLite, DSN: "/tmp/index.db", DefaultTimeout: time.Second}).RelationalConfig()
	assert.Equal(t, "sqlite", lite.Driver)
	assert.Equal(t, "/tmp/index.db", lite.Database)
	assert.Equal(t, time.Second, lite.DefaultTimeout)
	require.NoError(t, lite.Validate())
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fracvault.toml")
	require.NoError(t, SaveExampleConfig(path))

	config, err := LoadConfig(ConfigPaths{Main: path})
	require.NoError(t, err)
	assert.Equal(t, BackendPebble, config.Storage.Backend)
	assert.Equal(t, IndexDriverSQLite, config.Index.Driver)
	assert.Equal(t, 720*time.Hour, config.Engine.MaxOfferDuration)
	assert.True(t, config.Server.Standalone)
}
