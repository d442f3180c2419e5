package config

import (
	"fmt"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
)

// ServerConfig represents the [server] section
type ServerConfig struct {
	Bind       string        `toml:"bind" mapstructure:"bind"`             // Address to bind to, empty for all interfaces
	Port       int           `toml:"port" mapstructure:"port"`             // HTTP and websocket port
	Timeout    time.Duration `toml:"timeout" mapstructure:"timeout"`       // Per-request timeout
	Standalone bool          `toml:"standalone" mapstructure:"standalone"` // Allow account_fund
}

// ListenAddr returns the host:port the RPC server listens on
func (s *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

// Validate validates the server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d, must be between 0 and 65535", s.Port)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	return nil
}

// EngineConfig represents the [engine] section
type EngineConfig struct {
	// Admin is the hex address allowed to create vaults
	Admin string `toml:"admin" mapstructure:"admin"`

	MinOfferDuration time.Duration `toml:"min_offer_duration" mapstructure:"min_offer_duration"`
	MaxOfferDuration time.Duration `toml:"max_offer_duration" mapstructure:"max_offer_duration"`
}

// AdminAddress decodes Admin.
func (e *EngineConfig) AdminAddress() (types.Address, error) {
	return types.ParseAddress(e.Admin)
}

// Validate validates the engine configuration
func (e *EngineConfig) Validate() error {
	if e.Admin == "" {
		return fmt.Errorf("admin address is required")
	}
	if _, err := e.AdminAddress(); err != nil {
		return fmt.Errorf("admin %q: %w", e.Admin, err)
	}
	if e.MinOfferDuration <= 0 {
		return fmt.Errorf("min_offer_duration must be positive, got %s", e.MinOfferDuration)
	}
	if e.MaxOfferDuration < e.MinOfferDuration {
		return fmt.Errorf("max_offer_duration (%s) cannot be less than min_offer_duration (%s)",
			e.MaxOfferDuration, e.MinOfferDuration)
	}
	return nil
}

// TxConfig converts the section into engine configuration.
func (c *Config) TxConfig() (tx.Config, error) {
	admin, err := c.Engine.AdminAddress()
	if err != nil {
		return tx.Config{}, err
	}
	return tx.Config{
		Admin:            admin,
		MinOfferDuration: c.Engine.MinOfferDuration,
		MaxOfferDuration: c.Engine.MaxOfferDuration,
		Standalone:       c.Server.Standalone,
	}, nil
}
