package rpc_types

import (
	"context"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/core/tx/wallet"
)

// RecordSource answers record queries. The in-memory journal and the SQL
// index both implement it.
type RecordSource interface {
	Query(ctx context.Context, f events.Filter) ([]events.Event, error)
}

// StatusSource reports storage and index state for server_info
type StatusSource interface {
	ServerStatus(ctx context.Context) map[string]interface{}
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ServiceContainer holds references to all services needed by RPC handlers
type ServiceContainer struct {
	Engine  *tx.Engine
	Vaults  *vault.Registry
	Market  *market.Marketplace
	Wallet  *wallet.Service
	Records RecordSource

	// Status and Health are optional
	Status StatusSource
	Health HealthChecker
}

// Standalone reports whether account_fund is allowed.
func (s *ServiceContainer) Standalone() bool {
	return s.Engine != nil && s.Engine.Config().Standalone
}
