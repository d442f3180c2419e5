package di

import (
	"context"
	"fmt"
	"io"

	"github.com/LeJamon/goFracVault/internal/config"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/core/tx/wallet"
	"github.com/LeJamon/goFracVault/internal/logging"
	"github.com/LeJamon/goFracVault/internal/rpc"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"github.com/LeJamon/goFracVault/internal/storage/relationaldb"
	"github.com/LeJamon/goFracVault/internal/storage/relationaldb/postgres"
	"github.com/LeJamon/goFracVault/internal/storage/relationaldb/sqlite"
	"go.uber.org/zap"
)

// JournalSize is how many records the in-memory journal retains.
const JournalSize = 10000

// Store is the opened base view.
type Store struct {
	View   state.View
	closer io.Closer
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.closer.Close()
}

// Provider configures and registers services in the container.
type Provider struct {
	ctx       context.Context
	container *Container
	config    *config.Config
	logger    *zap.Logger
}

// NewProvider creates a new service provider. ctx bounds connection
// attempts made while building.
func NewProvider(ctx context.Context, container *Container, cfg *config.Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		ctx:       ctx,
		container: container,
		config:    cfg,
		logger:    logger,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	if p.config == nil {
		return fmt.Errorf("provider has no config")
	}
	p.container.Register(ServiceConfig, p.config)
	p.container.Register(ServiceLogger, p.logger)

	p.registerStorageBuilders()
	p.registerEngineBuilders()
	p.registerRPCBuilders()
	return nil
}

// registerStorageBuilders registers the state store, index and journal.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceStore, func(c *Container) (interface{}, error) {
		view, closer, err := state.Open(p.config.Storage.StoreConfig())
		if err != nil {
			return nil, err
		}
		p.logger.Named(logging.Storage).Info("state store opened",
			zap.String("backend", p.config.Storage.Backend),
			zap.String("path", p.config.Storage.Path))
		return &Store{View: view, closer: closer}, nil
	})

	// The index is optional; without one the builder yields a nil manager.
	p.container.RegisterBuilder(ServiceIndex, func(c *Container) (interface{}, error) {
		if !p.config.IsIndexed() {
			return (*relationaldb.Manager)(nil), nil
		}

		rc := p.config.Index.RelationalConfig()
		var (
			store *relationaldb.EventStore
			err   error
		)
		switch p.config.Index.Driver {
		case config.IndexDriverPostgres:
			store, err = postgres.New(p.ctx, rc)
		case config.IndexDriverSQLite:
			store, err = sqlite.New(p.ctx, rc)
		default:
			return nil, fmt.Errorf("unknown index driver %q", p.config.Index.Driver)
		}
		if err != nil {
			return nil, err
		}
		p.logger.Named(logging.Index).Info("record index opened", zap.String("driver", p.config.Index.Driver))
		return relationaldb.NewManager(store, rc, p.logger.Named(logging.Index)), nil
	})

	p.container.RegisterBuilder(ServiceJournal, func(c *Container) (interface{}, error) {
		return events.NewJournal(JournalSize), nil
	})
}

// registerEngineBuilders registers the bus, the engine and the services
// built on it.
func (p *Provider) registerEngineBuilders() {
	// The bus continues numbering from the index, so sequences stay unique
	// across restarts when records are indexed.
	p.container.RegisterBuilder(ServiceBus, func(c *Container) (interface{}, error) {
		index, err := p.GetIndex()
		if err != nil {
			return nil, err
		}
		journal, err := p.GetJournal()
		if err != nil {
			return nil, err
		}

		var lastSeq uint64
		if index != nil {
			if lastSeq, err = index.LastSeq(p.ctx); err != nil {
				return nil, fmt.Errorf("read last indexed sequence: %w", err)
			}
		}
		bus := events.NewBus(lastSeq, p.logger.Named(logging.Engine))
		bus.Subscribe(journal)
		if index != nil {
			bus.Subscribe(index)
		}
		return bus, nil
	})

	p.container.RegisterBuilder(ServiceTxEngine, func(c *Container) (interface{}, error) {
		store, err := p.GetStore()
		if err != nil {
			return nil, err
		}
		bus, err := p.GetBus()
		if err != nil {
			return nil, err
		}
		txCfg, err := p.config.TxConfig()
		if err != nil {
			return nil, err
		}
		return tx.NewEngine(store.View, txCfg,
			tx.WithBus(bus),
			tx.WithLogger(p.logger.Named(logging.Engine))), nil
	})

	p.container.RegisterBuilder(ServiceRegistry, func(c *Container) (interface{}, error) {
		engine, err := p.GetEngine()
		if err != nil {
			return nil, err
		}
		return vault.NewRegistry(engine), nil
	})

	p.container.RegisterBuilder(ServiceMarket, func(c *Container) (interface{}, error) {
		engine, err := p.GetEngine()
		if err != nil {
			return nil, err
		}
		registry, err := p.GetRegistry()
		if err != nil {
			return nil, err
		}
		return market.New(engine, registry), nil
	})

	p.container.RegisterBuilder(ServiceWallet, func(c *Container) (interface{}, error) {
		engine, err := p.GetEngine()
		if err != nil {
			return nil, err
		}
		return wallet.NewService(engine), nil
	})
}

// registerRPCBuilders registers RPC service builders.
func (p *Provider) registerRPCBuilders() {
	p.container.RegisterBuilder(ServiceRPC, func(c *Container) (interface{}, error) {
		engine, err := p.GetEngine()
		if err != nil {
			return nil, err
		}
		registry, err := p.GetRegistry()
		if err != nil {
			return nil, err
		}
		m, err := c.Get(ServiceMarket)
		if err != nil {
			return nil, err
		}
		w, err := c.Get(ServiceWallet)
		if err != nil {
			return nil, err
		}
		store, err := p.GetStore()
		if err != nil {
			return nil, err
		}
		index, err := p.GetIndex()
		if err != nil {
			return nil, err
		}
		journal, err := p.GetJournal()
		if err != nil {
			return nil, err
		}

		services := &rpc_types.ServiceContainer{
			Engine:  engine,
			Vaults:  registry,
			Market:  m.(*market.Marketplace),
			Wallet:  w.(*wallet.Service),
			Records: journal,
			Status:  &statusSource{config: p.config, store: store, index: index},
		}
		// Queries go to the index when there is one; the journal only
		// holds the newest records.
		if index != nil {
			services.Records = index
			services.Health = index
		}
		return services, nil
	})

	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		s, err := c.Get(ServiceRPC)
		if err != nil {
			return nil, err
		}
		bus, err := p.GetBus()
		if err != nil {
			return nil, err
		}
		svc := rpc.NewService(p.config.Server.ListenAddr(), s.(*rpc_types.ServiceContainer),
			p.config.Server.Timeout, p.logger.Named(logging.RPC))
		bus.Subscribe(svc.Publisher())
		return svc, nil
	})
}

// GetStore returns the opened state store.
func (p *Provider) GetStore() (*Store, error) {
	svc, err := p.container.Get(ServiceStore)
	if err != nil {
		return nil, err
	}
	return svc.(*Store), nil
}

// GetIndex returns the record index, or nil when none is configured.
func (p *Provider) GetIndex() (*relationaldb.Manager, error) {
	svc, err := p.container.Get(ServiceIndex)
	if err != nil {
		return nil, err
	}
	return svc.(*relationaldb.Manager), nil
}

// GetJournal returns the in-memory record journal.
func (p *Provider) GetJournal() (*events.Journal, error) {
	svc, err := p.container.Get(ServiceJournal)
	if err != nil {
		return nil, err
	}
	return svc.(*events.Journal), nil
}

// GetBus returns the record bus.
func (p *Provider) GetBus() (*events.Bus, error) {
	svc, err := p.container.Get(ServiceBus)
	if err != nil {
		return nil, err
	}
	return svc.(*events.Bus), nil
}

// GetEngine returns the settlement engine.
func (p *Provider) GetEngine() (*tx.Engine, error) {
	svc, err := p.container.Get(ServiceTxEngine)
	if err != nil {
		return nil, err
	}
	return svc.(*tx.Engine), nil
}

// GetRegistry returns the vault registry.
func (p *Provider) GetRegistry() (*vault.Registry, error) {
	svc, err := p.container.Get(ServiceRegistry)
	if err != nil {
		return nil, err
	}
	return svc.(*vault.Registry), nil
}

// GetRPCService returns the API listener, subscribed to the bus.
func (p *Provider) GetRPCService() (*rpc.Service, error) {
	svc, err := p.container.Get(ServiceRPCServer)
	if err != nil {
		return nil, err
	}
	return svc.(*rpc.Service), nil
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

// statusSource reports storage and index state for server_info.
type statusSource struct {
	config *config.Config
	store  *Store
	index  *relationaldb.Manager
}

func (s *statusSource) ServerStatus(ctx context.Context) map[string]interface{} {
	out := map[string]interface{}{
		"storage_backend": s.config.Storage.Backend,
		"index_driver":    s.config.Index.Driver,
	}

	if st, ok := s.store.View.(*state.Store); ok {
		hits, misses := st.CacheStats()
		out["cache_hits"] = hits
		out["cache_misses"] = misses
		if n, err := st.Count(ctx, keylet.TypeVault); err == nil {
			out["stored_vaults"] = n
		}
	}

	if s.index != nil {
		if err := s.index.HealthCheck(ctx); err != nil {
			out["index_status"] = "unreachable"
		} else {
			out["index_status"] = "ok"
		}
	}
	return out
}
