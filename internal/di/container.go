// Package di wires the fracvaultd services together.
package di

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrServiceNotFound is returned by Get for a name with no service or builder.
var ErrServiceNotFound = errors.New("service not found")

// Container is the dependency injection container.
// It manages service registration and resolution.
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	builders map[string]Builder
	building map[string]bool

	// order records built services so Close releases them in reverse.
	order []string
}

// Builder is a function that creates a service instance. It may Get other
// services.
type Builder func(c *Container) (interface{}, error)

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
		building: make(map[string]bool),
	}
}

// Register registers a service instance.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use. Builds run
// without the lock held so a builder can resolve its own dependencies.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.Lock()
	if service, exists := c.services[name]; exists {
		c.mu.Unlock()
		return service, nil
	}
	builder, hasBuilder := c.builders[name]
	if !hasBuilder {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("dependency cycle resolving %s", name)
	}
	c.building[name] = true
	c.mu.Unlock()

	service, err := builder(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	c.services[name] = service
	c.order = append(c.order, name)
	return service, nil
}

// Close closes every built service that implements io.Closer, newest
// first, and forgets them. Registered instances are left to their owner.
func (c *Container) Close() error {
	c.mu.Lock()
	order := c.order
	c.order = nil
	services := make([]interface{}, 0, len(order))
	for _, name := range order {
		services = append(services, c.services[name])
		delete(c.services, name)
	}
	c.mu.Unlock()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		if closer, ok := services[i].(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", order[i], err))
			}
		}
	}
	return errors.Join(errs...)
}

// Service names constants for type-safe access.
const (
	ServiceConfig    = "config"
	ServiceLogger    = "logger"
	ServiceStore     = "state.store"
	ServiceIndex     = "index"
	ServiceJournal   = "events.journal"
	ServiceBus       = "events.bus"
	ServiceTxEngine  = "tx.engine"
	ServiceRegistry  = "vault.registry"
	ServiceMarket    = "market"
	ServiceWallet    = "wallet"
	ServiceRPC       = "rpc.services"
	ServiceRPCServer = "rpc.server"
)
