package tx

import (
	"context"
	"fmt"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/custody"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/shares"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// ApplyContext provides all the state and helpers needed to apply an
// operation. It is passed to Transaction.Apply.
type ApplyContext struct {
	// View is the sandbox the operation reads and writes
	View state.View

	// Caller is the account that submitted the operation
	Caller types.Address

	// Now is the apply time, fixed for the whole operation and every
	// operation nested in it
	Now time.Time

	Config Config
	Engine *Engine
	Logger *zap.Logger

	ctx     context.Context
	events  []events.Event
	output  any
	message string
}

// Context returns the context an external call must receive so that nested
// submissions join this operation.
func (c *ApplyContext) Context() context.Context {
	return c.ctx
}

// Bank returns the native-currency rail over the sandbox.
func (c *ApplyContext) Bank() *bank.Bank {
	return bank.New(c.View, c.Engine)
}

// Custody returns the asset registry over the sandbox.
func (c *ApplyContext) Custody() *custody.Custody {
	return custody.New(c.View)
}

// Shares opens a share ledger over the sandbox.
func (c *ApplyContext) Shares(id [32]byte) (*shares.Ledger, error) {
	return shares.Open(c.View, id)
}

// Pay moves native currency, running the receiver's hook.
func (c *ApplyContext) Pay(from, to types.Address, amt *uint256.Int) error {
	return c.Bank().Pay(c.ctx, from, to, amt)
}

// Emit records an event, published only if the operation commits.
func (c *ApplyContext) Emit(t events.Type, vaultID uint64, fields map[string]string) {
	c.events = append(c.events, events.Event{
		Type:    t,
		VaultID: vaultID,
		Time:    c.Now,
		Fields:  fields,
	})
}

// SetOutput sets the value returned in ApplyResult.Output.
func (c *ApplyContext) SetOutput(v any) {
	c.output = v
}

// Fail classifies err and records it as the result message.
func (c *ApplyContext) Fail(err error) Result {
	r := ResultFromError(err)
	c.message = err.Error()
	c.Logger.Debug("operation failed", zap.Stringer("result", r), zap.Error(err))
	return r
}

// Failf returns r with a formatted message.
func (c *ApplyContext) Failf(r Result, format string, args ...any) Result {
	c.message = fmt.Sprintf(format, args...)
	return r
}
