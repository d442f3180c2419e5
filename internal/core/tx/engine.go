// Package tx is the settlement engine. Every operation is applied to a
// sandbox state table and committed only on tesSUCCESS; emitted records are
// published after the commit.
package tx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/petermattis/goid"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// Potential deadlocks are reported on stderr; the process keeps running.
func init() {
	deadlock.Opts.OnPotentialDeadlock = func() {}
	deadlock.Opts.DeadlockTimeout = 2 * time.Minute
}

// Default offer duration bounds
const (
	DefaultMinOfferDuration = 24 * time.Hour
	DefaultMaxOfferDuration = 30 * 24 * time.Hour
)

// Config holds configuration for the engine
type Config struct {
	// Admin is the only account allowed to create vaults
	Admin types.Address

	// MinOfferDuration and MaxOfferDuration bound a tender offer's lifetime
	MinOfferDuration time.Duration
	MaxOfferDuration time.Duration

	// Standalone enables operations that mint native currency
	Standalone bool
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinOfferDuration: DefaultMinOfferDuration,
		MaxOfferDuration: DefaultMaxOfferDuration,
	}
}

// Clock supplies the apply time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ApplyResult contains the result of applying an operation
type ApplyResult struct {
	Result  Result
	Message string

	// Events are the records the operation emitted. For a top-level
	// operation they carry their published sequence numbers.
	Events []events.Event

	// Output is the operation's return value, if it has one
	Output any
}

// Engine processes operations against a base state view
type Engine struct {
	mu    deadlock.Mutex
	owner atomic.Int64 // goroutine holding mu, 0 when free

	// pubMu keeps records delivered in commit order once mu is released
	pubMu sync.Mutex

	base   state.View
	config Config
	clock  Clock
	bus    *events.Bus
	logger *zap.Logger

	hooksMu sync.RWMutex
	hooks   map[types.Address]bank.Hook
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine over base.
func NewEngine(base state.View, cfg Config, opts ...Option) *Engine {
	if cfg.MinOfferDuration == 0 {
		cfg.MinOfferDuration = DefaultMinOfferDuration
	}
	if cfg.MaxOfferDuration == 0 {
		cfg.MaxOfferDuration = DefaultMaxOfferDuration
	}
	e := &Engine{
		base:   base,
		config: cfg,
		clock:  systemClock{},
		hooks:  make(map[types.Address]bank.Hook),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.bus == nil {
		e.bus = events.NewBus(0, e.logger)
	}
	return e
}

func (e *Engine) Config() Config { return e.config }

func (e *Engine) Bus() *events.Bus { return e.bus }

// RegisterHook installs the receive hook of addr, replacing any previous one.
func (e *Engine) RegisterHook(addr types.Address, h bank.Hook) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	e.hooks[addr] = h
}

// RemoveHook uninstalls the receive hook of addr.
func (e *Engine) RemoveHook(addr types.Address) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()
	delete(e.hooks, addr)
}

// Hook implements bank.HookLookup.
func (e *Engine) Hook(addr types.Address) (bank.Hook, bool) {
	e.hooksMu.RLock()
	defer e.hooksMu.RUnlock()
	h, ok := e.hooks[addr]
	return h, ok
}

// frame is the operation currently applying on a goroutine. It travels in
// the context handed to external calls so that nested submissions apply
// into the enclosing sandbox.
type frame struct {
	engine *Engine
	table  *state.Table
	now    time.Time
	guards map[string]struct{}
	actx   *ApplyContext
}

type frameKey struct{}

func frameFrom(ctx context.Context, e *Engine) *frame {
	f, ok := ctx.Value(frameKey{}).(*frame)
	if !ok || f.engine != e {
		return nil
	}
	return f
}

// Submit applies t. A submission made from inside a receive hook (with the
// context the hook received) joins the enclosing operation: it applies into
// a child sandbox and is rejected with tefREENTRANT if it touches a vault or
// order the enclosing operation holds.
//
// Every non-success result is returned as a *ResultError alongside the
// ApplyResult.
func (e *Engine) Submit(ctx context.Context, t Transaction) (*ApplyResult, error) {
	if t == nil {
		return e.reject(TemMALFORMED, "nil operation")
	}
	if r := t.Preflight(e.config); r != TesSUCCESS {
		return e.reject(r, "")
	}

	if parent := frameFrom(ctx, e); parent != nil {
		return e.submitNested(ctx, parent, t)
	}

	if !e.lock() {
		return e.reject(TefREENTRANT, "engine called from inside its own operation without the operation's context")
	}
	locked := true
	defer func() {
		if locked {
			e.unlock()
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := &frame{
		engine: e,
		table:  state.NewTable(e.base),
		now:    e.clock.Now(),
		guards: make(map[string]struct{}),
	}

	res := e.apply(ctx, f, t)
	if !res.Result.IsSuccess() {
		e.logger.Debug("operation rejected",
			zap.String("type", string(t.TxType())),
			zap.Stringer("source", t.Source()),
			zap.Stringer("result", res.Result),
			zap.String("message", res.Message))
		return res, &ResultError{Result: res.Result, Message: res.Message}
	}

	if err := f.table.Apply(); err != nil {
		e.logger.Error("commit failed", zap.String("type", string(t.TxType())), zap.Error(err))
		res = &ApplyResult{Result: TefINTERNAL, Message: err.Error()}
		return res, &ResultError{Result: TefINTERNAL, Err: err}
	}

	e.pubMu.Lock()
	e.unlock()
	locked = false
	e.bus.Publish(ctx, res.Events)
	e.pubMu.Unlock()

	e.logger.Debug("operation applied",
		zap.String("type", string(t.TxType())),
		zap.Stringer("source", t.Source()),
		zap.Int("events", len(res.Events)))
	return res, nil
}

func (e *Engine) submitNested(ctx context.Context, parent *frame, t Transaction) (*ApplyResult, error) {
	child := &frame{
		engine: e,
		table:  state.NewTable(parent.table),
		now:    parent.now,
		guards: parent.guards,
	}

	res := e.apply(ctx, child, t)
	if !res.Result.IsSuccess() {
		return res, &ResultError{Result: res.Result, Message: res.Message}
	}
	if err := child.table.Apply(); err != nil {
		return &ApplyResult{Result: TefINTERNAL, Message: err.Error()}, &ResultError{Result: TefINTERNAL, Err: err}
	}
	parent.actx.events = append(parent.actx.events, res.Events...)
	return res, nil
}

// apply runs t inside f.
func (e *Engine) apply(ctx context.Context, f *frame, t Transaction) (res *ApplyResult) {
	guards := t.Guards()
	for _, g := range guards {
		if _, held := f.guards[g]; held {
			return &ApplyResult{Result: TefREENTRANT, Message: fmt.Sprintf("%s is already being operated on", g)}
		}
	}
	for _, g := range guards {
		f.guards[g] = struct{}{}
	}
	defer func() {
		for _, g := range guards {
			delete(f.guards, g)
		}
	}()

	actx := &ApplyContext{
		View:   f.table,
		Caller: t.Source(),
		Now:    f.now,
		Config: e.config,
		Engine: e,
		Logger: e.logger,
		ctx:    context.WithValue(ctx, frameKey{}, f),
	}
	f.actx = actx

	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("operation panicked", zap.String("type", string(t.TxType())), zap.Any("panic", p))
			res = &ApplyResult{Result: TefINTERNAL, Message: fmt.Sprint(p)}
		}
	}()

	r := t.Apply(actx)
	res = &ApplyResult{Result: r, Message: actx.message}
	if r.IsSuccess() {
		res.Output = actx.output
		res.Events = actx.events
	}
	return res
}

func (e *Engine) reject(r Result, msg string) (*ApplyResult, error) {
	return &ApplyResult{Result: r, Message: msg}, &ResultError{Result: r, Message: msg}
}

// View runs fn against a read snapshot of state. Writes fn makes are
// discarded. Called from inside a receive hook it sees the enclosing
// operation's uncommitted state.
func (e *Engine) View(ctx context.Context, fn func(v state.View) error) error {
	if f := frameFrom(ctx, e); f != nil {
		return fn(state.NewTable(f.table))
	}

	if !e.lock() {
		return &ResultError{Result: TefREENTRANT, Message: "engine read from inside its own operation without the operation's context"}
	}
	defer e.unlock()
	return fn(state.NewTable(e.base))
}

// lock takes the engine lock. It fails rather than blocks when the calling
// goroutine already holds it, as a receive hook calling back into the
// engine with a fresh context would.
func (e *Engine) lock() bool {
	id := goid.Get()
	if e.owner.Load() == id {
		return false
	}
	e.mu.Lock()
	e.owner.Store(id)
	return true
}

func (e *Engine) unlock() {
	e.owner.Store(0)
	e.mu.Unlock()
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}
