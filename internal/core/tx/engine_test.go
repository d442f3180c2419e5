package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

// fakeTx is a Transaction driven by closures.
type fakeTx struct {
	preflight Result
	guards    []string
	apply     func(ctx *ApplyContext) Result
}

func (f *fakeTx) TxType() Type                   { return TypePayment }
func (f *fakeTx) Source() types.Address          { return types.ModuleAddress("fake") }
func (f *fakeTx) Preflight(Config) Result        { return f.preflight }
func (f *fakeTx) Guards() []string               { return f.guards }
func (f *fakeTx) Apply(ctx *ApplyContext) Result { return f.apply(ctx) }

var testKey = keylet.Account(types.ModuleAddress("entry"))

func write(data string) func(*ApplyContext) Result {
	return func(ctx *ApplyContext) Result {
		if err := ctx.View.Insert(testKey, []byte(data)); err != nil {
			return ctx.Fail(err)
		}
		ctx.Emit(events.TokensListed, 7, map[string]string{"data": data})
		return TesSUCCESS
	}
}

func newTestEngine() (*Engine, *state.MemoryView, *events.Journal) {
	base := state.NewMemoryView()
	journal := events.NewJournal(0)
	bus := events.NewBus(0, nil)
	bus.Subscribe(journal)
	now := fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewEngine(base, DefaultConfig(), WithClock(now), WithBus(bus)), base, journal
}

func TestEngine_CommitsOnSuccess(t *testing.T) {
	e, base, journal := newTestEngine()

	res, err := e.Submit(context.Background(), &fakeTx{apply: write("a")})
	require.NoError(t, err)
	assert.Equal(t, TesSUCCESS, res.Result)
	require.Len(t, res.Events, 1)
	assert.Equal(t, uint64(1), res.Events[0].Seq)
	assert.Equal(t, e.Now(), res.Events[0].Time)

	data, err := base.Read(testKey)
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
	assert.Len(t, journal.All(), 1)
}

func TestEngine_DiscardsOnFailure(t *testing.T) {
	e, base, journal := newTestEngine()

	res, err := e.Submit(context.Background(), &fakeTx{apply: func(ctx *ApplyContext) Result {
		write("a")(ctx)
		return ctx.Failf(TecNO_PERMISSION, "denied")
	}})
	require.ErrorIs(t, err, TecNO_PERMISSION)
	assert.Equal(t, TecNO_PERMISSION, res.Result)
	assert.Equal(t, "denied", res.Message)
	assert.Empty(t, res.Events)
	assert.Zero(t, base.Len())
	assert.Empty(t, journal.All())
}

func TestEngine_PreflightRejects(t *testing.T) {
	e, base, _ := newTestEngine()
	called := false

	_, err := e.Submit(context.Background(), &fakeTx{preflight: TemBAD_AMOUNT, apply: func(*ApplyContext) Result {
		called = true
		return TesSUCCESS
	}})
	require.ErrorIs(t, err, TemBAD_AMOUNT)
	assert.False(t, called)
	assert.Zero(t, base.Len())

	_, err = e.Submit(context.Background(), nil)
	assert.Equal(t, TemMALFORMED, ResultOf(err))
}

func TestEngine_RecoversPanic(t *testing.T) {
	e, base, _ := newTestEngine()

	res, err := e.Submit(context.Background(), &fakeTx{apply: func(ctx *ApplyContext) Result {
		write("a")(ctx)
		panic("boom")
	}})
	require.ErrorIs(t, err, TefINTERNAL)
	assert.Equal(t, "boom", res.Message)
	assert.Zero(t, base.Len())
}

func TestEngine_CanceledContext(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Submit(ctx, &fakeTx{apply: write("a")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngine_NestedGuards(t *testing.T) {
	e, base, journal := newTestEngine()
	var nested error

	outer := &fakeTx{guards: []string{"vault/1"}, apply: func(ctx *ApplyContext) Result {
		_, nested = e.Submit(ctx.Context(), &fakeTx{guards: []string{"vault/1"}, apply: write("inner")})
		return TesSUCCESS
	}}
	_, err := e.Submit(context.Background(), outer)
	require.NoError(t, err)
	assert.Equal(t, TefREENTRANT, ResultOf(nested))
	assert.Zero(t, base.Len())

	// a nested operation on another key joins the outer one
	outer = &fakeTx{guards: []string{"vault/1"}, apply: func(ctx *ApplyContext) Result {
		if _, err := e.Submit(ctx.Context(), &fakeTx{guards: []string{"vault/2"}, apply: write("inner")}); err != nil {
			return ctx.Fail(err)
		}
		ctx.Emit(events.OfferEnded, 1, nil)
		return TesSUCCESS
	}}
	res, err := e.Submit(context.Background(), outer)
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, events.TokensListed, res.Events[0].Type)
	assert.Equal(t, events.OfferEnded, res.Events[1].Type)
	assert.Equal(t, 1, base.Len())
	assert.Len(t, journal.All(), 2)
}

func TestEngine_NestedRolledBackWithParent(t *testing.T) {
	e, base, journal := newTestEngine()

	outer := &fakeTx{apply: func(ctx *ApplyContext) Result {
		if _, err := e.Submit(ctx.Context(), &fakeTx{apply: write("inner")}); err != nil {
			return ctx.Fail(err)
		}
		// the nested write is visible to the parent
		if ok, _ := ctx.View.Exists(testKey); !ok {
			return TefINTERNAL
		}
		return ctx.Failf(TecEXPIRED, "late")
	}}
	_, err := e.Submit(context.Background(), outer)
	require.ErrorIs(t, err, TecEXPIRED)
	assert.Zero(t, base.Len())
	assert.Empty(t, journal.All())
}

func TestEngine_ViewDiscardsWrites(t *testing.T) {
	e, base, _ := newTestEngine()
	err := e.View(context.Background(), func(v state.View) error {
		return v.Insert(testKey, []byte("x"))
	})
	require.NoError(t, err)
	assert.Zero(t, base.Len())
}

func TestEngine_ReentryWithoutContextRejected(t *testing.T) {
	e, base, _ := newTestEngine()
	var submitErr, viewErr error

	outer := &fakeTx{apply: func(ctx *ApplyContext) Result {
		_, submitErr = e.Submit(context.Background(), &fakeTx{apply: write("inner")})
		viewErr = e.View(context.Background(), func(state.View) error { return nil })
		return write("outer")(ctx)
	}}
	_, err := e.Submit(context.Background(), outer)
	require.NoError(t, err)
	assert.ErrorIs(t, submitErr, TefREENTRANT)
	assert.ErrorIs(t, viewErr, TefREENTRANT)

	data, err := base.Read(testKey)
	require.NoError(t, err)
	assert.Equal(t, "outer", string(data))

	// the lock is free again
	require.NoError(t, e.View(context.Background(), func(state.View) error { return nil }))
}

type sinkFunc func(ctx context.Context, evts []events.Event) error

func (f sinkFunc) Publish(ctx context.Context, evts []events.Event) error { return f(ctx, evts) }

func TestEngine_PublishesAfterReleasingLock(t *testing.T) {
	e, _, _ := newTestEngine()
	var seen []byte
	e.Bus().Subscribe(sinkFunc(func(ctx context.Context, evts []events.Event) error {
		return e.View(ctx, func(v state.View) error {
			data, err := v.Read(testKey)
			seen = data
			return err
		})
	}))

	_, err := e.Submit(context.Background(), &fakeTx{apply: write("a")})
	require.NoError(t, err)
	assert.Equal(t, "a", string(seen))
}

func TestEngine_ConcurrentSubmitsPublishInOrder(t *testing.T) {
	e, _, journal := newTestEngine()
	const n = 32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Submit(context.Background(), &fakeTx{apply: func(ctx *ApplyContext) Result {
				ctx.Emit(events.TokensListed, 7, nil)
				return TesSUCCESS
			}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all := journal.All()
	require.Len(t, all, n)
	for i, evt := range all {
		assert.Equal(t, uint64(i+1), evt.Seq)
	}
}

func TestEngine_Hooks(t *testing.T) {
	e, _, _ := newTestEngine()
	addr := types.ModuleAddress("hooked")

	_, ok := e.Hook(addr)
	assert.False(t, ok)

	e.RegisterHook(addr, func(context.Context, bank.Payment) error { return errors.New("no") })
	_, ok = e.Hook(addr)
	assert.True(t, ok)

	e.RemoveHook(addr)
	_, ok = e.Hook(addr)
	assert.False(t, ok)
}

func TestResultFromError(t *testing.T) {
	assert.Equal(t, TesSUCCESS, ResultFromError(nil))
	assert.Equal(t, TecHOOK_REJECTED, ResultFromError(bank.ErrHookRejected))
	assert.Equal(t, TecUNFUNDED_PAYMENT, ResultFromError(bank.ErrInsufficientBalance))
	assert.Equal(t, TefINTERNAL, ResultFromError(errors.New("other")))
	assert.Equal(t, TecNO_AUTH, ResultFromError(&ResultError{Result: TecNO_AUTH}))
}

func TestResultCategories(t *testing.T) {
	assert.True(t, TecNO_OFFER.IsTec())
	assert.True(t, TefREENTRANT.IsTef())
	assert.True(t, TemBAD_AMOUNT.IsTem())
	assert.Equal(t, "tecBAD_PRICE", TecBAD_PRICE.String())
	assert.Equal(t, "Unknown(12345)", Result(12345).String())
}
