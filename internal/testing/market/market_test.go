// Package market_test contains integration tests for the share marketplace.
package market_test

import (
	"context"
	"testing"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	markettx "github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/tx/wallet"
	jtx "github.com/LeJamon/goFracVault/internal/testing"
	"github.com/LeJamon/goFracVault/internal/testing/market"
	"github.com/LeJamon/goFracVault/internal/testing/vault"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// setup fractionalizes an asset for owner and hands alice 1000 shares.
func setup(t *testing.T) (env *jtx.TestEnv, id uint64, owner, alice *jtx.Account) {
	env = jtx.NewTestEnv(t)
	owner = jtx.NewAccount("owner")
	alice = jtx.NewAccount("alice")

	id = env.Fractionalize(owner, "Punk")
	jtx.RequireTxSuccess(t, env.Submit(&wallet.TransferShares{
		From:   owner.Address,
		Ledger: markettx.LedgerOf(id),
		To:     alice.Address,
		Amount: amount.Units(1000),
	}))
	return env, id, owner, alice
}

func TestMarket_SellAndCancel(t *testing.T) {
	env, id, _, alice := setup(t)
	ctx := context.Background()
	ledger := markettx.LedgerOf(id)

	r := env.Submit(market.Sell(alice, id, 400, 2))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.TokensListed)
	require.Equal(t, id, ev.VaultID)

	jtx.RequireShares(t, env, id, alice, amount.Units(600))
	jtx.RequireShares(t, env, id, market.Escrow(id), amount.Units(400))

	order, err := env.Market.OrderOf(ctx, ledger, alice.Address)
	require.NoError(t, err)
	require.True(t, order.Amount.Eq(amount.Units(400)))
	require.True(t, order.Price.Eq(amount.Units(2)))

	active, err := env.Market.ActiveOrders(ctx, ledger)
	require.NoError(t, err)
	require.Equal(t, uint64(1), active)

	r = env.Submit(market.Cancel(alice, id))
	jtx.RequireTxSuccess(t, r)
	jtx.RequireEvent(t, r, events.SellOfferCanceled)
	jtx.RequireShares(t, env, id, alice, amount.Units(1000))
	jtx.RequireShares(t, env, id, market.Escrow(id), amount.Zero())

	active, err = env.Market.ActiveOrders(ctx, ledger)
	require.NoError(t, err)
	require.Zero(t, active)

	// the holder list is append-only
	sellers, err := env.Market.TotalSellers(ctx, ledger)
	require.NoError(t, err)
	require.Equal(t, 1, sellers)

	order, err = env.Market.OrderAt(ctx, ledger, 0)
	require.NoError(t, err)
	require.True(t, order.Amount.IsZero())
	require.True(t, order.Seller.IsZero())

	_, err = env.Market.OrderAt(ctx, ledger, 1)
	require.ErrorIs(t, err, markettx.ErrOrderIndex)
}

func TestMarket_CancelWithoutOrder(t *testing.T) {
	env, id, _, alice := setup(t)
	r := env.Submit(market.Cancel(alice, id))
	jtx.RequireTxFail(t, r, tx.TecNO_TARGET)
}

func TestMarket_SellMoreThanHeld(t *testing.T) {
	env, id, _, alice := setup(t)
	r := env.Submit(market.Sell(alice, id, 1001, 2))
	jtx.RequireTxFail(t, r, tx.TecINSUFFICIENT_FUNDS)

	r = env.Submit(market.Sell(alice, id, 0, 2))
	jtx.RequireTxFail(t, r, tx.TemBAD_AMOUNT)

	r = env.Submit(market.Sell(alice, id+1, 10, 2))
	jtx.RequireTxFail(t, r, tx.TecNO_ENTRY)
}

func TestMarket_TopUpOverwritesPrice(t *testing.T) {
	env, id, _, alice := setup(t)
	ctx := context.Background()
	ledger := markettx.LedgerOf(id)

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 100, 2)))
	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 50, 3)))

	order, err := env.Market.OrderOf(ctx, ledger, alice.Address)
	require.NoError(t, err)
	require.True(t, order.Amount.Eq(amount.Units(150)))
	require.True(t, order.Price.Eq(amount.Units(3)))

	info, err := env.Market.Info(ctx, ledger)
	require.NoError(t, err)
	require.Len(t, info.Holders, 1)
	require.Equal(t, uint64(1), info.ActiveOrders)
}

func TestMarket_PartialFill(t *testing.T) {
	env, id, owner, alice := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(1000, bob)
	ctx := context.Background()

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 1000, 2)))

	r := env.Submit(market.Buy(env, bob, alice, id, 600))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.TokensPurchased)
	require.Equal(t, amount.Units(300).Dec(), ev.Fields["amount"])
	require.Equal(t, amount.Units(600).Dec(), ev.Fields["totalCost"])

	jtx.RequireShares(t, env, id, bob, amount.Units(300))
	jtx.RequireShares(t, env, id, market.Escrow(id), amount.Units(700))
	jtx.RequireBalance(t, env, bob, amount.Units(400))
	// 10% royalty to the vault's receivers, the rest to the seller
	jtx.RequireBalance(t, env, owner, amount.Units(60))
	jtx.RequireBalance(t, env, alice, amount.Units(540))
	jtx.RequireBalance(t, env, market.Escrow(id), amount.Zero())

	order, err := env.Market.OrderOf(ctx, markettx.LedgerOf(id), alice.Address)
	require.NoError(t, err)
	require.True(t, order.Amount.Eq(amount.Units(700)))

	// fill the rest
	env.Fund(1000, bob)
	jtx.RequireTxSuccess(t, env.Submit(market.Buy(env, bob, alice, id, 1400)))
	jtx.RequireShares(t, env, id, bob, amount.Units(1000))

	active, err := env.Market.ActiveOrders(ctx, markettx.LedgerOf(id))
	require.NoError(t, err)
	require.Zero(t, active)
	r = env.Submit(market.Cancel(alice, id))
	jtx.RequireTxFail(t, r, tx.TecNO_TARGET)
}

func TestMarket_BuyMoreThanListed(t *testing.T) {
	env, id, _, alice := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(1000, bob)

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 100, 2)))
	r := env.Submit(market.Buy(env, bob, alice, id, 202))
	jtx.RequireTxFail(t, r, tx.TecINSUFFICIENT_FUNDS)
	jtx.RequireBalance(t, env, bob, amount.Units(1000))
}

func TestMarket_BuyUnfunded(t *testing.T) {
	env, id, _, alice := setup(t)
	bob := jtx.NewAccount("bob")

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 100, 2)))
	r := env.Submit(market.Buy(env, bob, alice, id, 20))
	jtx.RequireTxFail(t, r, tx.TecUNFUNDED_PAYMENT)
	jtx.RequireShares(t, env, id, market.Escrow(id), amount.Units(100))
}

func TestMarket_ZeroPayment(t *testing.T) {
	env, id, _, alice := setup(t)
	bob := jtx.NewAccount("bob")

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 100, 2)))
	r := env.Submit(market.Buy(env, bob, alice, id, 0))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.TokensPurchased)
	require.Equal(t, "0", ev.Fields["amount"])

	jtx.RequireShares(t, env, id, bob, amount.Zero())
	jtx.RequireShares(t, env, id, market.Escrow(id), amount.Units(100))
}

func TestMarket_ZeroPriceOrder(t *testing.T) {
	env, id, _, alice := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(10, bob)

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 100, 0)))
	r := env.Submit(market.Buy(env, bob, alice, id, 10))
	jtx.RequireTxFail(t, r, tx.TecBAD_PRICE)
}

func TestMarket_BuyWithoutOrder(t *testing.T) {
	env, id, _, alice := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(10, bob)

	r := env.Submit(market.Buy(env, bob, alice, id, 10))
	jtx.RequireTxFail(t, r, tx.TecNO_TARGET)
}

func TestMarket_RoyaltySplitAfterBuyout(t *testing.T) {
	env, id, owner, alice := setup(t)
	bob := jtx.NewAccount("bob")
	env.Fund(2000, bob)

	// bob buys the whole vault so the receivers become owner and bob
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(bob, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 1000))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 250))
	env.AdvanceTime(vault.DefaultDuration + time.Second)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(bob, id)))

	carol := jtx.NewAccount("carol")
	env.Fund(100, carol)
	ownerBefore := env.Balance(owner)
	bobBefore := env.Balance(bob)

	jtx.RequireTxSuccess(t, env.Submit(market.Sell(bob, id, 100, 1)))
	jtx.RequireTxSuccess(t, env.Submit(market.Buy(env, carol, bob, id, 100)))

	// 10 royalty split evenly, 90 to bob as seller
	ownerGain := new(uint256.Int).Sub(env.Balance(owner), ownerBefore)
	bobGain := new(uint256.Int).Sub(env.Balance(bob), bobBefore)
	require.True(t, ownerGain.Eq(amount.Units(5)), "owner gained %s", ownerGain.Dec())
	require.True(t, bobGain.Eq(amount.Units(95)), "bob gained %s", bobGain.Dec())
	jtx.RequireShares(t, env, id, carol, amount.Units(100))
}

func TestMarket_ReentrantOrderChangeFromHookRejected(t *testing.T) {
	tests := []struct {
		name   string
		hooked func(owner, alice *jtx.Account) *jtx.Account
		nested func(id uint64, alice *jtx.Account) tx.Transaction
	}{
		{
			name:   "seller cancels while being paid",
			hooked: func(_, alice *jtx.Account) *jtx.Account { return alice },
			nested: func(id uint64, alice *jtx.Account) tx.Transaction { return market.Cancel(alice, id) },
		},
		{
			name:   "royalty receiver tops up the order being filled",
			hooked: func(owner, _ *jtx.Account) *jtx.Account { return owner },
			nested: func(id uint64, alice *jtx.Account) tx.Transaction { return market.Sell(alice, id, 10, 3) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, id, owner, alice := setup(t)
			bob := jtx.NewAccount("bob")
			env.Fund(100, bob)
			jtx.RequireTxSuccess(t, env.Submit(market.Sell(alice, id, 400, 2)))

			var nested error
			env.Engine.RegisterHook(tt.hooked(owner, alice).Address, func(ctx context.Context, p bank.Payment) error {
				_, nested = env.Engine.Submit(ctx, tt.nested(id, alice))
				return nested
			})

			r := env.Submit(market.Buy(env, bob, alice, id, 100))
			jtx.RequireTxFail(t, r, tx.TecHOOK_REJECTED)
			require.ErrorIs(t, nested, tx.TefREENTRANT)

			// order and balances untouched
			order, err := env.Market.OrderOf(context.Background(), markettx.LedgerOf(id), alice.Address)
			require.NoError(t, err)
			require.True(t, order.Amount.Eq(amount.Units(400)))
			require.True(t, order.Price.Eq(amount.Units(2)))
			jtx.RequireBalance(t, env, bob, amount.Units(100))
			jtx.RequireBalance(t, env, alice, amount.Zero())
			jtx.RequireBalance(t, env, owner, amount.Zero())
			jtx.RequireShares(t, env, id, bob, amount.Zero())
			jtx.RequireShares(t, env, id, alice, amount.Units(600))
			jtx.RequireShares(t, env, id, market.Escrow(id), amount.Units(400))

			// without the hook the purchase goes through
			env.Engine.RemoveHook(tt.hooked(owner, alice).Address)
			jtx.RequireTxSuccess(t, env.Submit(market.Buy(env, bob, alice, id, 100)))
			jtx.RequireShares(t, env, id, bob, amount.Units(50))
		})
	}
}
