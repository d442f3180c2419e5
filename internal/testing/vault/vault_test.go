// Package vault_test contains integration tests for vault creation and the
// tender-offer lifecycle.
package vault_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/bank"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	vaulttx "github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/core/tx/wallet"
	jtx "github.com/LeJamon/goFracVault/internal/testing"
	"github.com/LeJamon/goFracVault/internal/testing/vault"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// setup fractionalizes one asset for owner, gives alice half the shares and
// funds buyer with 2000 units.
func setup(t *testing.T) (env *jtx.TestEnv, id uint64, owner, alice, buyer *jtx.Account) {
	env = jtx.NewTestEnv(t)
	owner = jtx.NewAccount("owner")
	alice = jtx.NewAccount("alice")
	buyer = jtx.NewAccount("buyer")

	id = env.Fractionalize(owner, "Punk")
	v := env.Vault(id)
	jtx.RequireTxSuccess(t, env.Submit(&wallet.TransferShares{
		From:   owner.Address,
		Ledger: v.ShareLedger,
		To:     alice.Address,
		Amount: amount.Units(625),
	}))
	env.Fund(2000, buyer)
	return env, id, owner, alice, buyer
}

func requireSupply(t *testing.T, env *jtx.TestEnv, id uint64, holders ...*jtx.Account) {
	t.Helper()
	sum := amount.Zero()
	for _, h := range append(holders, vault.Registry()) {
		sum.Add(sum, env.ShareBalance(id, h))
	}
	require.True(t, sum.Eq(amount.FullShares()), "share supply drifted to %s", sum.Dec())
}

func TestVault_Create(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	ctx := context.Background()

	id := env.Fractionalize(owner, "Punk")
	jtx.RequireShares(t, env, id, owner, amount.FullShares())

	v := env.Vault(id)
	require.Equal(t, vaulttx.Inactive, v.State)
	require.Len(t, v.RoyaltyReceivers, 1)
	require.Equal(t, owner.Address, v.RoyaltyReceivers[0])

	holder, err := env.Wallet.AssetOwner(ctx, v.Collection, &v.AssetID)
	require.NoError(t, err)
	require.Equal(t, vaulttx.RegistryAccount, holder)

	byAsset, err := env.Registry.VaultByAsset(ctx, v.Collection, &v.AssetID)
	require.NoError(t, err)
	require.Equal(t, id, byAsset)

	second := env.Fractionalize(owner, "Ape")
	require.Equal(t, id+1, second)
	count, err := env.Registry.VaultCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	_, err = env.Registry.VaultByAsset(ctx, v.Collection, uint256.NewInt(99))
	require.ErrorIs(t, err, vaulttx.ErrNotVaulted)
}

func TestVault_CreateRequiresAdmin(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	collection := jtx.NewAccount("collection")
	assetID := env.MintAsset(collection, owner)

	r := env.Submit(&vaulttx.CreateVault{
		Caller:     owner.Address,
		Name:       "Punk",
		Symbol:     "FP",
		Collection: collection.Address,
		AssetID:    assetID,
	})
	jtx.RequireTxFail(t, r, tx.TecNO_PERMISSION)
}

func TestVault_CreateRequiresOperatorApproval(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	collection := jtx.NewAccount("collection")
	assetID := env.MintAsset(collection, owner)

	r := env.Submit(&vaulttx.CreateVault{
		Caller:     env.Admin.Address,
		Name:       "Punk",
		Symbol:     "FP",
		Collection: collection.Address,
		AssetID:    assetID,
	})
	jtx.RequireTxFail(t, r, tx.TecNO_PERMISSION)

	count, err := env.Registry.VaultCount(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestVault_CreateDuplicate(t *testing.T) {
	env := jtx.NewTestEnv(t)
	owner := jtx.NewAccount("owner")
	id := env.Fractionalize(owner, "Punk")
	v := env.Vault(id)

	r := env.Submit(&vaulttx.CreateVault{
		Caller:     env.Admin.Address,
		Name:       "Again",
		Symbol:     "FA",
		Collection: v.Collection,
		AssetID:    &v.AssetID,
	})
	jtx.RequireTxFail(t, r, tx.TecDUPLICATE)
}

func TestVault_MakeOffer(t *testing.T) {
	env, id, _, _, buyer := setup(t)

	r := env.Submit(vault.Offer(buyer, id, 1000).Build())
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.OfferMade)
	require.Equal(t, amount.Units(1000).Dec(), ev.Fields["price"])

	jtx.RequireBalance(t, env, buyer, amount.Units(1000))
	jtx.RequireBalance(t, env, vault.Registry(), amount.Units(1000))

	v := env.Vault(id)
	require.Equal(t, vaulttx.OfferActive, v.State)
	require.Equal(t, buyer.Address, v.OfferBuyer)
	require.Equal(t, env.Now().Add(vault.DefaultDuration).Unix(), v.OfferDeadline)

	// one offer at a time
	r = env.Submit(vault.Offer(buyer, id, 500).Build())
	jtx.RequireTxFail(t, r, tx.TecOFFER_ACTIVE)
	jtx.RequireBalance(t, env, buyer, amount.Units(1000))
}

func TestVault_MakeOfferMalformed(t *testing.T) {
	env, id, _, _, buyer := setup(t)

	r := env.Submit(vault.Offer(buyer, id, 0).Build())
	jtx.RequireTxFail(t, r, tx.TemBAD_AMOUNT)

	r = env.Submit(vault.Offer(buyer, id, 10).Duration(time.Hour).Build())
	jtx.RequireTxFail(t, r, tx.TemBAD_EXPIRATION)

	r = env.Submit(vault.Offer(buyer, id, 10).Duration(31 * 24 * time.Hour).Build())
	jtx.RequireTxFail(t, r, tx.TemBAD_EXPIRATION)

	r = env.Submit(vault.Offer(buyer, id+7, 10).Build())
	jtx.RequireTxFail(t, r, tx.TecNO_ENTRY)

	r = env.Submit(vault.Offer(buyer, id, 5000).Build())
	jtx.RequireTxFail(t, r, tx.TecUNFUNDED_PAYMENT)
}

func TestVault_AcceptOffer(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)

	// no offer yet
	r := vault.ApproveAndAccept(env, alice, id, 100)
	jtx.RequireTxFail(t, r, tx.TecNO_OFFER)

	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))

	r = env.Submit(vault.Accept(alice, id, 100))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.OfferAccepted)
	require.Equal(t, amount.Units(100).Dec(), ev.Fields["totalAccepted"])

	jtx.RequireShares(t, env, id, alice, amount.Units(525))
	jtx.RequireShares(t, env, id, vault.Registry(), amount.Units(100))
	requireSupply(t, env, id, owner, alice, buyer)

	accepted, err := env.Registry.AcceptedShares(context.Background(), id, alice.Address)
	require.NoError(t, err)
	require.True(t, accepted.Eq(amount.Units(100)))
}

func TestVault_AcceptOfferAllowanceMustMatch(t *testing.T) {
	env, id, _, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))

	env.ApproveShares(id, alice, vault.Registry(), amount.Units(100))
	r := env.Submit(vault.Accept(alice, id, 50))
	jtx.RequireTxFail(t, r, tx.TecNO_AUTH)

	r = env.Submit(vault.Accept(alice, id, 150))
	jtx.RequireTxFail(t, r, tx.TecNO_AUTH)

	jtx.RequireShares(t, env, id, alice, amount.Units(625))
}

func TestVault_AcceptOfferExpired(t *testing.T) {
	env, id, _, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))

	env.AdvanceTime(vault.DefaultDuration)
	r := vault.ApproveAndAccept(env, alice, id, 625)
	jtx.RequireTxFail(t, r, tx.TecEXPIRED)
}

func TestVault_EndOfferTooSoon(t *testing.T) {
	env, id, _, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))

	entries := env.Entries()
	published := len(env.Events())

	// the deadline itself is still too soon
	env.AdvanceTime(vault.DefaultDuration)
	r := env.Submit(vault.End(alice, id))
	jtx.RequireTxFail(t, r, tx.TecTOO_SOON)

	require.Equal(t, entries, env.Entries())
	require.Len(t, env.Events(), published)
	require.Equal(t, vaulttx.OfferActive, env.Vault(id).State)
}

func TestVault_EndOfferWithoutOffer(t *testing.T) {
	env, id, _, alice, _ := setup(t)
	r := env.Submit(vault.End(alice, id))
	jtx.RequireTxFail(t, r, tx.TecNO_OFFER)
}

func TestVault_EndOfferRefund(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))

	env.AdvanceTime(vault.DefaultDuration + time.Second)
	r := env.Submit(vault.End(owner, id))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.OfferEnded)
	require.Equal(t, "false", ev.Fields["fulfilled"])

	jtx.RequireBalance(t, env, buyer, amount.Units(2000))
	jtx.RequireBalance(t, env, vault.Registry(), amount.Zero())
	jtx.RequireShares(t, env, id, alice, amount.Units(625))
	jtx.RequireShares(t, env, id, owner, amount.Units(625))
	requireSupply(t, env, id, owner, alice, buyer)

	v := env.Vault(id)
	require.Equal(t, vaulttx.Inactive, v.State)
	require.True(t, v.OfferBuyer.IsZero())
	require.True(t, v.TotalAccepted.IsZero())
	require.Empty(t, v.Participants)
	require.Equal(t, owner.Address, v.CurrentOwner)

	// a new offer can follow
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 10).Build()))
}

func TestVault_EndOfferBuyout(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 625))
	requireSupply(t, env, id, owner, alice, buyer)

	env.AdvanceTime(vault.DefaultDuration + time.Second)
	r := env.Submit(vault.End(alice, id))
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, events.OfferEnded)
	require.Equal(t, "true", ev.Fields["fulfilled"])
	require.Equal(t, buyer.Address.String(), ev.Fields["buyer"])

	// 10% royalty to the original owner, 900 split pro rata
	jtx.RequireBalance(t, env, owner, amount.Units(550))
	jtx.RequireBalance(t, env, alice, amount.Units(450))
	jtx.RequireBalance(t, env, buyer, amount.Units(1000))
	jtx.RequireBalance(t, env, vault.Registry(), amount.Zero())

	jtx.RequireShares(t, env, id, buyer, amount.FullShares())
	requireSupply(t, env, id, owner, alice, buyer)

	v := env.Vault(id)
	require.Equal(t, buyer.Address, v.CurrentOwner)
	require.Equal(t, []string{owner.Address.String(), buyer.Address.String()},
		[]string{v.RoyaltyReceivers[0].String(), v.RoyaltyReceivers[1].String()})
}

func TestVault_RoyaltyReceiversAccumulate(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 625))
	env.AdvanceTime(vault.DefaultDuration + time.Second)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(alice, id)))

	second := jtx.NewAccount("second")
	env.Fund(500, second)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(second, id, 500).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, buyer, id, 1250))
	env.AdvanceTime(vault.DefaultDuration + time.Second)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(second, id)))

	// 50 royalty split between owner and the first buyer; 450 to the seller
	jtx.RequireBalance(t, env, owner, amount.Units(575))
	jtx.RequireBalance(t, env, buyer, amount.Units(1000+25+450))
	jtx.RequireShares(t, env, id, second, amount.FullShares())
	require.Len(t, env.Vault(id).RoyaltyReceivers, 3)
}

func TestVault_PayoutsNeverExceedPrice(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	carol := jtx.NewAccount("carol")
	v := env.Vault(id)
	jtx.RequireTxSuccess(t, env.Submit(&wallet.TransferShares{
		From: owner.Address, Ledger: v.ShareLedger, To: carol.Address, Amount: amount.Units(208),
	}))

	// an awkward price
	price, err := amount.Parse("999999999999999999777")
	require.NoError(t, err)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 0).Payment(price).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 417))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, carol, id, 208))
	env.AdvanceTime(vault.DefaultDuration + time.Second)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(owner, id)))

	paid := amount.Zero()
	for _, acc := range []*jtx.Account{owner, alice, carol} {
		paid.Add(paid, env.Balance(acc))
	}
	require.False(t, paid.Gt(price), "paid %s for a price of %s", paid.Dec(), price.Dec())

	dust := env.Balance(vault.Registry())
	require.True(t, new(uint256.Int).Add(paid, dust).Eq(price))
}

func TestVault_DuplicateParticipant(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 100))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 200))

	v := env.Vault(id)
	require.Len(t, v.Participants, 2)
	require.True(t, v.TotalAccepted.Eq(amount.Units(300)))

	env.AdvanceTime(vault.DefaultDuration + time.Second)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(alice, id)))

	jtx.RequireShares(t, env, id, alice, amount.Units(625))
	jtx.RequireShares(t, env, id, vault.Registry(), amount.Zero())
	requireSupply(t, env, id, owner, alice, buyer)
}

func TestVault_ReentrantEndOfferRejected(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 625))
	env.AdvanceTime(vault.DefaultDuration + time.Second)

	var nested tx.Result
	env.Engine.RegisterHook(owner.Address, func(ctx context.Context, p bank.Payment) error {
		_, err := env.Engine.Submit(ctx, vault.End(owner, id))
		nested = tx.ResultOf(err)
		return err
	})

	r := env.Submit(vault.End(alice, id))
	jtx.RequireTxFail(t, r, tx.TecHOOK_REJECTED)
	require.Equal(t, tx.TefREENTRANT, nested)

	// nothing moved
	jtx.RequireBalance(t, env, vault.Registry(), amount.Units(1000))
	jtx.RequireBalance(t, env, owner, amount.Zero())
	jtx.RequireShares(t, env, id, vault.Registry(), amount.FullShares())
	require.Equal(t, vaulttx.OfferActive, env.Vault(id).State)

	// without the hook the offer settles
	env.Engine.RemoveHook(owner.Address)
	jtx.RequireTxSuccess(t, env.Submit(vault.End(alice, id)))
	jtx.RequireBalance(t, env, owner, amount.Units(550))
}

func TestVault_HookQueryNeedsHookContext(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 625))
	env.AdvanceTime(vault.DefaultDuration + time.Second)

	var detached error
	var inside *vaulttx.Entry
	env.Engine.RegisterHook(owner.Address, func(ctx context.Context, p bank.Payment) error {
		_, detached = env.Registry.GetVaultInfo(context.Background(), id)
		v, err := env.Registry.GetVaultInfo(ctx, id)
		inside = v
		return err
	})

	jtx.RequireTxSuccess(t, env.Submit(vault.End(alice, id)))
	require.ErrorIs(t, detached, tx.TefREENTRANT)
	require.NotNil(t, inside)
	require.Equal(t, vaulttx.OfferActive, inside.State)

	// settled, and the engine is usable afterwards
	jtx.RequireBalance(t, env, owner, amount.Units(550))
	require.Equal(t, vaulttx.Inactive, env.Vault(id).State)
}

func TestVault_HookRejectionRollsBack(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	env.AdvanceTime(vault.DefaultDuration + time.Second)

	// the buyer refuses the refund
	env.Engine.RegisterHook(buyer.Address, func(context.Context, bank.Payment) error {
		return errors.New("not accepting")
	})

	r := env.Submit(vault.End(owner, id))
	jtx.RequireTxFail(t, r, tx.TecHOOK_REJECTED)
	require.Contains(t, r.Message, "not accepting")

	jtx.RequireBalance(t, env, buyer, amount.Units(1000))
	jtx.RequireShares(t, env, id, alice, amount.Zero())
	require.Equal(t, vaulttx.OfferActive, env.Vault(id).State)
}

func TestVault_NestedPaymentFromHook(t *testing.T) {
	env, id, owner, alice, buyer := setup(t)
	charity := jtx.NewAccount("charity")
	jtx.RequireTxSuccess(t, env.Submit(vault.Offer(buyer, id, 1000).Build()))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, alice, id, 625))
	jtx.RequireTxSuccess(t, vault.ApproveAndAccept(env, owner, id, 625))
	env.AdvanceTime(vault.DefaultDuration + time.Second)

	// alice donates every payout she receives
	env.Engine.RegisterHook(alice.Address, func(ctx context.Context, p bank.Payment) error {
		_, err := env.Engine.Submit(ctx, &wallet.Pay{From: alice.Address, To: charity.Address, Amount: p.Amount})
		return err
	})

	jtx.RequireTxSuccess(t, env.Submit(vault.End(owner, id)))
	jtx.RequireBalance(t, env, alice, amount.Zero())
	jtx.RequireBalance(t, env, charity, amount.Units(450))
	jtx.RequireBalance(t, env, owner, amount.Units(550))
}
