package vault

import (
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	vaulttx "github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/testing"
	"github.com/holiman/uint256"
)

// DefaultDuration is the offer lifetime used when none is set.
const DefaultDuration = 2 * 24 * time.Hour

// OfferBuilder provides a fluent interface for building MakeOffer operations.
type OfferBuilder struct {
	buyer    *testing.Account
	vaultID  uint64
	payment  *uint256.Int
	duration time.Duration
}

// Offer creates a new OfferBuilder paying whole native units.
func Offer(buyer *testing.Account, vaultID uint64, units uint64) *OfferBuilder {
	return &OfferBuilder{
		buyer:    buyer,
		vaultID:  vaultID,
		payment:  amount.Units(units),
		duration: DefaultDuration,
	}
}

// Payment sets the payment in base units.
func (b *OfferBuilder) Payment(p *uint256.Int) *OfferBuilder {
	b.payment = p
	return b
}

func (b *OfferBuilder) Duration(d time.Duration) *OfferBuilder {
	b.duration = d
	return b
}

func (b *OfferBuilder) Build() *vaulttx.MakeOffer {
	return &vaulttx.MakeOffer{
		Buyer:    b.buyer.Address,
		VaultID:  b.vaultID,
		Duration: b.duration,
		Payment:  b.payment,
	}
}

// Accept builds an AcceptOffer for whole shares.
func Accept(holder *testing.Account, vaultID uint64, units uint64) *vaulttx.AcceptOffer {
	return &vaulttx.AcceptOffer{Holder: holder.Address, VaultID: vaultID, Shares: amount.Units(units)}
}

// End builds an EndOffer.
func End(caller *testing.Account, vaultID uint64) *vaulttx.EndOffer {
	return &vaulttx.EndOffer{Caller: caller.Address, VaultID: vaultID}
}

// Registry is the account that escrows offers and accepted shares.
func Registry() *testing.Account {
	return &testing.Account{Name: "registry", Address: vaulttx.RegistryAccount}
}

// ApproveAndAccept approves the registry for exactly units shares of holder
// and accepts the active offer with them.
func ApproveAndAccept(env *testing.TestEnv, holder *testing.Account, vaultID uint64, units uint64) testing.TxResult {
	env.ApproveShares(vaultID, holder, Registry(), amount.Units(units))
	return env.Submit(Accept(holder, vaultID, units))
}
