package market

import (
	"github.com/LeJamon/goFracVault/internal/core/amount"
	markettx "github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/testing"
)

// Sell builds a SellTokens listing whole shares at a price of whole native
// units per share.
func Sell(seller *testing.Account, vaultID uint64, shares, price uint64) *markettx.SellTokens {
	return &markettx.SellTokens{
		Seller: seller.Address,
		Ledger: markettx.LedgerOf(vaultID),
		Amount: amount.Units(shares),
		Price:  amount.Units(price),
	}
}

// Cancel builds a CancelSellOffer.
func Cancel(seller *testing.Account, vaultID uint64) *markettx.CancelSellOffer {
	return &markettx.CancelSellOffer{Seller: seller.Address, Ledger: markettx.LedgerOf(vaultID)}
}

// Buy builds a BuyTokens paying whole native units. The royalty receivers
// come from the environment's vault registry.
func Buy(env *testing.TestEnv, buyer, seller *testing.Account, vaultID uint64, payment uint64) *markettx.BuyTokens {
	return &markettx.BuyTokens{
		Buyer:     buyer.Address,
		Ledger:    markettx.LedgerOf(vaultID),
		Seller:    seller.Address,
		Payment:   amount.Units(payment),
		Receivers: env.Registry,
	}
}

// Escrow is the account holding a vault market's listed shares.
func Escrow(vaultID uint64) *testing.Account {
	return &testing.Account{Name: "market", Address: markettx.AccountFor(markettx.LedgerOf(vaultID))}
}
