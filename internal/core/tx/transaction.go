package tx

import (
	"github.com/LeJamon/goFracVault/internal/core/types"
)

// Type identifies an operation kind.
type Type string

const (
	TypeVaultCreate  Type = "VaultCreate"
	TypeOfferMake    Type = "OfferMake"
	TypeOfferAccept  Type = "OfferAccept"
	TypeOfferEnd     Type = "OfferEnd"
	TypeMarketSell   Type = "MarketSell"
	TypeMarketCancel Type = "MarketCancel"
	TypeMarketBuy    Type = "MarketBuy"
	TypeShareApprove Type = "ShareApprove"
	TypeShareSend    Type = "ShareSend"
	TypeAssetMint    Type = "AssetMint"
	TypeAssetApprove Type = "AssetApprove"
	TypePayment      Type = "Payment"
	TypeFund         Type = "Fund"
)

// Transaction is an operation the engine applies atomically.
type Transaction interface {
	// TxType returns the operation kind.
	TxType() Type

	// Source returns the calling account.
	Source() types.Address

	// Preflight checks the operation without reading state. Anything other
	// than tesSUCCESS (normally a tem code) rejects it outright.
	Preflight(cfg Config) Result

	// Guards returns the keys that must not already be held by an
	// enclosing operation.
	Guards() []string

	// Apply performs the operation against ctx.View.
	Apply(ctx *ApplyContext) Result
}
