// Package wallet holds the account-level operations around the settlement
// engine: share approvals and transfers, asset minting and operator
// approval, and native payments.
package wallet

import (
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ApproveShares sets the allowance of Spender over the caller's shares.
type ApproveShares struct {
	Owner   types.Address
	Ledger  [32]byte
	Spender types.Address
	Amount  *uint256.Int
}

func (a *ApproveShares) TxType() tx.Type       { return tx.TypeShareApprove }
func (a *ApproveShares) Source() types.Address { return a.Owner }
func (a *ApproveShares) Guards() []string      { return nil }

func (a *ApproveShares) Preflight(tx.Config) tx.Result {
	if a.Amount == nil || a.Spender.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (a *ApproveShares) Apply(ctx *tx.ApplyContext) tx.Result {
	ledger, err := ctx.Shares(a.Ledger)
	if err != nil {
		return ctx.Fail(err)
	}
	if err := ledger.Approve(a.Owner, a.Spender, a.Amount); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}

// TransferShares moves the caller's shares.
type TransferShares struct {
	From   types.Address
	Ledger [32]byte
	To     types.Address
	Amount *uint256.Int
}

func (t *TransferShares) TxType() tx.Type       { return tx.TypeShareSend }
func (t *TransferShares) Source() types.Address { return t.From }
func (t *TransferShares) Guards() []string      { return nil }

func (t *TransferShares) Preflight(tx.Config) tx.Result {
	if t.Amount == nil || t.Amount.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	if t.To.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (t *TransferShares) Apply(ctx *tx.ApplyContext) tx.Result {
	ledger, err := ctx.Shares(t.Ledger)
	if err != nil {
		return ctx.Fail(err)
	}
	if err := ledger.Transfer(t.From, t.To, t.Amount); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}

// MintAsset creates a collectible. Only the collection account mints.
type MintAsset struct {
	Collection types.Address
	AssetID    *uint256.Int
	To         types.Address
}

func (m *MintAsset) TxType() tx.Type       { return tx.TypeAssetMint }
func (m *MintAsset) Source() types.Address { return m.Collection }
func (m *MintAsset) Guards() []string      { return nil }

func (m *MintAsset) Preflight(tx.Config) tx.Result {
	if m.AssetID == nil || m.Collection.IsZero() || m.To.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (m *MintAsset) Apply(ctx *tx.ApplyContext) tx.Result {
	if err := ctx.Custody().Mint(m.Collection, m.AssetID, m.To); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}

// ApproveOperator grants or revokes an operator over the caller's assets in
// a collection.
type ApproveOperator struct {
	Owner      types.Address
	Collection types.Address
	Operator   types.Address
	Approved   bool
}

func (a *ApproveOperator) TxType() tx.Type       { return tx.TypeAssetApprove }
func (a *ApproveOperator) Source() types.Address { return a.Owner }
func (a *ApproveOperator) Guards() []string      { return nil }

func (a *ApproveOperator) Preflight(tx.Config) tx.Result {
	if a.Operator.IsZero() || a.Collection.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (a *ApproveOperator) Apply(ctx *tx.ApplyContext) tx.Result {
	if err := ctx.Custody().SetApproval(a.Owner, a.Operator, a.Collection, a.Approved); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}

// Pay sends native currency, running the receiver's hook.
type Pay struct {
	From   types.Address
	To     types.Address
	Amount *uint256.Int
}

func (p *Pay) TxType() tx.Type       { return tx.TypePayment }
func (p *Pay) Source() types.Address { return p.From }
func (p *Pay) Guards() []string      { return nil }

func (p *Pay) Preflight(tx.Config) tx.Result {
	if p.Amount == nil || p.Amount.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	if p.To.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (p *Pay) Apply(ctx *tx.ApplyContext) tx.Result {
	if err := ctx.Pay(p.From, p.To, p.Amount); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}

// Fund mints native currency to an account. Standalone only.
type Fund struct {
	Caller types.Address
	To     types.Address
	Amount *uint256.Int
}

func (f *Fund) TxType() tx.Type       { return tx.TypeFund }
func (f *Fund) Source() types.Address { return f.Caller }
func (f *Fund) Guards() []string      { return nil }

func (f *Fund) Preflight(tx.Config) tx.Result {
	if f.Amount == nil || f.Amount.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	if f.To.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (f *Fund) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.Config.Standalone {
		return ctx.Failf(tx.TecNO_PERMISSION, "funding requires standalone mode")
	}
	if err := ctx.Bank().Fund(f.To, f.Amount); err != nil {
		return ctx.Fail(err)
	}
	return tx.TesSUCCESS
}
