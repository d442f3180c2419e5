package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
)

// SharesBalanceMethod handles shares_balance
type SharesBalanceMethod struct{}

func (m *SharesBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	holder, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	bal, err := ctx.Services.Wallet.ShareBalance(ctx.Context, market.LedgerOf(id), holder)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"account":  holder.String(),
		"vault_id": id,
		"balance":  formatAmount(bal),
	}, nil
}

func (m *SharesBalanceMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// SharesAllowanceMethod handles shares_allowance
type SharesAllowanceMethod struct{}

func (m *SharesAllowanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		Spender string  `json:"spender"`
		VaultID *uint64 `json:"vault_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseAccount("spender", request.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	allowance, err := ctx.Services.Wallet.ShareAllowance(ctx.Context, market.LedgerOf(id), owner, spender)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"account":   owner.String(),
		"spender":   spender.String(),
		"vault_id":  id,
		"allowance": formatAmount(allowance),
	}, nil
}

func (m *SharesAllowanceMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// SharesApproveMethod handles shares_approve. The allowance is replaced,
// not increased.
type SharesApproveMethod struct{}

func (m *SharesApproveMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		Spender string  `json:"spender"`
		VaultID *uint64 `json:"vault_id"`
		Amount  string  `json:"amount"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseAccount("spender", request.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amt, rpcErr := parseAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Wallet.ApproveShares(ctx.Context, owner, market.LedgerOf(id), spender, amt))
}

func (m *SharesApproveMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *SharesApproveMethod) SignerField() string          { return "account" }

// SharesTransferMethod handles shares_transfer
type SharesTransferMethod struct{}

func (m *SharesTransferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account     string  `json:"account"`
		Destination string  `json:"destination"`
		VaultID     *uint64 `json:"vault_id"`
		Amount      string  `json:"amount"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAccount("destination", request.Destination)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amt, rpcErr := parseAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Wallet.TransferShares(ctx.Context, from, market.LedgerOf(id), to, amt))
}

func (m *SharesTransferMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *SharesTransferMethod) SignerField() string          { return "account" }

// AssetMintMethod handles asset_mint. Only the collection account mints.
type AssetMintMethod struct{}

func (m *AssetMintMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Collection  string `json:"collection"`
		AssetID     string `json:"asset_id"`
		Destination string `json:"destination"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := parseAccount("collection", request.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	assetID, rpcErr := parseAssetID("asset_id", request.AssetID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAccount("destination", request.Destination)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Wallet.MintAsset(ctx.Context, collection, assetID, to))
}

func (m *AssetMintMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *AssetMintMethod) SignerField() string          { return "collection" }

// AssetApproveMethod handles asset_approve: operator approval over every
// asset the account holds in a collection.
type AssetApproveMethod struct{}

func (m *AssetApproveMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account    string `json:"account"`
		Collection string `json:"collection"`
		Operator   string `json:"operator"`
		Approved   *bool  `json:"approved"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := parseAccount("collection", request.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	operator, rpcErr := parseAccount("operator", request.Operator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	approved := true
	if request.Approved != nil {
		approved = *request.Approved
	}

	return submitResult(ctx.Services.Wallet.ApproveOperator(ctx.Context, owner, collection, operator, approved))
}

func (m *AssetApproveMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *AssetApproveMethod) SignerField() string          { return "account" }

// AssetOwnerMethod handles asset_owner
type AssetOwnerMethod struct{}

func (m *AssetOwnerMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Collection string `json:"collection"`
		AssetID    string `json:"asset_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := parseAccount("collection", request.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	assetID, rpcErr := parseAssetID("asset_id", request.AssetID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	owner, err := ctx.Services.Wallet.AssetOwner(ctx.Context, collection, assetID)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"collection": collection.String(),
		"asset_id":   assetID.Dec(),
		"owner":      owner.String(),
	}, nil
}

func (m *AssetOwnerMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// AccountFundMethod handles account_fund. It mints native currency from the
// engine admin and is only available in standalone mode.
type AccountFundMethod struct{}

func (m *AccountFundMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	if !ctx.Services.Standalone() {
		return nil, rpc_types.RpcErrorNotStandalone("account_fund is only available in standalone mode")
	}
	var request struct {
		Account string `json:"account"`
		Amount  string `json:"amount"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amt, rpcErr := parseAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	admin := ctx.Services.Engine.Config().Admin
	return submitResult(ctx.Services.Wallet.Fund(ctx.Context, admin, to, amt))
}

func (m *AccountFundMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleAdmin }

// AccountPayMethod handles account_pay: a native payment that runs the
// destination's receive hook like any settlement payout.
type AccountPayMethod struct{}

func (m *AccountPayMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account     string `json:"account"`
		Destination string `json:"destination"`
		Amount      string `json:"amount"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAccount("destination", request.Destination)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amt, rpcErr := parseAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Wallet.Pay(ctx.Context, from, to, amt))
}

func (m *AccountPayMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *AccountPayMethod) SignerField() string          { return "account" }

// AccountBalanceMethod handles account_balance
type AccountBalanceMethod struct{}

func (m *AccountBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string `json:"account"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	bal, err := ctx.Services.Wallet.Balance(ctx.Context, addr)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"account": addr.String(),
		"balance": formatAmount(bal),
	}, nil
}

func (m *AccountBalanceMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
