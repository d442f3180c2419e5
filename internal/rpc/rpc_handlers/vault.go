package rpc_handlers

import (
	"encoding/json"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
)

// VaultCreateMethod handles the vault_create RPC method. Only the engine
// admin may create vaults; the check happens in the engine.
type VaultCreateMethod struct{}

func (m *VaultCreateMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account    string `json:"account"`
		Name       string `json:"name"`
		Symbol     string `json:"symbol"`
		Collection string `json:"collection"`
		AssetID    string `json:"asset_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
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

	_, res, err := ctx.Services.Vaults.CreateVault(ctx.Context, caller, request.Name, request.Symbol, collection, assetID)
	return submitResult(res, err)
}

func (m *VaultCreateMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *VaultCreateMethod) SignerField() string          { return "account" }

// OfferMakeMethod handles offer_make. duration is a Go duration string.
type OfferMakeMethod struct{}

func (m *OfferMakeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account  string  `json:"account"`
		VaultID  *uint64 `json:"vault_id"`
		Duration string  `json:"duration"`
		Payment  string  `json:"payment"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	buyer, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if request.Duration == "" {
		return nil, rpc_types.RpcErrorMissingField("duration")
	}
	duration, err := time.ParseDuration(request.Duration)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidField("duration")
	}
	payment, rpcErr := parseAmount("payment", request.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Vaults.MakeOffer(ctx.Context, buyer, id, duration, payment))
}

func (m *OfferMakeMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *OfferMakeMethod) SignerField() string          { return "account" }

// OfferAcceptMethod handles offer_accept
type OfferAcceptMethod struct{}

func (m *OfferAcceptMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
		Shares  string  `json:"shares"`
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
	shareAmount, rpcErr := parseAmount("shares", request.Shares)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Vaults.AcceptOffer(ctx.Context, holder, id, shareAmount))
}

func (m *OfferAcceptMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *OfferAcceptMethod) SignerField() string          { return "account" }

// OfferEndMethod handles offer_end
type OfferEndMethod struct{}

func (m *OfferEndMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Vaults.EndOffer(ctx.Context, caller, id))
}

func (m *OfferEndMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *OfferEndMethod) SignerField() string          { return "account" }

// VaultInfoMethod handles vault_info
type VaultInfoMethod struct{}

func (m *VaultInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		VaultID *uint64 `json:"vault_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	v, err := ctx.Services.Vaults.GetVaultInfo(ctx.Context, id)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{"vault": vaultJSON(v)}, nil
}

func (m *VaultInfoMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

func vaultJSON(v *vault.Entry) map[string]interface{} {
	out := map[string]interface{}{
		"vault_id":          v.ID,
		"name":              v.Name,
		"symbol":            v.Symbol,
		"collection":        v.Collection.String(),
		"asset_id":          v.AssetID.Dec(),
		"current_owner":     v.CurrentOwner.String(),
		"market":            v.Market.String(),
		"state":             v.State.String(),
		"total_supply":      formatAmount(amount.FullShares()),
		"royalty_receivers": addressStrings(v.RoyaltyReceivers),
	}
	if v.State == vault.OfferActive {
		out["offer"] = map[string]interface{}{
			"buyer":          v.OfferBuyer.String(),
			"price":          formatAmount(&v.OfferPrice),
			"deadline":       time.Unix(v.OfferDeadline, 0).UTC().Format(time.RFC3339),
			"total_accepted": formatAmount(&v.TotalAccepted),
			"participants":   addressStrings(v.Participants),
		}
	}
	return out
}

// VaultByAssetMethod handles vault_by_asset
type VaultByAssetMethod struct{}

func (m *VaultByAssetMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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

	id, err := ctx.Services.Vaults.VaultByAsset(ctx.Context, collection, assetID)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{"vault_id": id}, nil
}

func (m *VaultByAssetMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// VaultCountMethod handles vault_count
type VaultCountMethod struct{}

func (m *VaultCountMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	n, err := ctx.Services.Vaults.VaultCount(ctx.Context)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{"count": n}, nil
}

func (m *VaultCountMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// OfferAcceptedMethod handles offer_accepted: the shares a holder has
// delegated to a vault's active offer.
type OfferAcceptedMethod struct{}

func (m *OfferAcceptedMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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

	accepted, err := ctx.Services.Vaults.AcceptedShares(ctx.Context, id, holder)
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"account":  holder.String(),
		"vault_id": id,
		"accepted": formatAmount(accepted),
	}, nil
}

func (m *OfferAcceptedMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
