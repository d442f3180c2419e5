package rpc_handlers

import (
	"encoding/hex"
	"encoding/json"

	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
)

// MarketSellMethod handles market_sell. price is native smallest units per
// whole share.
type MarketSellMethod struct{}

func (m *MarketSellMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
		Amount  string  `json:"amount"`
		Price   string  `json:"price"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := parseAccount("account", request.Account)
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
	price, rpcErr := parseAmount("price", request.Price)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Market.SellTokens(ctx.Context, seller, market.LedgerOf(id), amt, price))
}

func (m *MarketSellMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *MarketSellMethod) SignerField() string          { return "account" }

// MarketCancelMethod handles market_cancel
type MarketCancelMethod struct{}

func (m *MarketCancelMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := parseAccount("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Market.CancelSellOffer(ctx.Context, seller, market.LedgerOf(id)))
}

func (m *MarketCancelMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *MarketCancelMethod) SignerField() string          { return "account" }

// MarketBuyMethod handles market_buy
type MarketBuyMethod struct{}

func (m *MarketBuyMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Account string  `json:"account"`
		VaultID *uint64 `json:"vault_id"`
		Seller  string  `json:"seller"`
		Payment string  `json:"payment"`
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
	seller, rpcErr := parseAccount("seller", request.Seller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseAmount("payment", request.Payment)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return submitResult(ctx.Services.Market.BuyTokens(ctx.Context, buyer, market.LedgerOf(id), seller, payment))
}

func (m *MarketBuyMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
func (m *MarketBuyMethod) SignerField() string          { return "account" }

// MarketInfoMethod handles market_info
type MarketInfoMethod struct{}

func (m *MarketInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
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

	info, err := ctx.Services.Market.Info(ctx.Context, market.LedgerOf(id))
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}
	return map[string]interface{}{
		"vault_id":      info.VaultID,
		"ledger":        hex.EncodeToString(info.Ledger[:]),
		"account":       info.Account.String(),
		"total_sellers": len(info.Holders),
		"active_orders": info.ActiveOrders,
		"sellers":       addressStrings(info.Holders),
	}, nil
}

func (m *MarketInfoMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// MarketOrderMethod handles market_order. The order is selected by seller,
// or by index into the seller list when seller is omitted.
type MarketOrderMethod struct{}

func (m *MarketOrderMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		VaultID *uint64 `json:"vault_id"`
		Seller  string  `json:"seller,omitempty"`
		Index   *int    `json:"index,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireVaultID("vault_id", request.VaultID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ledger := market.LedgerOf(id)

	var (
		order *market.Order
		err   error
	)
	switch {
	case request.Seller != "":
		seller, rpcErr := parseAccount("seller", request.Seller)
		if rpcErr != nil {
			return nil, rpcErr
		}
		order, err = ctx.Services.Market.OrderOf(ctx.Context, ledger, seller)
	case request.Index != nil:
		order, err = ctx.Services.Market.OrderAt(ctx.Context, ledger, *request.Index)
	default:
		return nil, rpc_types.RpcErrorMissingField("seller")
	}
	if err != nil {
		return nil, rpc_types.RpcErrorFromQuery(err)
	}

	return map[string]interface{}{
		"vault_id": id,
		"order": map[string]interface{}{
			"seller": order.Seller.String(),
			"amount": formatAmount(&order.Amount),
			"price":  formatAmount(&order.Price),
		},
	}, nil
}

func (m *MarketOrderMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
