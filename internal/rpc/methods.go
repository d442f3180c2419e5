package rpc

import (
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_handlers"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
)

// registerAllMethods registers every RPC method. HTTP and websocket clients
// share the registry.
func registerAllMethods(registry *rpc_types.MethodRegistry) {
	// Server Information Methods
	registry.Register("server_info", &rpc_handlers.ServerInfoMethod{})
	registry.Register("ping", &rpc_handlers.PingMethod{})
	registry.Register("events", &rpc_handlers.EventsMethod{})

	// Vault Methods
	registry.Register("vault_create", &rpc_handlers.VaultCreateMethod{})
	registry.Register("offer_make", &rpc_handlers.OfferMakeMethod{})
	registry.Register("offer_accept", &rpc_handlers.OfferAcceptMethod{})
	registry.Register("offer_end", &rpc_handlers.OfferEndMethod{})
	registry.Register("vault_info", &rpc_handlers.VaultInfoMethod{})
	registry.Register("vault_by_asset", &rpc_handlers.VaultByAssetMethod{})
	registry.Register("vault_count", &rpc_handlers.VaultCountMethod{})
	registry.Register("offer_accepted", &rpc_handlers.OfferAcceptedMethod{})

	// Market Methods
	registry.Register("market_sell", &rpc_handlers.MarketSellMethod{})
	registry.Register("market_cancel", &rpc_handlers.MarketCancelMethod{})
	registry.Register("market_buy", &rpc_handlers.MarketBuyMethod{})
	registry.Register("market_info", &rpc_handlers.MarketInfoMethod{})
	registry.Register("market_order", &rpc_handlers.MarketOrderMethod{})

	// Share Methods
	registry.Register("shares_balance", &rpc_handlers.SharesBalanceMethod{})
	registry.Register("shares_allowance", &rpc_handlers.SharesAllowanceMethod{})
	registry.Register("shares_approve", &rpc_handlers.SharesApproveMethod{})
	registry.Register("shares_transfer", &rpc_handlers.SharesTransferMethod{})

	// Asset Methods
	registry.Register("asset_mint", &rpc_handlers.AssetMintMethod{})
	registry.Register("asset_approve", &rpc_handlers.AssetApproveMethod{})
	registry.Register("asset_owner", &rpc_handlers.AssetOwnerMethod{})

	// Account Methods
	registry.Register("account_balance", &rpc_handlers.AccountBalanceMethod{})
	registry.Register("account_pay", &rpc_handlers.AccountPayMethod{})

	// Standalone mode methods
	registry.Register("account_fund", &rpc_handlers.AccountFundMethod{})
}
