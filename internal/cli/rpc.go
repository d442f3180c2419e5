package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/LeJamon/goFracVault/internal/crypto"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"github.com/spf13/cobra"
)

// defaultRPCURL is used when neither --url nor a configuration is available
const defaultRPCURL = "http://127.0.0.1:5005"

// signedRequestTTL is how long a request signed with --seed stays valid
const signedRequestTTL = time.Minute

var (
	rpcURL  string
	rpcSeed string
)

// rpcCmd represents the rpc command group
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long:  `Call a running fracvaultd server over HTTP JSON-RPC and print the result.`,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.PersistentFlags().StringVar(&rpcURL, "url", "", "server URL (default: from configuration)")
	rpcCmd.PersistentFlags().StringVar(&rpcSeed, "seed", "", "sign the request with the key derived from this seed")
}

// serverURL picks --url, then the configured listen address.
func serverURL() string {
	if rpcURL != "" {
		return rpcURL
	}
	if cfg, err := loadConfig(); err == nil {
		return "http://" + cfg.Server.ListenAddr()
	}
	return defaultRPCURL
}

// executeMethod posts a call and pretty prints the result. An RPC-level
// error is returned as an error.
func executeMethod(cmd *cobra.Command, method string, params map[string]interface{}) error {
	if rpcSeed != "" {
		key, err := crypto.KeyPairFromSeed([]byte(rpcSeed))
		if err != nil {
			return err
		}
		if params == nil {
			params = map[string]interface{}{}
		}
		if err := rpc_types.SignRequest(key, method, params, time.Now().Add(signedRequestTTL)); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	body := map[string]interface{}{"method": method}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL(), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc request: %s", resp.Status)
	}

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out.Result["status"] == "error" {
		return fmt.Errorf("RPC error [%v]: %v", out.Result["error_code"], out.Result["error_message"])
	}

	pretty, err := json.MarshalIndent(out.Result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	return nil
}

func parseVaultID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid vault id %q", s)
	}
	return id, nil
}

// =============================================================================
// SERVER COMMANDS
// =============================================================================

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "ping", nil)
	},
}

var serverInfoCmd = &cobra.Command{
	Use:   "server_info",
	Short: "Get server information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "server_info", nil)
	},
}

var (
	eventsType  string
	eventsAfter uint64
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events [vault_id]",
	Short: "List committed records",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{}
		if len(args) > 0 {
			id, err := parseVaultID(args[0])
			if err != nil {
				return err
			}
			params["vault_id"] = id
		}
		if eventsType != "" {
			params["type"] = eventsType
		}
		if eventsAfter > 0 {
			params["after_seq"] = eventsAfter
		}
		if eventsLimit > 0 {
			params["limit"] = eventsLimit
		}
		return executeMethod(cmd, "events", params)
	},
}

// =============================================================================
// VAULT AND MARKET COMMANDS
// =============================================================================

var vaultInfoCmd = &cobra.Command{
	Use:   "vault_info <vault_id>",
	Short: "Get a vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVaultID(args[0])
		if err != nil {
			return err
		}
		return executeMethod(cmd, "vault_info", map[string]interface{}{"vault_id": id})
	},
}

var vaultCountCmd = &cobra.Command{
	Use:   "vault_count",
	Short: "Count vaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "vault_count", nil)
	},
}

var marketInfoCmd = &cobra.Command{
	Use:   "market_info <vault_id>",
	Short: "Get a vault's share market",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVaultID(args[0])
		if err != nil {
			return err
		}
		return executeMethod(cmd, "market_info", map[string]interface{}{"vault_id": id})
	},
}

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

var accountBalanceCmd = &cobra.Command{
	Use:   "account_balance <account>",
	Short: "Get an account's native balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "account_balance", map[string]interface{}{"account": args[0]})
	},
}

var sharesBalanceCmd = &cobra.Command{
	Use:   "shares_balance <account> <vault_id>",
	Short: "Get an account's share balance in a vault",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVaultID(args[1])
		if err != nil {
			return err
		}
		return executeMethod(cmd, "shares_balance", map[string]interface{}{"account": args[0], "vault_id": id})
	},
}

var accountFundCmd = &cobra.Command{
	Use:   "account_fund <account> <amount>",
	Short: "Mint native currency to an account (standalone only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeMethod(cmd, "account_fund", map[string]interface{}{"account": args[0], "amount": args[1]})
	},
}

// =============================================================================
// GENERIC JSON COMMAND
// =============================================================================

var jsonCmd = &cobra.Command{
	Use:   "json <method> [params]",
	Short: "Call any method with a JSON object of parameters",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params map[string]interface{}
		if len(args) > 1 {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("invalid JSON params: %w", err)
			}
		}
		return executeMethod(cmd, args[0], params)
	},
}

// =============================================================================
// ADD ALL COMMANDS
// =============================================================================

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "record type filter")
	eventsCmd.Flags().Uint64Var(&eventsAfter, "after", 0, "return records after this sequence")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "maximum records to return")

	rpcCmd.AddCommand(
		// Server commands
		pingCmd,
		serverInfoCmd,
		eventsCmd,

		// Vault and market commands
		vaultInfoCmd,
		vaultCountCmd,
		marketInfoCmd,

		// Account commands
		accountBalanceCmd,
		sharesBalanceCmd,
		accountFundCmd,

		// Generic JSON command
		jsonCmd,
	)
}
