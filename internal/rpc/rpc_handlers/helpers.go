package rpc_handlers

import (
	"encoding/json"
	"strings"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"github.com/holiman/uint256"
)

// parseParams decodes params into v. Absent params leave v untouched.
func parseParams(params json.RawMessage, v interface{}) *rpc_types.RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// parseAccount decodes a required hex address.
func parseAccount(field, s string) (types.Address, *rpc_types.RpcError) {
	if s == "" {
		return types.ZeroAddress, rpc_types.RpcErrorMissingField(field)
	}
	a, err := types.ParseAddress(s)
	if err != nil {
		return types.ZeroAddress, rpc_types.RpcErrorActMalformed(field)
	}
	return a, nil
}

// parseAmount decodes a required amount. Amounts are base-10 integers in
// smallest units; a value with a decimal point is read in whole units.
func parseAmount(field, s string) (*uint256.Int, *rpc_types.RpcError) {
	if s == "" {
		return nil, rpc_types.RpcErrorMissingField(field)
	}
	var (
		z   *uint256.Int
		err error
	)
	if strings.Contains(s, ".") {
		z, err = amount.ParseUnits(s)
	} else {
		z, err = amount.Parse(s)
	}
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidField(field)
	}
	return z, nil
}

// parseAssetID decodes a required base-10 asset id.
func parseAssetID(field, s string) (*uint256.Int, *rpc_types.RpcError) {
	if s == "" {
		return nil, rpc_types.RpcErrorMissingField(field)
	}
	id, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidField(field)
	}
	return id, nil
}

func requireVaultID(field string, id *uint64) (uint64, *rpc_types.RpcError) {
	if id == nil {
		return 0, rpc_types.RpcErrorMissingField(field)
	}
	return *id, nil
}

// formatAmount renders smallest units with the whole-unit form alongside.
func formatAmount(x *uint256.Int) map[string]interface{} {
	return map[string]interface{}{
		"value": x.Dec(),
		"units": amount.Format(x),
	}
}

// submitResult renders the outcome of an engine submission. A rejected
// operation is still a successful RPC call; the engine result says why.
func submitResult(res *tx.ApplyResult, err error) (interface{}, *rpc_types.RpcError) {
	code := tx.ResultOf(err)
	message := ""
	if res != nil {
		code = res.Result
		message = res.Message
	}
	if code == tx.TefINTERNAL && res == nil {
		return nil, rpc_types.RpcErrorInternal(err.Error())
	}
	if message == "" {
		message = code.Message()
	}

	out := map[string]interface{}{
		"engine_result":         code.String(),
		"engine_result_code":    int(code),
		"engine_result_message": message,
		"applied":               code.IsSuccess(),
	}
	if res != nil && code.IsSuccess() {
		out["records"] = recordsJSON(res.Events)
		if res.Output != nil {
			out["output"] = res.Output
		}
	}
	return out, nil
}

func recordsJSON(evts []events.Event) []events.Event {
	if evts == nil {
		return []events.Event{}
	}
	return evts
}

func addressStrings(addrs []types.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
