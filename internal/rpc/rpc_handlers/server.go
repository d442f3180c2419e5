package rpc_handlers

import (
	"encoding/json"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
)

const (
	defaultRecordLimit = 200
	maxRecordLimit     = 1000
)

// EventsMethod handles the events RPC method: committed records in
// sequence order, optionally narrowed to one vault or record type.
// Paginate by passing the last seen seq as after_seq.
type EventsMethod struct{}

func (m *EventsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		VaultID  *uint64 `json:"vault_id,omitempty"`
		Type     string  `json:"type,omitempty"`
		AfterSeq uint64  `json:"after_seq,omitempty"`
		Limit    int     `json:"limit,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	limit := request.Limit
	switch {
	case limit < 0:
		return nil, rpc_types.RpcErrorInvalidField("limit")
	case limit == 0:
		limit = defaultRecordLimit
	case limit > maxRecordLimit:
		limit = maxRecordLimit
	}

	if ctx.Services.Records == nil {
		return nil, rpc_types.RpcErrorInternal("Record source not available")
	}
	records, err := ctx.Services.Records.Query(ctx.Context, events.Filter{
		VaultID:  request.VaultID,
		Type:     events.Type(request.Type),
		AfterSeq: request.AfterSeq,
		Limit:    limit,
	})
	if err != nil {
		return nil, rpc_types.RpcErrorInternal(err.Error())
	}

	out := map[string]interface{}{
		"records": recordsJSON(records),
		"limit":   limit,
	}
	if len(records) == limit {
		out["marker"] = records[len(records)-1].Seq
	}
	return out, nil
}

func (m *EventsMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// ServerInfoMethod handles server_info
type ServerInfoMethod struct{}

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	engine := ctx.Services.Engine
	cfg := engine.Config()

	info := map[string]interface{}{
		"admin":              cfg.Admin.String(),
		"standalone":         cfg.Standalone,
		"min_offer_duration": cfg.MinOfferDuration.String(),
		"max_offer_duration": cfg.MaxOfferDuration.String(),
		"last_seq":           engine.Bus().LastSeq(),
		"time":               engine.Now().UTC().Format(time.RFC3339),
	}
	if ctx.Services.Status != nil {
		for k, v := range ctx.Services.Status.ServerStatus(ctx.Context) {
			info[k] = v
		}
	}
	return map[string]interface{}{"info": info}, nil
}

func (m *ServerInfoMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }

// PingMethod handles the ping RPC method
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	return map[string]interface{}{}, nil
}

func (m *PingMethod) RequiredRole() rpc_types.Role { return rpc_types.RoleGuest }
