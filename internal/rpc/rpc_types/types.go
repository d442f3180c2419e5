package rpc_types

import (
	"context"
	"encoding/json"
	"sort"
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context  context.Context
	Role     Role
	ClientIP string
	Services *ServiceContainer
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order.
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Request is an HTTP RPC request.
// Format: {"method": "method_name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// WebSocketCommand is a command sent over a websocket. Parameters sit at
// the top level next to command and id.
type WebSocketCommand struct {
	Command string          `json:"command"`
	ID      interface{}     `json:"id,omitempty"`
	Params  json.RawMessage `json:"-"`
}

// WebSocketResponse answers a WebSocketCommand
type WebSocketResponse struct {
	Status       string      `json:"status"`
	Type         string      `json:"type"`
	Result       interface{} `json:"result,omitempty"`
	ID           interface{} `json:"id,omitempty"`
	Error        string      `json:"error,omitempty"`
	ErrorCode    int         `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// SubscriptionType names a websocket stream
type SubscriptionType string

const (
	// SubRecords streams every committed record
	SubRecords SubscriptionType = "records"
)

// SubscriptionRequest is the body of subscribe and unsubscribe. Vaults
// narrows the records stream to the listed vault ids.
type SubscriptionRequest struct {
	Streams []SubscriptionType `json:"streams,omitempty"`
	Vaults  []uint64           `json:"vaults,omitempty"`
}
