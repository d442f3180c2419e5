// Package rpc serves the JSON-RPC API over HTTP and websocket.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"go.uber.org/zap"
)

// maxBodySize bounds a request body
const maxBodySize = 1 << 20

// Server handles HTTP JSON-RPC requests
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	auth     *authenticator
	timeout  time.Duration
	logger   *zap.Logger
}

// NewServer creates a new RPC server with the given timeout
func NewServer(services *rpc_types.ServiceContainer, timeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := rpc_types.NewMethodRegistry()
	registerAllMethods(registry)
	return &Server{
		registry: registry,
		services: services,
		auth:     newAuthenticator(),
		timeout:  timeout,
		logger:   logger,
	}
}

// Methods lists the registered method names.
func (s *Server) Methods() []string {
	return s.registry.List()
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest processes GET requests with query parameters
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	result, rpcErr := s.executeMethod(r.Context(), method, nil, getClientIP(r))
	s.writeResponse(w, map[string]interface{}{"command": method}, result, rpcErr)
}

// handlePostRequest processes POST requests with a JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeResponse(w, nil, nil, rpc_types.RpcErrorInternal("Failed to read request body"))
		return
	}

	var request rpc_types.Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, nil, rpc_types.NewRpcError(rpc_types.RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, nil, rpc_types.NewRpcError(rpc_types.RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing method field"))
		return
	}

	// params is an array holding one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	result, rpcErr := s.executeMethod(r.Context(), request.Method, params, getClientIP(r))

	var requestObj interface{}
	if rpcErr != nil {
		reqMap := map[string]interface{}{}
		if params != nil {
			_ = json.Unmarshal(params, &reqMap)
		}
		reqMap["command"] = request.Method
		requestObj = reqMap
	}
	s.writeResponse(w, requestObj, result, rpcErr)
}

// executeMethod runs a method under the server timeout
func (s *Server) executeMethod(ctx context.Context, method string, params json.RawMessage, clientIP string) (interface{}, *rpc_types.RpcError) {
	return execute(ctx, s.registry, s.services, s.auth, s.timeout, s.logger, method, params, clientIP)
}

func execute(ctx context.Context, registry *rpc_types.MethodRegistry, services *rpc_types.ServiceContainer, auth *authenticator,
	timeout time.Duration, logger *zap.Logger, method string, params json.RawMessage, clientIP string) (result interface{}, rpcErr *rpc_types.RpcError) {
	handler, exists := registry.Get(method)
	if !exists {
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	}

	role := roleFor(clientIP)
	if role < handler.RequiredRole() {
		return nil, rpc_types.NewRpcError(rpc_types.RpcCOMMAND_UNTRUSTED, "commandUntrusted", "commandUntrusted",
			fmt.Sprintf("Method '%s' requires higher privileges", method))
	}
	if signer, ok := handler.(rpc_types.SignedMethod); ok {
		if rpcErr := auth.authorize(method, signer, role, params); rpcErr != nil {
			return nil, rpcErr
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("rpc method panicked", zap.String("method", method), zap.Any("panic", p))
			result, rpcErr = nil, rpc_types.RpcErrorInternal("internal error")
		}
	}()

	start := time.Now()
	result, rpcErr = handler.Handle(&rpc_types.RpcContext{
		Context:  ctx,
		Role:     role,
		ClientIP: clientIP,
		Services: services,
	}, params)
	logger.Debug("rpc call",
		zap.String("method", method),
		zap.String("client", clientIP),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", rpcErr == nil))
	return result, rpcErr
}

// writeResponse writes a response. result.status is "success" or "error".
func (s *Server) writeResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *rpc_types.RpcError) {
	response := make(map[string]interface{})

	if rpcErr != nil {
		resultObj := map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
		response["result"] = resultObj
	} else if resultMap, ok := result.(map[string]interface{}); ok {
		resultMap["status"] = "success"
		response["result"] = resultMap
	} else {
		response["result"] = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseData)
}

// roleFor grants admin to loopback clients
func roleFor(clientIP string) rpc_types.Role {
	if ip := net.ParseIP(clientIP); ip != nil && ip.IsLoopback() {
		return rpc_types.RoleAdmin
	}
	return rpc_types.RoleGuest
}

// getClientIP extracts the client IP from the request. Forwarding headers
// are not trusted.
func getClientIP(r *http.Request) string {
	return hostOf(r.RemoteAddr)
}

func hostOf(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return strings.Trim(host, "[]")
	}
	return addr
}
