package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsMaxMessageSize = 512 * 1024
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsSendBuffer     = 256
)

// WebSocketServer handles websocket connections: RPC commands plus the
// records stream.
type WebSocketServer struct {
	upgrader websocket.Upgrader
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	auth     *authenticator
	timeout  time.Duration
	logger   *zap.Logger

	connectionsMutex sync.RWMutex
	connections      map[string]*WebSocketConnection
	closed           bool
	wg               sync.WaitGroup
}

// WebSocketConnection represents a single websocket connection
type WebSocketConnection struct {
	ID   string
	conn *websocket.Conn
	ip   string

	mutex   sync.RWMutex
	streams map[rpc_types.SubscriptionType]struct{}
	vaults  map[uint64]struct{}

	sendChannel chan []byte
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewWebSocketServer creates a new websocket server
func NewWebSocketServer(services *rpc_types.ServiceContainer, timeout time.Duration, logger *zap.Logger) *WebSocketServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := rpc_types.NewMethodRegistry()
	registerAllMethods(registry)
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:    registry,
		services:    services,
		auth:        newAuthenticator(),
		timeout:     timeout,
		logger:      logger,
		connections: make(map[string]*WebSocketConnection),
	}
}

// ServeHTTP handles websocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.connectionsMutex.RLock()
	closed := ws.closed
	ws.connectionsMutex.RUnlock()
	if closed {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	// The connection outlives the upgrade request.
	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:          uuid.NewString(),
		conn:        conn,
		ip:          hostOf(r.RemoteAddr),
		streams:     make(map[rpc_types.SubscriptionType]struct{}),
		vaults:      make(map[uint64]struct{}),
		sendChannel: make(chan []byte, wsSendBuffer),
		ctx:         ctx,
		cancel:      cancel,
	}

	ws.connectionsMutex.Lock()
	if ws.closed {
		ws.connectionsMutex.Unlock()
		cancel()
		_ = conn.Close()
		return
	}
	ws.connections[wsConn.ID] = wsConn
	ws.wg.Add(2)
	ws.connectionsMutex.Unlock()

	ws.logger.Debug("websocket connected", zap.String("conn", wsConn.ID), zap.String("client", wsConn.ip))

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// handleConnection reads commands until the peer goes away
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.wg.Done()
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(wsMaxMessageSize)
	_ = wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		return wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				ws.logger.Debug("websocket read failed", zap.String("conn", wsConn.ID), zap.Error(err))
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

// handleSend owns every write to the socket
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	defer ws.wg.Done()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.closeConnection(wsConn)
				return
			}
		case message := <-wsConn.sendChannel:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.logger.Debug("websocket send failed", zap.String("conn", wsConn.ID), zap.Error(err))
				ws.closeConnection(wsConn)
				return
			}
		}
	}
}

// handleMessage processes a single command. Parameters sit at the top
// level of the message next to command and id.
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, rpc_types.NewRpcError(rpc_types.RpcPARSE_ERROR, "jsonInvalid", "jsonInvalid", "Invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, rpc_types.NewRpcError(rpc_types.RpcMISSING_COMMAND, "missingCommand", "missingCommand", "Missing command field"), cmdMap["id"])
		return
	}

	cmd := rpc_types.WebSocketCommand{
		Command: command,
		ID:      cmdMap["id"],
	}
	delete(cmdMap, "command")
	delete(cmdMap, "id")
	params, err := json.Marshal(cmdMap)
	if err != nil {
		ws.sendError(wsConn, rpc_types.RpcErrorInvalidParams("Invalid parameters"), cmd.ID)
		return
	}
	cmd.Params = params

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, cmd)
	case "unsubscribe":
		ws.handleUnsubscribe(wsConn, cmd)
	default:
		ws.handleRPCMethod(wsConn, cmd)
	}
}

func parseSubscription(params json.RawMessage) (rpc_types.SubscriptionRequest, *rpc_types.RpcError) {
	var request rpc_types.SubscriptionRequest
	if err := json.Unmarshal(params, &request); err != nil {
		return request, rpc_types.RpcErrorInvalidParams("Invalid subscription parameters")
	}
	for _, stream := range request.Streams {
		if stream != rpc_types.SubRecords {
			return request, rpc_types.RpcErrorStreamMalformed("Unknown stream '"+string(stream)+"'.")
		}
	}
	if len(request.Streams) == 0 && len(request.Vaults) == 0 {
		return request, rpc_types.RpcErrorMissingField("streams")
	}
	return request, nil
}

// handleSubscribe adds streams and vault filters. Naming vaults implies the
// records stream.
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, cmd rpc_types.WebSocketCommand) {
	request, rpcErr := parseSubscription(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, stream := range request.Streams {
		wsConn.streams[stream] = struct{}{}
	}
	if len(request.Vaults) > 0 {
		wsConn.streams[rpc_types.SubRecords] = struct{}{}
	}
	for _, id := range request.Vaults {
		wsConn.vaults[id] = struct{}{}
	}
	wsConn.mutex.Unlock()

	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: map[string]interface{}{"subscribed": true, "last_seq": ws.lastSeq()},
	})
}

// handleUnsubscribe removes streams and vault filters. Dropping the last
// vault filter widens the records stream back to every vault.
func (ws *WebSocketServer) handleUnsubscribe(wsConn *WebSocketConnection, cmd rpc_types.WebSocketCommand) {
	request, rpcErr := parseSubscription(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, stream := range request.Streams {
		delete(wsConn.streams, stream)
	}
	for _, id := range request.Vaults {
		delete(wsConn.vaults, id)
	}
	wsConn.mutex.Unlock()

	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: map[string]interface{}{"unsubscribed": true},
	})
}

// handleRPCMethod processes regular RPC method calls over websocket
func (ws *WebSocketServer) handleRPCMethod(wsConn *WebSocketConnection, cmd rpc_types.WebSocketCommand) {
	result, rpcErr := execute(wsConn.ctx, ws.registry, ws.services, ws.auth, ws.timeout, ws.logger, cmd.Command, cmd.Params, wsConn.ip)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: result,
	})
}

func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response rpc_types.WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		ws.logger.Error("failed to marshal websocket response", zap.Error(err))
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError sends an error with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *rpc_types.RpcError, id interface{}) {
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:         "response",
		ID:           id,
		Status:       "error",
		Error:        rpcErr.ErrorString,
		ErrorCode:    rpcErr.Code,
		ErrorMessage: rpcErr.Message,
	})
}

// enqueue hands a reply to the writer. A client that cannot keep up with
// its own replies is disconnected.
func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		ws.logger.Warn("websocket send channel full, closing connection", zap.String("conn", wsConn.ID))
		ws.closeConnection(wsConn)
	}
}

// closeConnection tears a connection down once
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.closeOnce.Do(func() {
		wsConn.cancel()

		ws.connectionsMutex.Lock()
		delete(ws.connections, wsConn.ID)
		ws.connectionsMutex.Unlock()

		_ = wsConn.conn.Close()
		ws.logger.Debug("websocket connection closed", zap.String("conn", wsConn.ID))
	})
}

// wants reports whether a connection receives the record
func (c *WebSocketConnection) wants(e events.Event) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if _, ok := c.streams[rpc_types.SubRecords]; !ok {
		return false
	}
	if len(c.vaults) == 0 {
		return true
	}
	_, ok := c.vaults[e.VaultID]
	return ok
}

// Publish implements events.Sink: each record goes to every matching
// subscriber. Slow subscribers miss records instead of stalling commits.
func (ws *WebSocketServer) Publish(ctx context.Context, records []events.Event) error {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()
	if len(ws.connections) == 0 {
		return nil
	}

	for _, e := range records {
		data, err := json.Marshal(map[string]interface{}{
			"type":   string(rpc_types.SubRecords),
			"record": e,
		})
		if err != nil {
			return err
		}
		for _, conn := range ws.connections {
			if !conn.wants(e) {
				continue
			}
			select {
			case conn.sendChannel <- data:
			default:
				ws.logger.Warn("skipping slow websocket subscriber",
					zap.String("conn", conn.ID),
					zap.Uint64("seq", e.Seq))
			}
		}
	}
	return nil
}

// SubscriberCount returns the number of connections on the records stream
func (ws *WebSocketServer) SubscriberCount() int {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()
	n := 0
	for _, conn := range ws.connections {
		conn.mutex.RLock()
		if _, ok := conn.streams[rpc_types.SubRecords]; ok {
			n++
		}
		conn.mutex.RUnlock()
	}
	return n
}

// Close disconnects every client and waits for the connection goroutines.
// Later upgrade requests are refused.
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.Lock()
	ws.closed = true
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, conn := range ws.connections {
		conns = append(conns, conn)
	}
	ws.connectionsMutex.Unlock()

	for _, conn := range conns {
		ws.closeConnection(conn)
	}
	ws.wg.Wait()
}

func (ws *WebSocketServer) lastSeq() uint64 {
	if ws.services == nil || ws.services.Engine == nil {
		return 0
	}
	return ws.services.Engine.Bus().LastSeq()
}
