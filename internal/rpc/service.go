package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/rpc/rpc_types"
	"go.uber.org/zap"
)

// Service is the API listener: JSON-RPC on / and /rpc, websocket on /ws,
// liveness on /health.
type Service struct {
	http     *http.Server
	rpc      *Server
	ws       *WebSocketServer
	services *rpc_types.ServiceContainer
	logger   *zap.Logger
}

// NewService wires the HTTP and websocket servers behind one mux.
func NewService(addr string, services *rpc_types.ServiceContainer, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		rpc:      NewServer(services, timeout, logger),
		ws:       NewWebSocketServer(services, timeout, logger.Named("ws")),
		services: services,
		logger:   logger,
	}
	// one replay cache for both transports
	s.ws.auth = s.rpc.auth
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing mux
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.rpc)
	mux.Handle("/rpc", s.rpc)
	mux.Handle("/ws", s.ws)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Publisher is the sink that feeds websocket subscribers.
func (s *Service) Publisher() events.Sink {
	return s.ws
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body := map[string]interface{}{
		"status":  "ok",
		"service": "fracvaultd",
	}
	if s.services != nil && s.services.Engine != nil {
		body["last_seq"] = s.services.Engine.Bus().LastSeq()
	}
	status := http.StatusOK
	if s.services != nil && s.services.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.services.Health.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["error"] = err.Error()
		}
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Serve accepts connections on l until Shutdown. A clean shutdown returns
// nil.
func (s *Service) Serve(l net.Listener) error {
	s.logger.Info("rpc listening", zap.String("addr", l.Addr().String()))
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Service) ListenAndServe() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown disconnects websocket clients, then drains HTTP requests.
func (s *Service) Shutdown(ctx context.Context) error {
	s.ws.Close()
	return s.http.Shutdown(ctx)
}
