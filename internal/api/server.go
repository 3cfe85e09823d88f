// Package api exposes the orchestration surface over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/agent/coordinator"
	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/notify"
	"github.com/sacahan/casualtrader/internal/session"
	"github.com/sacahan/casualtrader/internal/store"
)

// Server wires the HTTP routes to the coordinator and the persistence store.
type Server struct {
	coordinator *coordinator.Coordinator
	recorder    *session.Recorder
	store       *store.Store
	broadcaster *notify.WSBroadcaster
	logger      *logger.Logger

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates the API server.
func NewServer(coord *coordinator.Coordinator, recorder *session.Recorder,
	st *store.Store, broadcaster *notify.WSBroadcaster, log *logger.Logger,
) *Server {
	return &Server{
		coordinator: coord,
		recorder:    recorder,
		store:       st,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/v1/agents", s.handleCreateAgent).Methods("POST")
	router.HandleFunc("/api/v1/agents", s.handleListAgents).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}", s.handleGetAgent).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}/start", s.handleStart).Methods("POST")
	router.HandleFunc("/api/v1/agents/{id}/stop", s.handleStop).Methods("POST")
	router.HandleFunc("/api/v1/agents/{id}/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}/portfolio", s.handlePortfolio).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}/trades", s.handleTrades).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}/performance", s.handlePerformance).Methods("GET")
	router.HandleFunc("/api/v1/agents/{id}/sessions", s.handleListSessions).Methods("GET")
	router.HandleFunc("/api/v1/sessions/{id}", s.handleGetSession).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	if s.broadcaster != nil {
		router.Handle("/ws/events", s.broadcaster)
	}

	return router
}

// Start begins serving on the given address. ":0" picks a random port.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()

	s.logger.Info("api server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
