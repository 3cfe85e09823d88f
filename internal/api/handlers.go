package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

type createAgentRequest struct {
	Name         string          `json:"name"`
	Model        string          `json:"model"`
	Instructions string          `json:"instructions"`
	InitialFunds decimal.Decimal `json:"initial_funds"`
}

type startRequest struct {
	Mode types.AgentMode `json:"mode"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

type portfolioResponse struct {
	AgentID   string          `json:"agent_id"`
	Cash      decimal.Decimal `json:"cash"`
	CostBasis decimal.Decimal `json:"cost_basis"`
	Holdings  []types.Holding `json:"holdings"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	now := time.Now()
	agent := &types.Agent{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Model:        req.Model,
		Instructions: req.Instructions,
		InitialFunds: req.InitialFunds,
		CashBalance:  req.InitialFunds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAgent(r.Context(), agent); err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, agent)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.store.ListAgents(r.Context())
	if err != nil {
		s.writeError(w, err)

		return
	}

	if agents == nil {
		agents = []types.Agent{}
	}

	s.writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	agentOpt, err := s.store.GetAgent(r.Context(), agentID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if agentOpt.IsNone() {
		s.writeError(w, errors.Newf(errors.ErrCodeAgentNotFound, "agent %s not found", agentID))

		return
	}

	agent := agentOpt.Unwrap()
	s.writeJSON(w, http.StatusOK, agent)
}

// handleStart admits a run and returns 202 with the new session id. A second
// start while a run is in flight returns 409.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return
	}

	sessionID, err := s.coordinator.Start(r.Context(), agentID, req.Mode)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusAccepted, startResponse{SessionID: sessionID})
}

// handleStop blocks until the agent's running task has fully unwound, then
// returns 200.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	if err := s.coordinator.Stop(r.Context(), agentID); err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	s.writeJSON(w, http.StatusOK, s.coordinator.Status(agentID))
}

// handlePortfolio reports cash plus holdings valued at cost basis. Live market
// valuation belongs to the performance snapshots, not this endpoint.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	agentOpt, err := s.store.GetAgent(r.Context(), agentID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if agentOpt.IsNone() {
		s.writeError(w, errors.Newf(errors.ErrCodeAgentNotFound, "agent %s not found", agentID))

		return
	}

	holdings, err := s.store.GetHoldings(r.Context(), agentID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	costBasis := decimal.Zero
	for i := range holdings {
		costBasis = costBasis.Add(holdings[i].CostBasis())
	}

	if holdings == nil {
		holdings = []types.Holding{}
	}

	agent := agentOpt.Unwrap()
	s.writeJSON(w, http.StatusOK, portfolioResponse{
		AgentID:   agentID,
		Cash:      agent.CashBalance,
		CostBasis: costBasis,
		Holdings:  holdings,
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	trades, err := s.store.GetTrades(r.Context(), agentID, parseLimit(r))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if trades == nil {
		trades = []types.TradeRecord{}
	}

	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	snapshots, err := s.store.GetPerformance(r.Context(), agentID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if snapshots == nil {
		snapshots = []types.PerformanceSnapshot{}
	}

	s.writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	sessions, err := s.recorder.ListSessions(r.Context(), agentID, parseLimit(r))
	if err != nil {
		s.writeError(w, err)

		return
	}

	if sessions == nil {
		sessions = []types.ExecutionSession{}
	}

	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, found, err := s.recorder.GetSession(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)

		return
	}

	if !found {
		s.writeError(w, errors.Newf(errors.ErrCodeSessionNotFound, "session %s not found", sessionID))

		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	s.writeJSON(w, httpStatusFor(code), errorResponse{
		Code:    int(code),
		Message: err.Error(),
	})
}

// httpStatusFor maps internal error codes onto HTTP statuses.
func httpStatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeAgentNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeTickerNotFound:
		return http.StatusNotFound
	case errors.ErrCodeAgentBusy, errors.ErrCodeNotRunning:
		return http.StatusConflict
	case errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidIntent, errors.ErrCodeInvalidQuantity,
		errors.ErrCodeInvalidAction, errors.ErrCodeInvalidMode:
		return http.StatusBadRequest
	case errors.ErrCodeInsufficientFunds, errors.ErrCodeInsufficientHoldings:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeMarketUnavailable, errors.ErrCodeMarketDataFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseLimit(r *http.Request) uint64 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}

	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}

	return limit
}
