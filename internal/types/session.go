package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of one execution session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusRunning   SessionStatus = "RUNNING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusFailed    SessionStatus = "FAILED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// IsTerminal reports whether the status is final. Terminal sessions never
// transition again.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusFailed, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// ExecutionSession is one execution attempt for one agent. It is created when
// a run is admitted by the coordinator, mutated only by the coordinator and
// the task it spawned, and immutable once terminal.
type ExecutionSession struct {
	ID        string        `json:"id"`
	AgentID   string        `json:"agent_id"`
	Mode      AgentMode     `json:"mode"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	// Result holds the decision engine's free-form output for completed runs.
	Result string `json:"result,omitempty"`
	// Error holds the captured failure for failed runs.
	Error string `json:"error,omitempty"`
}

// NewExecutionSession creates a pending session for the given agent and mode.
func NewExecutionSession(agentID string, mode AgentMode) *ExecutionSession {
	return &ExecutionSession{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Mode:      mode,
		Status:    SessionStatusPending,
		StartedAt: time.Now(),
	}
}

// MarkRunning transitions the session from PENDING to RUNNING.
func (s *ExecutionSession) MarkRunning() {
	if s.Status == SessionStatusPending {
		s.Status = SessionStatusRunning
	}
}

// Complete transitions the session to COMPLETED with the engine's output.
// A no-op if the session is already terminal.
func (s *ExecutionSession) Complete(result string) {
	if s.Status.IsTerminal() {
		return
	}

	now := time.Now()
	s.EndedAt = &now
	s.Status = SessionStatusCompleted
	s.Result = result
}

// Fail transitions the session to FAILED with the captured error.
// A no-op if the session is already terminal.
func (s *ExecutionSession) Fail(err error) {
	if s.Status.IsTerminal() {
		return
	}

	now := time.Now()
	s.EndedAt = &now
	s.Status = SessionStatusFailed

	if err != nil {
		s.Error = err.Error()
	}
}

// Cancel transitions the session to CANCELLED.
// A no-op if the session is already terminal.
func (s *ExecutionSession) Cancel() {
	if s.Status.IsTerminal() {
		return
	}

	now := time.Now()
	s.EndedAt = &now
	s.Status = SessionStatusCancelled
}

// Duration returns the elapsed time of the session, using the current time
// for sessions that have not ended yet.
func (s *ExecutionSession) Duration() time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}

	return time.Since(s.StartedAt)
}
