// Package session persists execution session lifecycle records.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/types"
)

// Recorder writes session lifecycle records through the persistence store.
// Terminal persistence is attempted exactly once per session; a persistence
// failure is logged and reported but never suppresses the terminal
// notification.
type Recorder struct {
	store  *store.Store
	logger *logger.Logger
}

// NewRecorder creates a session recorder.
func NewRecorder(st *store.Store, log *logger.Logger) *Recorder {
	return &Recorder{
		store:  st,
		logger: log,
	}
}

// RecordAdmitted persists a newly admitted PENDING session.
func (r *Recorder) RecordAdmitted(ctx context.Context, session *types.ExecutionSession) error {
	return r.store.InsertSession(ctx, session)
}

// RecordRunning persists the PENDING to RUNNING transition.
func (r *Recorder) RecordRunning(ctx context.Context, session *types.ExecutionSession) error {
	return r.store.UpdateSession(ctx, session)
}

// RecordTerminal persists the session's terminal state. Errors are logged and
// returned; callers continue to the terminal notification either way.
func (r *Recorder) RecordTerminal(ctx context.Context, session *types.ExecutionSession) error {
	if err := r.store.UpdateSession(ctx, session); err != nil {
		r.logger.Error("failed to persist terminal session state",
			zap.String("session_id", session.ID),
			zap.String("status", string(session.Status)),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// GetSession returns one session record by id.
func (r *Recorder) GetSession(ctx context.Context, sessionID string) (*types.ExecutionSession, bool, error) {
	opt, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	if opt.IsNone() {
		return nil, false, nil
	}

	session := opt.Unwrap()

	return &session, true, nil
}

// ListSessions returns the agent's recent sessions, newest first.
func (r *Recorder) ListSessions(ctx context.Context, agentID string, limit uint64) ([]types.ExecutionSession, error) {
	return r.store.ListSessions(ctx, agentID, limit)
}
