package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

var sessionColumns = []string{"id", "agent_id", "mode", "status", "started_at", "ended_at", "result", "error"}

// InsertSession persists a newly admitted session record.
func (s *Store) InsertSession(ctx context.Context, session *types.ExecutionSession) error {
	_, err := s.sq.Insert("sessions").
		Columns(sessionColumns...).
		Values(session.ID, session.AgentID, session.Mode, session.Status,
			session.StartedAt, session.EndedAt, session.Result, session.Error).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert session", err)
	}

	return nil
}

// UpdateSession persists the session's current status, outcome, and end time.
func (s *Store) UpdateSession(ctx context.Context, session *types.ExecutionSession) error {
	_, err := s.sq.Update("sessions").
		Set("status", session.Status).
		Set("ended_at", session.EndedAt).
		Set("result", session.Result).
		Set("error", session.Error).
		Where("id = ?", session.ID).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to update session", err)
	}

	return nil
}

// GetSession returns the session with the given id, or None if absent.
func (s *Store) GetSession(ctx context.Context, sessionID string) (optional.Option[types.ExecutionSession], error) {
	row := s.sq.Select(sessionColumns...).
		From("sessions").
		Where("id = ?", sessionID).
		RunWith(s.db).
		QueryRowContext(ctx)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return optional.None[types.ExecutionSession](), nil
		}

		return optional.None[types.ExecutionSession](), err
	}

	return optional.Some(session), nil
}

// ListSessions returns the agent's sessions, most recent first. A limit of 0
// means no limit.
func (s *Store) ListSessions(ctx context.Context, agentID string, limit uint64) ([]types.ExecutionSession, error) {
	builder := s.sq.Select(sessionColumns...).
		From("sessions").
		Where("agent_id = ?", agentID).
		OrderBy("started_at DESC")

	if limit > 0 {
		builder = builder.Limit(limit)
	}

	rows, err := builder.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query sessions", err)
	}
	defer rows.Close()

	var sessions []types.ExecutionSession

	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func scanSession(row rowScanner) (types.ExecutionSession, error) {
	var (
		session        types.ExecutionSession
		endedAt        sql.NullTime
		result, errMsg sql.NullString
	)

	err := row.Scan(&session.ID, &session.AgentID, &session.Mode, &session.Status,
		&session.StartedAt, &endedAt, &result, &errMsg)
	if err != nil {
		return types.ExecutionSession{}, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan session", err)
	}

	if endedAt.Valid {
		ended := endedAt.Time
		session.EndedAt = &ended
	}

	session.Result = result.String
	session.Error = errMsg.String

	return session, nil
}

// AppendMemory stores one knowledge-store note for an agent.
func (s *Store) AppendMemory(ctx context.Context, agentID, content string) error {
	_, err := s.sq.Insert("agent_memory").
		Columns("id", "agent_id", "content", "created_at").
		Values(uuid.New().String(), agentID, content, time.Now()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to append memory", err)
	}

	return nil
}

// ListMemory returns the agent's notes, most recent first. A limit of 0 means
// no limit.
func (s *Store) ListMemory(ctx context.Context, agentID string, limit uint64) ([]string, error) {
	builder := s.sq.Select("content").
		From("agent_memory").
		Where("agent_id = ?", agentID).
		OrderBy("created_at DESC")

	if limit > 0 {
		builder = builder.Limit(limit)
	}

	rows, err := builder.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query memory", err)
	}
	defer rows.Close()

	var notes []string

	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan memory", err)
		}

		notes = append(notes, content)
	}

	return notes, rows.Err()
}
