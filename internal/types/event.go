package types

import "time"

// EventKind identifies a lifecycle event on the notification bus.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventStopped   EventKind = "stopped"
)

// IsTerminal reports whether the event kind ends a session. Exactly one
// terminal event is published per session.
func (k EventKind) IsTerminal() bool {
	switch k {
	case EventCompleted, EventFailed, EventStopped:
		return true
	default:
		return false
	}
}

// LifecycleEvent is one entry on the notification bus. Fields beyond Kind,
// SessionID, and AgentID are populated per kind: Mode on started, Result and
// DurationMs on completed, Error on failed.
type LifecycleEvent struct {
	Kind       EventKind `json:"kind"`
	SessionID  string    `json:"session_id"`
	AgentID    string    `json:"agent_id"`
	Mode       AgentMode `json:"mode,omitempty"`
	Result     string    `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StartedEvent builds the lifecycle event published when a session is admitted.
func StartedEvent(sessionID, agentID string, mode AgentMode) LifecycleEvent {
	return LifecycleEvent{
		Kind:      EventStarted,
		SessionID: sessionID,
		AgentID:   agentID,
		Mode:      mode,
		Timestamp: time.Now(),
	}
}

// TerminalEvent builds the terminal lifecycle event for a finished session.
func TerminalEvent(session *ExecutionSession) LifecycleEvent {
	event := LifecycleEvent{
		SessionID: session.ID,
		AgentID:   session.AgentID,
		Timestamp: time.Now(),
	}

	switch session.Status {
	case SessionStatusCompleted:
		event.Kind = EventCompleted
		event.Result = session.Result
		event.DurationMs = session.Duration().Milliseconds()
	case SessionStatusFailed:
		event.Kind = EventFailed
		event.Error = session.Error
	default:
		event.Kind = EventStopped
	}

	return event
}
