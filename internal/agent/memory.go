package agent

import (
	"context"

	"github.com/sacahan/casualtrader/internal/store"
)

// Memory is the per-agent knowledge store handle provisioned into a bundle.
// Notes persist across sessions; the handle itself is scoped to one bundle.
type Memory struct {
	agentID string
	store   *store.Store
}

// NewMemory creates a knowledge store handle for one agent.
func NewMemory(agentID string, st *store.Store) *Memory {
	return &Memory{
		agentID: agentID,
		store:   st,
	}
}

// Save appends a note to the agent's knowledge store.
func (m *Memory) Save(ctx context.Context, content string) error {
	return m.store.AppendMemory(ctx, m.agentID, content)
}

// Recall returns the agent's most recent notes, newest first.
func (m *Memory) Recall(ctx context.Context, limit uint64) ([]string, error) {
	return m.store.ListMemory(ctx, m.agentID, limit)
}
