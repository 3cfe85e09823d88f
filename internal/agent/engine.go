// Package agent defines the decision engine contract and the per-execution
// resource provisioning that backs it.
package agent

import (
	"context"

	"github.com/sacahan/casualtrader/internal/types"
)

// Task is the mode-specific work description handed to the decision engine
// for one session.
type Task struct {
	AgentID string
	Mode    types.AgentMode
	// Instructions is the agent's standing strategy prompt.
	Instructions string
}

// Outcome is what a decision engine produced for one session: free-form
// analysis plus zero or more trade intents. The coordinator forwards the
// intents to the trade executor one at a time, in the order returned.
type Outcome struct {
	Summary string
	Intents []types.TradeIntent
}

// DecisionEngine is the opaque capability that runs one analysis/trading
// cycle against a provisioned resource bundle. Implementations must honor
// context cancellation at every suspension point: a cancelled context must
// unwind promptly so the coordinator's cleanup can run.
//
// The bundle is owned by the calling session; engines must not retain it
// beyond the Execute call.
type DecisionEngine interface {
	Execute(ctx context.Context, task Task, bundle *Bundle) (*Outcome, error)
}
