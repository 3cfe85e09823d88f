package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// ScriptedEngine is a deterministic decision engine: it runs every
// provisioned analyzer over a fixed watchlist, records the findings in the
// agent's knowledge store, and emits a preconfigured list of trade intents.
// It backs the serve command when no external engine is wired in, and keeps
// the orchestration path exercisable without a model behind it.
type ScriptedEngine struct {
	watchlist []string
	intents   []types.TradeIntent
}

// NewScriptedEngine creates a scripted engine over the given watchlist.
// intents may be empty for analysis-only behavior.
func NewScriptedEngine(watchlist []string, intents []types.TradeIntent) *ScriptedEngine {
	return &ScriptedEngine{
		watchlist: watchlist,
		intents:   intents,
	}
}

// Execute implements DecisionEngine.
func (e *ScriptedEngine) Execute(ctx context.Context, task Task, bundle *Bundle) (*Outcome, error) {
	var report strings.Builder

	fmt.Fprintf(&report, "%s run for agent %s\n", task.Mode, task.AgentID)

	for _, ticker := range e.watchlist {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, analyzer := range bundle.Analyzers {
			finding, err := analyzer.Analyze(ctx, ticker)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}

				// A single failed analysis degrades the report, not the run.
				fmt.Fprintf(&report, "[%s] %s: unavailable\n", analyzer.Name(), ticker)

				continue
			}

			fmt.Fprintf(&report, "[%s] %s\n", analyzer.Name(), finding)
		}
	}

	summary := report.String()

	if err := bundle.Memory.Save(ctx, summary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, "failed to record findings", err)
	}

	intents := e.intents
	if !bundle.CanTrade() {
		intents = nil
	}

	return &Outcome{
		Summary: summary,
		Intents: intents,
	}, nil
}
