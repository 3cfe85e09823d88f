package agent

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// TradeFunc applies one trade intent for the bundle's agent and returns the
// durable record.
type TradeFunc func(ctx context.Context, intent types.TradeIntent) (*types.TradeRecord, error)

// Bundle is the set of provisioned tool handles for exactly one session.
// Ownership is exclusive to that session: a bundle is never cached, never
// shared between sessions (even for the same agent), and is fully released
// before its session reaches a terminal state. Provisioning and release both
// happen in the goroutine that runs the session.
type Bundle struct {
	SessionID string
	AgentID   string
	Mode      types.AgentMode

	// Market is the market data query capability. Present in every mode.
	Market market.Provider
	// Memory is the agent's knowledge store. Present in every mode.
	Memory *Memory
	// Search is the external web/news search capability. Nil in REBALANCING.
	Search *NewsSearcher
	// Analyzers holds the sub-analysis capabilities provisioned for the mode.
	// Optional analyzers that failed to initialize are absent.
	Analyzers []Analyzer

	// trade is the trade-apply callable. Nil in OBSERVATION.
	trade TradeFunc

	released    atomic.Bool
	releaseOnce sync.Once
	closers     []func()
}

// CanTrade reports whether the bundle carries a trade-apply capability.
func (b *Bundle) CanTrade() bool {
	return b.trade != nil
}

// ApplyTrade forwards an intent to the trade-apply callable. Fails once the
// bundle has been released, and in modes without trade capability.
func (b *Bundle) ApplyTrade(ctx context.Context, intent types.TradeIntent) (*types.TradeRecord, error) {
	if b.released.Load() {
		return nil, errors.New(errors.ErrCodeBundleReleased, "resource bundle already released")
	}

	if b.trade == nil {
		return nil, errors.Newf(errors.ErrCodeInvalidAction, "mode %s has no trade capability", b.Mode)
	}

	return b.trade(ctx, intent)
}

// Analyzer returns the sub-analysis capability with the given name, or nil if
// it was not provisioned.
func (b *Bundle) Analyzer(name string) Analyzer {
	for _, analyzer := range b.Analyzers {
		if analyzer.Name() == name {
			return analyzer
		}
	}

	return nil
}

// Release tears down every handle in the bundle. Idempotent: the second and
// later calls are no-ops.
func (b *Bundle) Release() {
	b.releaseOnce.Do(func() {
		b.released.Store(true)

		for _, closer := range b.closers {
			closer()
		}

		b.trade = nil
		b.Search = nil
		b.Analyzers = nil
	})
}

// Released reports whether Release has run.
func (b *Bundle) Released() bool {
	return b.released.Load()
}
