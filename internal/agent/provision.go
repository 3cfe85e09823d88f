package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/trade"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Provisioner builds the mode-specific resource bundle for a single
// execution. Every Provision call constructs fresh handles; nothing is cached
// or reused across sessions, because handle lifetimes are tied to the
// goroutine that runs the session.
type Provisioner struct {
	store    *store.Store
	market   market.Provider
	executor *trade.Executor
	// newsBaseURL overrides the news endpoint for bundles. Used by tests.
	newsBaseURL string
	logger      *logger.Logger
}

// NewProvisioner creates a resource provisioner.
func NewProvisioner(st *store.Store, provider market.Provider, executor *trade.Executor, log *logger.Logger) *Provisioner {
	return &Provisioner{
		store:    st,
		market:   provider,
		executor: executor,
		logger:   log,
	}
}

// SetNewsBaseURL overrides the news search endpoint for provisioned bundles.
func (p *Provisioner) SetNewsBaseURL(baseURL string) {
	p.newsBaseURL = baseURL
}

// Provision builds the resource bundle for one session. Capabilities required
// by the mode fail the whole provisioning; optional sub-analysis capabilities
// degrade with a warning instead.
//
// Mode matrix:
//
//	                      TRADING  REBALANCING  OBSERVATION
//	market data           yes      yes          yes
//	knowledge store       yes      yes          yes
//	web/news search       yes      no           yes
//	trade-apply           yes      adjust-only  no
//	sub-analysis          all 4    tech+risk    all 4
func (p *Provisioner) Provision(ctx context.Context, sessionID, agentID string, mode types.AgentMode) (*Bundle, error) {
	if !mode.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidMode, "unknown agent mode %q", mode)
	}

	// Required in every mode.
	if p.market == nil {
		return nil, errors.New(errors.ErrCodeCapabilityRequired, "market data capability is required")
	}

	if p.store == nil {
		return nil, errors.New(errors.ErrCodeCapabilityRequired, "knowledge store capability is required")
	}

	bundle := &Bundle{
		SessionID: sessionID,
		AgentID:   agentID,
		Mode:      mode,
		Market:    p.market,
		Memory:    NewMemory(agentID, p.store),
	}

	if mode != types.ModeRebalancing {
		search := NewNewsSearcher(p.newsBaseURL)
		bundle.Search = search
		bundle.closers = append(bundle.closers, search.Close)
	}

	if err := p.provisionTrade(bundle, agentID, mode); err != nil {
		bundle.Release()

		return nil, err
	}

	p.provisionAnalyzers(bundle, agentID, mode)

	return bundle, nil
}

// Release tears down the bundle. Idempotent; safe to call multiple times.
func (p *Provisioner) Release(bundle *Bundle) {
	if bundle == nil {
		return
	}

	bundle.Release()
}

func (p *Provisioner) provisionTrade(bundle *Bundle, agentID string, mode types.AgentMode) error {
	if mode == types.ModeObservation {
		return nil
	}

	// Trade-apply is required for the trading modes.
	if p.executor == nil {
		return errors.Newf(errors.ErrCodeCapabilityRequired, "trade-apply capability is required for mode %s", mode)
	}

	executor := p.executor
	sessionID := bundle.SessionID

	apply := func(ctx context.Context, intent types.TradeIntent) (*types.TradeRecord, error) {
		return executor.Apply(ctx, sessionID, agentID, intent)
	}

	if mode == types.ModeRebalancing {
		// Rebalancing adjusts existing positions only; buys into new tickers
		// are rejected.
		inner := apply
		apply = func(ctx context.Context, intent types.TradeIntent) (*types.TradeRecord, error) {
			if intent.Action == types.TradeActionBuy {
				held, err := p.holdsTicker(ctx, agentID, intent.Ticker)
				if err != nil {
					return nil, err
				}

				if !held {
					return nil, errors.Newf(errors.ErrCodeInvalidIntent,
						"rebalancing may not open a new position in %s", intent.Ticker)
				}
			}

			return inner(ctx, intent)
		}
	}

	bundle.trade = apply

	return nil
}

func (p *Provisioner) provisionAnalyzers(bundle *Bundle, agentID string, mode types.AgentMode) {
	type analyzerInit struct {
		name string
		init func() (Analyzer, error)
	}

	inits := []analyzerInit{
		{AnalyzerTechnical, func() (Analyzer, error) { return NewTechnicalAnalyzer(p.market) }},
		{AnalyzerRisk, func() (Analyzer, error) { return NewRiskAnalyzer(agentID, p.store) }},
	}

	if mode != types.ModeRebalancing {
		inits = append(inits,
			analyzerInit{AnalyzerFundamental, func() (Analyzer, error) { return NewFundamentalAnalyzer(p.market) }},
			analyzerInit{AnalyzerSentiment, func() (Analyzer, error) { return NewSentimentAnalyzer(bundle.Search) }},
		)
	}

	for _, entry := range inits {
		analyzer, err := entry.init()
		if err != nil {
			// Sub-analysis is optional: degrade instead of aborting the run.
			p.logger.Warn("analyzer unavailable for this session",
				zap.String("analyzer", entry.name),
				zap.String("session_id", bundle.SessionID),
				zap.Error(err),
			)

			continue
		}

		bundle.Analyzers = append(bundle.Analyzers, analyzer)
	}
}

func (p *Provisioner) holdsTicker(ctx context.Context, agentID, ticker string) (bool, error) {
	holdings, err := p.store.GetHoldings(ctx, agentID)
	if err != nil {
		return false, err
	}

	for _, holding := range holdings {
		if holding.Ticker == ticker {
			return true, nil
		}
	}

	return false, nil
}
