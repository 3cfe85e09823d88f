package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Analyzer names. The provisioner selects a subset per mode.
const (
	AnalyzerFundamental = "fundamental"
	AnalyzerTechnical   = "technical"
	AnalyzerSentiment   = "sentiment"
	AnalyzerRisk        = "risk"
)

// Analyzer is one sub-analysis capability provisioned into a bundle.
type Analyzer interface {
	Name() string
	// Analyze produces a short human-readable assessment of the ticker.
	Analyze(ctx context.Context, ticker string) (string, error)
}

// FundamentalAnalyzer reports instrument metadata as fundamental context.
type FundamentalAnalyzer struct {
	market market.Provider
}

// NewFundamentalAnalyzer creates a fundamental analyzer. Fails when no
// market data capability is available.
func NewFundamentalAnalyzer(provider market.Provider) (*FundamentalAnalyzer, error) {
	if provider == nil {
		return nil, errors.New(errors.ErrCodeProvisionFailed, "fundamental analyzer requires market data")
	}

	return &FundamentalAnalyzer{market: provider}, nil
}

func (a *FundamentalAnalyzer) Name() string { return AnalyzerFundamental }

func (a *FundamentalAnalyzer) Analyze(ctx context.Context, ticker string) (string, error) {
	info, err := a.market.GetInstrument(ctx, ticker)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s (%s): trades in %s, board lot %d", info.Name, info.Ticker, info.Currency, info.LotSize), nil
}

// TechnicalAnalyzer compares the current price against the previous close.
type TechnicalAnalyzer struct {
	market market.Provider
}

// NewTechnicalAnalyzer creates a technical analyzer.
func NewTechnicalAnalyzer(provider market.Provider) (*TechnicalAnalyzer, error) {
	if provider == nil {
		return nil, errors.New(errors.ErrCodeProvisionFailed, "technical analyzer requires market data")
	}

	return &TechnicalAnalyzer{market: provider}, nil
}

func (a *TechnicalAnalyzer) Name() string { return AnalyzerTechnical }

func (a *TechnicalAnalyzer) Analyze(ctx context.Context, ticker string) (string, error) {
	quote, err := a.market.GetQuote(ctx, ticker)
	if err != nil {
		return "", err
	}

	if !quote.PrevClose.IsPositive() {
		return fmt.Sprintf("%s trades at %s, no previous close available", ticker, quote.Price.String()), nil
	}

	change := quote.Price.Sub(quote.PrevClose).
		Div(quote.PrevClose).
		Mul(decimal.NewFromInt(100)).
		Round(2)

	direction := "up"
	if change.IsNegative() {
		direction = "down"
	}

	return fmt.Sprintf("%s trades at %s, %s %s%% vs previous close %s",
		ticker, quote.Price.String(), direction, change.Abs().String(), quote.PrevClose.String()), nil
}

// SentimentAnalyzer summarizes recent news headlines for the ticker.
type SentimentAnalyzer struct {
	search *NewsSearcher
}

// NewSentimentAnalyzer creates a sentiment analyzer. Fails when no search
// capability is available; the provisioner degrades gracefully in that case.
func NewSentimentAnalyzer(search *NewsSearcher) (*SentimentAnalyzer, error) {
	if search == nil {
		return nil, errors.New(errors.ErrCodeProvisionFailed, "sentiment analyzer requires web search")
	}

	return &SentimentAnalyzer{search: search}, nil
}

func (a *SentimentAnalyzer) Name() string { return AnalyzerSentiment }

func (a *SentimentAnalyzer) Analyze(ctx context.Context, ticker string) (string, error) {
	headlines, err := a.search.Search(ctx, ticker)
	if err != nil {
		return "", err
	}

	if len(headlines) == 0 {
		return fmt.Sprintf("no recent news for %s", ticker), nil
	}

	return fmt.Sprintf("recent news for %s:\n%s", ticker, strings.Join(headlines, "\n")), nil
}

// RiskAnalyzer reports the agent's position concentration in the ticker.
type RiskAnalyzer struct {
	agentID string
	store   *store.Store
}

// NewRiskAnalyzer creates a risk analyzer bound to one agent's holdings.
func NewRiskAnalyzer(agentID string, st *store.Store) (*RiskAnalyzer, error) {
	if st == nil {
		return nil, errors.New(errors.ErrCodeProvisionFailed, "risk analyzer requires the persistence store")
	}

	return &RiskAnalyzer{agentID: agentID, store: st}, nil
}

func (a *RiskAnalyzer) Name() string { return AnalyzerRisk }

func (a *RiskAnalyzer) Analyze(ctx context.Context, ticker string) (string, error) {
	holdings, err := a.store.GetHoldings(ctx, a.agentID)
	if err != nil {
		return "", err
	}

	totalBasis := decimal.Zero
	tickerBasis := decimal.Zero

	for _, holding := range holdings {
		basis := holding.CostBasis()
		totalBasis = totalBasis.Add(basis)

		if holding.Ticker == ticker {
			tickerBasis = basis
		}
	}

	if !totalBasis.IsPositive() {
		return fmt.Sprintf("no open positions; %s would be a new exposure", ticker), nil
	}

	concentration := tickerBasis.Div(totalBasis).Mul(decimal.NewFromInt(100)).Round(1)

	return fmt.Sprintf("%s is %s%% of the portfolio cost basis across %d positions",
		ticker, concentration.String(), len(holdings)), nil
}
