// Package trade implements the atomic trade executor: one trade intent is
// applied as quote resolution followed by a single all-or-nothing database
// transaction over the agent's financial rows.
package trade

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/trade/fee"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Executor applies trade intents against an agent's portfolio. Apply is not
// idempotent: every successful call produces a new trade record and mutates
// balances, so callers that time out must not blindly re-invoke with the same
// intent.
type Executor struct {
	store  *store.Store
	market market.Provider
	fees   fee.Schedule
	logger *logger.Logger
}

// NewExecutor creates a trade executor.
func NewExecutor(st *store.Store, provider market.Provider, fees fee.Schedule, log *logger.Logger) *Executor {
	return &Executor{
		store:  st,
		market: provider,
		fees:   fees,
		logger: log,
	}
}

// Apply validates and applies one trade intent for the agent, returning the
// durable trade record. On any failure every write is rolled back; the
// agent's cash, holdings, and performance rows are left untouched and no
// trade record exists for the call.
func (e *Executor) Apply(ctx context.Context, sessionID, agentID string, intent types.TradeIntent) (*types.TradeRecord, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	instrument, err := e.market.GetInstrument(ctx, intent.Ticker)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketUnavailable, err, "failed to resolve instrument %s", intent.Ticker)
	}

	if instrument.LotSize > 0 && intent.Quantity%instrument.LotSize != 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidQuantity,
			"quantity %d is not a multiple of the board lot %d", intent.Quantity, instrument.LotSize)
	}

	// Resolve the execution price before opening the transaction so no
	// external call happens inside the transaction boundary.
	price, err := e.resolvePrice(ctx, intent)
	if err != nil {
		return nil, err
	}

	quantity := decimal.NewFromInt(intent.Quantity)
	totalAmount := price.Mul(quantity)
	commission := e.fees.Calculate(intent.Action, totalAmount)

	record := &types.TradeRecord{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		AgentID:     agentID,
		Ticker:      intent.Ticker,
		Action:      intent.Action,
		Quantity:    intent.Quantity,
		Price:       price,
		TotalAmount: totalAmount,
		Commission:  commission,
		Reason:      intent.Reason,
		ExecutedAt:  time.Now(),
	}

	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		agentOpt, err := e.store.GetAgentTx(tx, agentID)
		if err != nil {
			return err
		}

		if agentOpt.IsNone() {
			return errors.Newf(errors.ErrCodeAgentNotFound, "agent %s not found", agentID)
		}

		agent := agentOpt.Unwrap()

		newCash, err := e.applyToPortfolio(tx, &agent, record)
		if err != nil {
			return err
		}

		if err := e.store.InsertTradeTx(tx, record); err != nil {
			return err
		}

		if err := e.store.UpdateAgentCashTx(tx, agentID, newCash); err != nil {
			return err
		}

		return e.updatePerformance(tx, agentID, newCash, record)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("trade applied",
		zap.String("agent_id", agentID),
		zap.String("session_id", sessionID),
		zap.String("ticker", record.Ticker),
		zap.String("action", string(record.Action)),
		zap.Int64("quantity", record.Quantity),
		zap.String("price", record.Price.String()),
		zap.String("commission", record.Commission.String()),
	)

	return record, nil
}

func (e *Executor) resolvePrice(ctx context.Context, intent types.TradeIntent) (decimal.Decimal, error) {
	if intent.Price.IsSome() {
		return intent.Price.Unwrap(), nil
	}

	quote, err := e.market.GetQuote(ctx, intent.Ticker)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeMarketUnavailable, err, "failed to resolve price for %s", intent.Ticker)
	}

	if !quote.Price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeMarketUnavailable, "no tradable price for %s", intent.Ticker)
	}

	return quote.Price, nil
}

// applyToPortfolio checks the business rules and writes the holding mutation,
// returning the agent's new cash balance. Runs inside the apply transaction.
func (e *Executor) applyToPortfolio(tx *sql.Tx, agent *types.Agent, record *types.TradeRecord) (decimal.Decimal, error) {
	holdingOpt, err := e.store.GetHoldingTx(tx, agent.ID, record.Ticker)
	if err != nil {
		return decimal.Zero, err
	}

	switch record.Action {
	case types.TradeActionBuy:
		required := record.TotalAmount.Add(record.Commission)
		if agent.CashBalance.LessThan(required) {
			return decimal.Zero, errors.Newf(errors.ErrCodeInsufficientFunds,
				"need %s but only %s available", required.String(), agent.CashBalance.String())
		}

		if err := e.applyBuy(tx, agent.ID, holdingOpt.Unwrap(), record); err != nil {
			return decimal.Zero, err
		}

		return agent.CashBalance.Sub(required), nil

	case types.TradeActionSell:
		if holdingOpt.IsNone() {
			return decimal.Zero, errors.Newf(errors.ErrCodeInsufficientHoldings,
				"no position in %s", record.Ticker)
		}

		holding := holdingOpt.Unwrap()
		if holding.Quantity < record.Quantity {
			return decimal.Zero, errors.Newf(errors.ErrCodeInsufficientHoldings,
				"hold %d but tried to sell %d", holding.Quantity, record.Quantity)
		}

		if err := e.applySell(tx, agent.ID, holding, record); err != nil {
			return decimal.Zero, err
		}

		return agent.CashBalance.Add(record.TotalAmount.Sub(record.Commission)), nil

	default:
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidAction, "unknown trade action %q", record.Action)
	}
}

// applyBuy opens or increases a position using weighted average cost:
// newAvgCost = (oldQty*oldAvgCost + buyQty*buyPrice) / (oldQty+buyQty).
func (e *Executor) applyBuy(tx *sql.Tx, agentID string, holding types.Holding, record *types.TradeRecord) error {
	oldQty := decimal.NewFromInt(holding.Quantity)
	buyQty := decimal.NewFromInt(record.Quantity)
	newQty := oldQty.Add(buyQty)

	oldCost := holding.AvgCost.Mul(oldQty)
	buyCost := record.Price.Mul(buyQty)
	newAvgCost := oldCost.Add(buyCost).Div(newQty)

	return e.store.UpsertHoldingTx(tx, types.Holding{
		AgentID:   agentID,
		Ticker:    record.Ticker,
		Quantity:  holding.Quantity + record.Quantity,
		AvgCost:   newAvgCost,
		UpdatedAt: record.ExecutedAt,
	})
}

// applySell reduces the position. Average cost is unchanged; a full
// liquidation removes the holding row rather than leaving a zero-quantity row.
func (e *Executor) applySell(tx *sql.Tx, agentID string, holding types.Holding, record *types.TradeRecord) error {
	remaining := holding.Quantity - record.Quantity
	if remaining == 0 {
		return e.store.DeleteHoldingTx(tx, agentID, record.Ticker)
	}

	return e.store.UpsertHoldingTx(tx, types.Holding{
		AgentID:   agentID,
		Ticker:    record.Ticker,
		Quantity:  remaining,
		AvgCost:   holding.AvgCost,
		UpdatedAt: record.ExecutedAt,
	})
}

// updatePerformance recomputes today's snapshot inside the apply transaction.
// Positions are valued at cost basis, with the traded instrument at its
// execution price, so the snapshot needs no external calls inside the
// transaction boundary.
func (e *Executor) updatePerformance(tx *sql.Tx, agentID string, cash decimal.Decimal, record *types.TradeRecord) error {
	holdings, err := e.store.GetHoldingsTx(tx, agentID)
	if err != nil {
		return err
	}

	marketValue := decimal.Zero
	costBasis := decimal.Zero

	for _, holding := range holdings {
		costBasis = costBasis.Add(holding.CostBasis())

		if holding.Ticker == record.Ticker {
			marketValue = marketValue.Add(holding.MarketValue(record.Price))
		} else {
			marketValue = marketValue.Add(holding.CostBasis())
		}
	}

	date := record.ExecutedAt.Format("2006-01-02")

	tradeCount, err := e.store.CountTradesOnDateTx(tx, agentID, date)
	if err != nil {
		return err
	}

	return e.store.UpsertPerformanceTx(tx, types.PerformanceSnapshot{
		AgentID:       agentID,
		Date:          date,
		Cash:          cash,
		MarketValue:   marketValue,
		TotalValue:    cash.Add(marketValue),
		UnrealizedPnL: marketValue.Sub(costBasis),
		TradeCount:    tradeCount,
	})
}
