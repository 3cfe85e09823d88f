package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/pkg/errors"
)

// TradeAction is the direction of a trade intent.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// TradeIntent is a requested buy or sell action produced by the decision
// engine. Applying the same intent twice produces two trades; intents carry no
// dedupe key and are inherently non-idempotent.
type TradeIntent struct {
	Ticker   string      `yaml:"ticker" json:"ticker" validate:"required"`
	Action   TradeAction `yaml:"action" json:"action" validate:"required,oneof=BUY SELL"`
	Quantity int64       `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// Price is the requested execution price. If absent, the executor resolves
	// the price from the market data provider at apply time.
	Price  optional.Option[decimal.Decimal] `yaml:"price" json:"price"`
	Reason string                           `yaml:"reason" json:"reason"`
}

// Validate validates the TradeIntent struct. Lot-size conformance is checked
// by the executor because it depends on the instrument.
func (ti *TradeIntent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(ti); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidIntent, "invalid trade intent", err)
	}

	if ti.Price.IsSome() && !ti.Price.Unwrap().IsPositive() {
		return errors.New(errors.ErrCodeInvalidIntent, "trade intent price must be positive")
	}

	return nil
}

// TradeRecord is the durable, immutable result of successfully applying a
// TradeIntent. It is created only inside a successful atomic apply and never
// partially written.
type TradeRecord struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	AgentID     string          `json:"agent_id"`
	Ticker      string          `json:"ticker"`
	Action      TradeAction     `json:"action"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Commission  decimal.Decimal `json:"commission"`
	Reason      string          `json:"reason"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// Holding is the current position of one agent in one instrument. A holding
// row exists only while quantity is positive; full liquidation removes it.
type Holding struct {
	AgentID  string          `json:"agent_id"`
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
	// UpdatedAt is the time of the last trade that touched this holding.
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketValue returns quantity * price.
func (h *Holding) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(h.Quantity))
}

// CostBasis returns quantity * average cost.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.AvgCost.Mul(decimal.NewFromInt(h.Quantity))
}

// PerformanceSnapshot is the per-agent daily aggregate, updated only as part
// of an atomic trade apply.
type PerformanceSnapshot struct {
	AgentID string `json:"agent_id"`
	// Date is the snapshot day in YYYY-MM-DD form.
	Date          string          `json:"date"`
	Cash          decimal.Decimal `json:"cash"`
	MarketValue   decimal.Decimal `json:"market_value"`
	TotalValue    decimal.Decimal `json:"total_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	TradeCount    int             `json:"trade_count"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
