package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the current market price for one instrument.
type Quote struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Timestamp time.Time       `json:"timestamp"`
}

// SessionState describes whether the exchange is currently accepting orders.
type SessionState string

const (
	SessionStateOpen   SessionState = "OPEN"
	SessionStateClosed SessionState = "CLOSED"
)

// MarketStatus is the exchange trading-day and session status.
type MarketStatus struct {
	State SessionState `json:"state"`
	// TradingDay is the current or next trading day in YYYY-MM-DD form.
	TradingDay string `json:"trading_day"`
}

// InstrumentInfo is exchange metadata for one ticker.
type InstrumentInfo struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	// LotSize is the exchange's minimum board lot. Trade quantities must be a
	// positive integer multiple of it.
	LotSize int64 `json:"lot_size"`
}
