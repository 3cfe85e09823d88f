package fee

import (
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
)

// ZeroFee implements Schedule with zero commission.
type ZeroFee struct{}

// NewZeroFee creates a new zero commission fee schedule.
func NewZeroFee() Schedule {
	return &ZeroFee{}
}

// Calculate returns 0 for any trade.
func (f *ZeroFee) Calculate(action types.TradeAction, amount decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}
