package fee

import (
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
)

var (
	commissionRate = decimal.NewFromFloat(0.001425)
	minCommission  = decimal.NewFromInt(20)
	// Securities transaction tax, charged on the sell side only.
	sellTaxRate = decimal.NewFromFloat(0.003)
)

// TaiwanBrokerFee implements the standard TWSE retail fee schedule:
// 0.1425% commission with a NT$20 minimum on both sides, plus 0.3%
// securities transaction tax on sells.
type TaiwanBrokerFee struct{}

// NewTaiwanBrokerFee creates a new Taiwan broker fee schedule.
func NewTaiwanBrokerFee() Schedule {
	return &TaiwanBrokerFee{}
}

// Calculate returns the total fee for the trade, rounded to cents.
func (f *TaiwanBrokerFee) Calculate(action types.TradeAction, amount decimal.Decimal) decimal.Decimal {
	commission := amount.Mul(commissionRate)
	if commission.LessThan(minCommission) {
		commission = minCommission
	}

	if action == types.TradeActionSell {
		commission = commission.Add(amount.Mul(sellTaxRate))
	}

	return commission.Round(2)
}
