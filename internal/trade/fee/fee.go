package fee

import (
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
)

// Schedule computes the commission for a trade of the given action and gross
// amount, returned rounded to cents.
type Schedule interface {
	Calculate(action types.TradeAction, amount decimal.Decimal) decimal.Decimal
}

type Broker string

const (
	BrokerTaiwan Broker = "taiwan_broker"
	BrokerZero   Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerTaiwan,
	BrokerZero,
}

func GetFeeSchedule(broker Broker) Schedule {
	switch broker {
	case BrokerTaiwan:
		return NewTaiwanBrokerFee()
	case BrokerZero:
		return NewZeroFee()
	default:
		return NewZeroFee()
	}
}
