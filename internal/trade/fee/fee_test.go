package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sacahan/casualtrader/internal/types"
)

type FeeTestSuite struct {
	suite.Suite
}

func TestFeeSuite(t *testing.T) {
	suite.Run(t, new(FeeTestSuite))
}

func (suite *FeeTestSuite) TestTaiwanBrokerFee() {
	schedule := NewTaiwanBrokerFee()
	suite.NotNil(schedule)

	tests := []struct {
		name     string
		action   types.TradeAction
		amount   string
		expected string
	}{
		{"buy below minimum", types.TradeActionBuy, "1000", "20"},           // 1.425 < 20
		{"buy at 25000", types.TradeActionBuy, "25000", "35.63"},            // 35.625 rounds up
		{"buy large amount", types.TradeActionBuy, "1000000", "1425"},       // 0.1425%
		{"sell below minimum", types.TradeActionSell, "1000", "23"},         // 20 + 3 tax
		{"sell at 25000", types.TradeActionSell, "25000", "110.63"},         // 35.63 + 75 tax
		{"sell large amount", types.TradeActionSell, "1000000", "4425"},     // 1425 + 3000 tax
		{"buy zero amount", types.TradeActionBuy, "0", "20"},                // minimum still applies
		{"buy at minimum threshold", types.TradeActionBuy, "14035.09", "20"}, // 0.001425 * 14035.09 ~= 20.0000
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			amount := decimal.RequireFromString(tc.amount)
			expected := decimal.RequireFromString(tc.expected)

			result := schedule.Calculate(tc.action, amount)
			suite.True(expected.Equal(result), "expected %s, got %s", expected, result)
		})
	}
}

func (suite *FeeTestSuite) TestZeroFee() {
	schedule := NewZeroFee()
	suite.NotNil(schedule)

	for _, action := range []types.TradeAction{types.TradeActionBuy, types.TradeActionSell} {
		result := schedule.Calculate(action, decimal.NewFromInt(100000))
		suite.True(result.IsZero(), "expected zero fee, got %s", result)
	}
}

func (suite *FeeTestSuite) TestGetFeeSchedule() {
	tests := []struct {
		name         string
		broker       Broker
		expectedType Schedule
	}{
		{"taiwan broker", BrokerTaiwan, &TaiwanBrokerFee{}},
		{"zero commission", BrokerZero, &ZeroFee{}},
		{"unknown broker falls back to zero", Broker("unknown"), &ZeroFee{}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			schedule := GetFeeSchedule(tc.broker)
			suite.IsType(tc.expectedType, schedule)
		})
	}
}
