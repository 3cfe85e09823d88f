package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/pkg/errors"
)

type TWSEProviderTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestTWSEProviderSuite(t *testing.T) {
	suite.Run(t, new(TWSEProviderTestSuite))
}

func (suite *TWSEProviderTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

// quoteServer serves canned getStockInfo.jsp responses keyed by ex_ch.
func (suite *TWSEProviderTestSuite) quoteServer(entries map[string]map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("/getStockInfo.jsp", r.URL.Path)

		var msgArray []map[string]string
		if entry, ok := entries[r.URL.Query().Get("ex_ch")]; ok {
			msgArray = append(msgArray, entry)
		}

		w.Header().Set("Content-Type", "application/json")
		suite.Require().NoError(json.NewEncoder(w).Encode(map[string]any{"msgArray": msgArray}))
	}))
}

func (suite *TWSEProviderTestSuite) TestGetQuote() {
	server := suite.quoteServer(map[string]map[string]string{
		"tse_2330.tw": {
			"c":     "2330",
			"n":     "台積電",
			"z":     "1085.00",
			"y":     "1080.00",
			"tlong": "1756090800000",
		},
	})
	defer server.Close()

	provider := NewTWSEProvider(server.URL, suite.logger)

	quote, err := provider.GetQuote(context.Background(), "2330")
	suite.Require().NoError(err)

	suite.Equal("2330", quote.Ticker)
	suite.True(decimal.RequireFromString("1085.00").Equal(quote.Price))
	suite.True(decimal.RequireFromString("1080.00").Equal(quote.PrevClose))
}

func (suite *TWSEProviderTestSuite) TestGetQuoteUnknownTicker() {
	server := suite.quoteServer(map[string]map[string]string{})
	defer server.Close()

	provider := NewTWSEProvider(server.URL, suite.logger)

	_, err := provider.GetQuote(context.Background(), "0000")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTickerNotFound))
}

func (suite *TWSEProviderTestSuite) TestGetQuoteUnparseablePrice() {
	// TWSE reports "-" for instruments with no trades yet.
	server := suite.quoteServer(map[string]map[string]string{
		"tse_9999.tw": {"c": "9999", "n": "untraded", "z": "-", "y": "50.00"},
	})
	defer server.Close()

	provider := NewTWSEProvider(server.URL, suite.logger)

	_, err := provider.GetQuote(context.Background(), "9999")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *TWSEProviderTestSuite) TestGetInstrumentBoardLot() {
	server := suite.quoteServer(map[string]map[string]string{
		"tse_2330.tw": {"c": "2330", "n": "台積電", "z": "1085.00", "y": "1080.00"},
	})
	defer server.Close()

	provider := NewTWSEProvider(server.URL, suite.logger)

	info, err := provider.GetInstrument(context.Background(), "2330")
	suite.Require().NoError(err)

	suite.Equal(int64(1000), info.LotSize)
	suite.Equal("TWD", info.Currency)
}

func (suite *TWSEProviderTestSuite) TestGetQuoteHonorsCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := suite.quoteServer(map[string]map[string]string{})
	defer server.Close()

	provider := NewTWSEProvider(server.URL, suite.logger)

	_, err := provider.GetQuote(ctx, "2330")
	suite.Require().Error(err)
}

func (suite *TWSEProviderTestSuite) TestMarketStatusReportsTradingDay() {
	provider := NewTWSEProvider("http://unused", suite.logger)

	status, err := provider.GetMarketStatus(context.Background())
	suite.Require().NoError(err)
	suite.NotEmpty(status.TradingDay)
	suite.Contains([]string{"OPEN", "CLOSED"}, string(status.State))
}
