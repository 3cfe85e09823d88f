package market

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

const (
	defaultTWSEBaseURL = "https://mis.twse.com.tw/stock/api"
	// TWSE board lot.
	twseLotSize = 1000

	requestTimeout = 10 * time.Second
	maxRetryTime   = 30 * time.Second
)

// TWSEProvider serves quotes for Taiwan listed equities from the TWSE market
// information system. Transient fetch failures are retried with exponential
// backoff; context cancellation aborts the retry loop.
type TWSEProvider struct {
	client *resty.Client
	logger *logger.Logger
}

// NewTWSEProvider creates a provider backed by the TWSE quote endpoint.
// baseURL is optional and defaults to the public endpoint.
func NewTWSEProvider(baseURL string, log *logger.Logger) Provider {
	if baseURL == "" {
		baseURL = defaultTWSEBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")

	return &TWSEProvider{
		client: client,
		logger: log,
	}
}

type twseQuoteResponse struct {
	MsgArray []struct {
		// Ticker code.
		Code string `json:"c"`
		// Short name.
		Name string `json:"n"`
		// Last traded price.
		Last string `json:"z"`
		// Previous close.
		PrevClose string `json:"y"`
		// Trade timestamp in epoch milliseconds.
		TradeTime string `json:"tlong"`
	} `json:"msgArray"`
}

// GetQuote implements Provider.
func (p *TWSEProvider) GetQuote(ctx context.Context, ticker string) (types.Quote, error) {
	var payload twseQuoteResponse

	operation := func() error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParam("ex_ch", fmt.Sprintf("tse_%s.tw", ticker)).
			SetResult(&payload).
			Get("/getStockInfo.jsp")
		if err != nil {
			return err
		}

		if resp.IsError() {
			return fmt.Errorf("quote endpoint returned %s", resp.Status())
		}

		return nil
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(maxRetryTime)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return types.Quote{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch quote for %s", ticker)
	}

	if len(payload.MsgArray) == 0 {
		return types.Quote{}, errors.Newf(errors.ErrCodeTickerNotFound, "no quote data for ticker %s", ticker)
	}

	entry := payload.MsgArray[0]

	price, err := decimal.NewFromString(entry.Last)
	if err != nil {
		return types.Quote{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "unparseable price %q for %s", entry.Last, ticker)
	}

	prevClose, err := decimal.NewFromString(entry.PrevClose)
	if err != nil {
		prevClose = decimal.Zero
	}

	return types.Quote{
		Ticker:    ticker,
		Price:     price,
		PrevClose: prevClose,
		Timestamp: time.Now(),
	}, nil
}

// GetMarketStatus implements Provider. TWSE trades 09:00-13:30 Taipei time on
// weekdays; holidays are not modeled here.
func (p *TWSEProvider) GetMarketStatus(ctx context.Context) (types.MarketStatus, error) {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		return types.MarketStatus{}, errors.Wrap(errors.ErrCodeMarketUnavailable, "failed to load market timezone", err)
	}

	now := time.Now().In(loc)

	state := types.SessionStateClosed
	if isTradingDay(now) && withinTradingHours(now) {
		state = types.SessionStateOpen
	}

	return types.MarketStatus{
		State:      state,
		TradingDay: now.Format("2006-01-02"),
	}, nil
}

// GetInstrument implements Provider.
func (p *TWSEProvider) GetInstrument(ctx context.Context, ticker string) (types.InstrumentInfo, error) {
	quote, err := p.GetQuote(ctx, ticker)
	if err != nil {
		return types.InstrumentInfo{}, err
	}

	return types.InstrumentInfo{
		Ticker:   quote.Ticker,
		Name:     ticker,
		Currency: "TWD",
		LotSize:  twseLotSize,
	}, nil
}

func isTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func withinTradingHours(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()

	return minutes >= 9*60 && minutes <= 13*60+30
}
