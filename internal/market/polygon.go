package market

import (
	"context"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// usLotSize is the board lot for US equities.
const usLotSize = 1

// PolygonProvider serves quotes for US equities from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
	logger *logger.Logger
}

// NewPolygonProvider creates a provider backed by Polygon. The API key is
// required.
func NewPolygonProvider(apiKey string, log *logger.Logger) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key is required")
	}

	return &PolygonProvider{
		client: polygon.New(apiKey),
		logger: log,
	}, nil
}

// GetQuote implements Provider.
func (p *PolygonProvider) GetQuote(ctx context.Context, ticker string) (types.Quote, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	last, err := p.client.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: ticker})
	if err != nil {
		return types.Quote{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch last trade for %s", ticker)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	prev, err := p.client.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{Ticker: ticker})
	if err != nil {
		return types.Quote{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch previous close for %s", ticker)
	}

	prevClose := decimal.Zero
	if len(prev.Results) > 0 {
		prevClose = decimal.NewFromFloat(prev.Results[0].Close)
	}

	return types.Quote{
		Ticker:    ticker,
		Price:     decimal.NewFromFloat(last.Results.Price),
		PrevClose: prevClose,
		Timestamp: time.Time(last.Results.ParticipantTimestamp),
	}, nil
}

// GetMarketStatus implements Provider.
func (p *PolygonProvider) GetMarketStatus(ctx context.Context) (types.MarketStatus, error) {
	status, err := p.client.GetMarketStatus(ctx)
	if err != nil {
		return types.MarketStatus{}, errors.Wrap(errors.ErrCodeMarketUnavailable, "failed to fetch market status", err)
	}

	state := types.SessionStateClosed
	if strings.EqualFold(status.Market, "open") {
		state = types.SessionStateOpen
	}

	return types.MarketStatus{
		State:      state,
		TradingDay: time.Time(status.ServerTime).Format("2006-01-02"),
	}, nil
}

// GetInstrument implements Provider.
func (p *PolygonProvider) GetInstrument(ctx context.Context, ticker string) (types.InstrumentInfo, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	details, err := p.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{Ticker: ticker})
	if err != nil {
		return types.InstrumentInfo{}, errors.Wrapf(errors.ErrCodeTickerNotFound, err, "failed to fetch ticker details for %s", ticker)
	}

	return types.InstrumentInfo{
		Ticker:   ticker,
		Name:     details.Results.Name,
		Currency: strings.ToUpper(details.Results.CurrencyName),
		LotSize:  usLotSize,
	}, nil
}
