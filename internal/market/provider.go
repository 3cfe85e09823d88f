// Package market implements the market data collaborators: quote, session
// status, and instrument metadata lookup against external providers.
package market

import (
	"context"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderTWSE    ProviderType = "twse"
)

// Provider is the external market data query capability. Implementations must
// honor context cancellation on every call; quotes are suspension points for
// the execution task and must unwind promptly when a run is stopped.
type Provider interface {
	// GetQuote returns the current price for a ticker.
	GetQuote(ctx context.Context, ticker string) (types.Quote, error)
	// GetMarketStatus returns the current trading-day and session status.
	GetMarketStatus(ctx context.Context) (types.MarketStatus, error)
	// GetInstrument returns exchange metadata for a ticker, including the
	// minimum board lot.
	GetInstrument(ctx context.Context, ticker string) (types.InstrumentInfo, error)
}

// ProviderConfig holds the settings for constructing a provider.
type ProviderConfig struct {
	Type ProviderType `yaml:"type" validate:"required,oneof=polygon twse"`
	// PolygonAPIKey is required for the polygon provider.
	PolygonAPIKey string `yaml:"polygon_api_key"`
	// BaseURL overrides the quote endpoint for the twse provider. Used by tests.
	BaseURL string `yaml:"base_url"`
}

// NewProvider creates a market data provider based on the provider type.
func NewProvider(config ProviderConfig, log *logger.Logger) (Provider, error) {
	switch config.Type {
	case ProviderPolygon:
		return NewPolygonProvider(config.PolygonAPIKey, log)
	case ProviderTWSE:
		return NewTWSEProvider(config.BaseURL, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", config.Type)
	}
}
