// Package config loads the service configuration from YAML with environment
// overrides for secrets.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/trade/fee"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Market   MarketConfig   `yaml:"market"`
	Trading  TradingConfig  `yaml:"trading"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address" validate:"required"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path is the database file location. Empty selects an in-memory database.
	Path string `yaml:"path"`
}

// MarketConfig configures the market data provider.
type MarketConfig struct {
	Provider      market.ProviderType `yaml:"provider" validate:"required"`
	PolygonAPIKey string              `yaml:"polygon_api_key"`
	// BaseURL overrides the provider endpoint. Used by tests.
	BaseURL string `yaml:"base_url"`
}

// TradingConfig configures trade execution and the session runner.
type TradingConfig struct {
	Broker fee.Broker `yaml:"broker" validate:"required"`
	// RunTimeout bounds one agent execution. Zero disables the deadline.
	RunTimeout time.Duration `yaml:"run_timeout"`
	// Watchlist is the ticker set the scripted engine analyzes.
	Watchlist []string `yaml:"watchlist"`
	// EventBufferSize is the per-subscriber notification queue depth.
	EventBufferSize int `yaml:"event_buffer_size"`
}

// UnmarshalYAML implements custom unmarshaling so run_timeout accepts duration
// strings like "30s" or "10m". Absent keys keep their current values.
func (t *TradingConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		Broker          fee.Broker `yaml:"broker"`
		RunTimeout      string     `yaml:"run_timeout"`
		Watchlist       []string   `yaml:"watchlist"`
		EventBufferSize int        `yaml:"event_buffer_size"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	if config.Broker != "" {
		t.Broker = config.Broker
	}

	if config.RunTimeout != "" {
		timeout, err := time.ParseDuration(config.RunTimeout)
		if err != nil {
			return err
		}

		t.RunTimeout = timeout
	}

	if len(config.Watchlist) > 0 {
		t.Watchlist = config.Watchlist
	}

	if config.EventBufferSize > 0 {
		t.EventBufferSize = config.EventBufferSize
	}

	return nil
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Address: ":8080"},
		Database: DatabaseConfig{Path: "casualtrader.db"},
		Market:   MarketConfig{Provider: market.ProviderTWSE},
		Trading: TradingConfig{
			Broker:     fee.BrokerTaiwan,
			RunTimeout: 10 * time.Minute,
			Watchlist:  []string{"2330", "2317", "2454"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration file, applies environment overrides, and
// validates the result. An empty path loads defaults plus overrides.
func Load(path string) (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural and semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	switch c.Market.Provider {
	case market.ProviderPolygon:
		if c.Market.PolygonAPIKey == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "polygon provider requires an api key")
		}
	case market.ProviderTWSE:
	default:
		return errors.Newf(errors.ErrCodeInvalidProvider, "unknown market provider %q", c.Market.Provider)
	}

	validBroker := false

	for _, broker := range fee.AllBrokers {
		if c.Trading.Broker == broker {
			validBroker = true

			break
		}
	}

	if !validBroker {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q", c.Trading.Broker)
	}

	return nil
}

// applyEnv overlays environment variables onto the loaded file. Secrets are
// env-only so they never land in a config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Market.PolygonAPIKey = v
	}

	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		c.Market.Provider = market.ProviderType(strings.ToLower(v))
	}

	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		c.Server.Address = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
