package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/trade/fee"
	"github.com/sacahan/casualtrader/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.T().TempDir(), "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := Load("")
	suite.Require().NoError(err)

	suite.Equal(":8080", cfg.Server.Address)
	suite.Equal(market.ProviderTWSE, cfg.Market.Provider)
	suite.Equal(fee.BrokerTaiwan, cfg.Trading.Broker)
	suite.Equal(10*time.Minute, cfg.Trading.RunTimeout)
	suite.NotEmpty(cfg.Trading.Watchlist)
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	path := suite.writeConfig(`
server:
  address: ":9090"
database:
  path: /tmp/test.db
market:
  provider: twse
trading:
  broker: zero_commission
  run_timeout: 30s
  watchlist: ["2330"]
logging:
  level: debug
`)

	cfg, err := Load(path)
	suite.Require().NoError(err)

	suite.Equal(":9090", cfg.Server.Address)
	suite.Equal("/tmp/test.db", cfg.Database.Path)
	suite.Equal(fee.BrokerZero, cfg.Trading.Broker)
	suite.Equal(30*time.Second, cfg.Trading.RunTimeout)
	suite.Equal([]string{"2330"}, cfg.Trading.Watchlist)
	suite.Equal("debug", cfg.Logging.Level)
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "absent.yaml"))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestMalformedYAML() {
	path := suite.writeConfig("server: [this is: not yaml")

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestPolygonRequiresAPIKey() {
	path := suite.writeConfig(`
market:
  provider: polygon
`)

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestUnknownProviderRejected() {
	path := suite.writeConfig(`
market:
  provider: bloomberg
`)

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ConfigTestSuite) TestUnknownBrokerRejected() {
	path := suite.writeConfig(`
trading:
  broker: free_money
`)

	_, err := Load(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestEnvOverrides() {
	suite.T().Setenv("POLYGON_API_KEY", "test-key")
	suite.T().Setenv("MARKET_PROVIDER", "polygon")
	suite.T().Setenv("SERVER_ADDRESS", ":7070")

	cfg, err := Load("")
	suite.Require().NoError(err)

	suite.Equal(market.ProviderPolygon, cfg.Market.Provider)
	suite.Equal("test-key", cfg.Market.PolygonAPIKey)
	suite.Equal(":7070", cfg.Server.Address)
}
