package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/sacahan/casualtrader/internal/agent"
	"github.com/sacahan/casualtrader/internal/agent/coordinator"
	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/notify"
	"github.com/sacahan/casualtrader/internal/session"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/trade"
	"github.com/sacahan/casualtrader/internal/trade/fee"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/mocks"
)

const testAgentID = "agent-1"

type ServerTestSuite struct {
	suite.Suite
	store       *store.Store
	ctrl        *gomock.Controller
	engine      *mocks.MockDecisionEngine
	bus         *notify.Bus
	coordinator *coordinator.Coordinator
	server      *httptest.Server
	logger      *logger.Logger
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *ServerTestSuite) SetupTest() {
	st, err := store.NewStore(":memory:", suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(st.Initialize())
	suite.store = st

	suite.ctrl = gomock.NewController(suite.T())
	provider := mocks.NewMockProvider(suite.ctrl)
	suite.engine = mocks.NewMockDecisionEngine(suite.ctrl)

	executor := trade.NewExecutor(st, provider, fee.NewZeroFee(), suite.logger)
	provisioner := agent.NewProvisioner(st, provider, executor, suite.logger)
	recorder := session.NewRecorder(st, suite.logger)
	suite.bus = notify.NewBus(0, suite.logger)
	suite.coordinator = coordinator.New(st, provisioner, suite.engine, recorder, suite.bus, 0, suite.logger)

	apiServer := NewServer(suite.coordinator, recorder, st,
		notify.NewWSBroadcaster(suite.bus, suite.logger), suite.logger)
	suite.server = httptest.NewServer(apiServer.Router())

	funds := decimal.NewFromInt(100000)
	now := time.Now()
	suite.Require().NoError(st.CreateAgent(context.Background(), &types.Agent{
		ID:           testAgentID,
		Name:         "Test Agent",
		Model:        "scripted",
		InitialFunds: funds,
		CashBalance:  funds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.server.Close()
	suite.coordinator.Shutdown(context.Background())
	suite.bus.Close()
	suite.Require().NoError(suite.store.Close())
}

func (suite *ServerTestSuite) postJSON(path string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)

	resp, err := http.Post(suite.server.URL+path, "application/json", bytes.NewReader(body))
	suite.Require().NoError(err)

	return resp
}

func (suite *ServerTestSuite) get(path string) *http.Response {
	resp, err := http.Get(suite.server.URL + path)
	suite.Require().NoError(err)

	return resp
}

func decodeBody[T any](suite *ServerTestSuite, resp *http.Response) T {
	defer resp.Body.Close()

	var decoded T
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&decoded))

	return decoded
}

func (suite *ServerTestSuite) TestHealth() {
	resp := suite.get("/healthz")
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestCreateAndGetAgent() {
	resp := suite.postJSON("/api/v1/agents", map[string]any{
		"name":          "New Agent",
		"model":         "scripted",
		"initial_funds": "500000",
	})
	suite.Equal(http.StatusCreated, resp.StatusCode)

	created := decodeBody[types.Agent](suite, resp)
	suite.NotEmpty(created.ID)
	suite.True(decimal.NewFromInt(500000).Equal(created.CashBalance))

	resp = suite.get("/api/v1/agents/" + created.ID)
	suite.Equal(http.StatusOK, resp.StatusCode)

	loaded := decodeBody[types.Agent](suite, resp)
	suite.Equal("New Agent", loaded.Name)
}

func (suite *ServerTestSuite) TestGetUnknownAgent() {
	resp := suite.get("/api/v1/agents/nobody")
	defer resp.Body.Close()

	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStartReturnsAccepted() {
	done := make(chan struct{})

	suite.engine.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, task agent.Task, bundle *agent.Bundle) (*agent.Outcome, error) {
			defer close(done)

			return &agent.Outcome{Summary: "ok"}, nil
		})

	resp := suite.postJSON("/api/v1/agents/"+testAgentID+"/start", startRequest{Mode: types.ModeObservation})
	suite.Equal(http.StatusAccepted, resp.StatusCode)

	started := decodeBody[startResponse](suite, resp)
	suite.NotEmpty(started.SessionID)

	<-done
}

func (suite *ServerTestSuite) TestStartWhileBusyConflicts() {
	release := make(chan struct{})
	running := make(chan struct{})

	suite.engine.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, task agent.Task, bundle *agent.Bundle) (*agent.Outcome, error) {
			close(running)

			select {
			case <-release:
			case <-ctx.Done():
			}

			return &agent.Outcome{Summary: "ok"}, nil
		})

	resp := suite.postJSON("/api/v1/agents/"+testAgentID+"/start", startRequest{Mode: types.ModeObservation})
	suite.Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	<-running

	resp = suite.postJSON("/api/v1/agents/"+testAgentID+"/start", startRequest{Mode: types.ModeTrading})
	suite.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	status := decodeBody[coordinator.Status](suite, suite.get("/api/v1/agents/"+testAgentID+"/status"))
	suite.True(status.Running)

	close(release)

	resp = suite.postJSON("/api/v1/agents/"+testAgentID+"/stop", nil)
	suite.Contains([]int{http.StatusOK, http.StatusConflict}, resp.StatusCode)
	resp.Body.Close()
}

func (suite *ServerTestSuite) TestStartUnknownMode() {
	resp := suite.postJSON("/api/v1/agents/"+testAgentID+"/start", map[string]string{"mode": "SPECULATION"})
	defer resp.Body.Close()

	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStopIdleConflicts() {
	resp := suite.postJSON("/api/v1/agents/"+testAgentID+"/stop", nil)
	defer resp.Body.Close()

	suite.Equal(http.StatusConflict, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStopBlocksUntilUnwound() {
	running := make(chan struct{})

	suite.engine.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, task agent.Task, bundle *agent.Bundle) (*agent.Outcome, error) {
			close(running)
			<-ctx.Done()

			return nil, ctx.Err()
		})

	resp := suite.postJSON("/api/v1/agents/"+testAgentID+"/start", startRequest{Mode: types.ModeObservation})
	suite.Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	<-running

	resp = suite.postJSON("/api/v1/agents/"+testAgentID+"/stop", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// After stop returns the agent is idle and restartable.
	status := decodeBody[coordinator.Status](suite, suite.get("/api/v1/agents/"+testAgentID+"/status"))
	suite.False(status.Running)
}

func (suite *ServerTestSuite) TestPortfolio() {
	resp := suite.get("/api/v1/agents/" + testAgentID + "/portfolio")
	suite.Equal(http.StatusOK, resp.StatusCode)

	portfolio := decodeBody[portfolioResponse](suite, resp)
	suite.Equal(testAgentID, portfolio.AgentID)
	suite.True(decimal.NewFromInt(100000).Equal(portfolio.Cash))
	suite.Empty(portfolio.Holdings)
}

func (suite *ServerTestSuite) TestUnknownSession() {
	resp := suite.get("/api/v1/sessions/nope")
	defer resp.Body.Close()

	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestEmptyCollections() {
	for _, path := range []string{
		"/api/v1/agents/" + testAgentID + "/trades",
		"/api/v1/agents/" + testAgentID + "/sessions",
		"/api/v1/agents/" + testAgentID + "/performance",
	} {
		resp := suite.get(path)
		suite.Equal(http.StatusOK, resp.StatusCode, path)

		raw := decodeBody[[]json.RawMessage](suite, resp)
		suite.Empty(raw, path)
	}
}
