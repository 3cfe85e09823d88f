package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

type StoreTestSuite struct {
	suite.Suite
	store  *Store
	logger *logger.Logger
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *StoreTestSuite) SetupTest() {
	st, err := NewStore(":memory:", suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(st.Initialize())
	suite.store = st
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *StoreTestSuite) newAgent(id string) *types.Agent {
	funds := decimal.NewFromInt(1000000)
	now := time.Now()

	return &types.Agent{
		ID:           id,
		Name:         "Agent " + id,
		Model:        "scripted",
		InitialFunds: funds,
		CashBalance:  funds,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (suite *StoreTestSuite) TestAgentRoundTrip() {
	ctx := context.Background()
	agent := suite.newAgent("agent-1")
	agent.CashBalance = decimal.RequireFromString("999964.37")

	suite.Require().NoError(suite.store.CreateAgent(ctx, agent))

	loadedOpt, err := suite.store.GetAgent(ctx, "agent-1")
	suite.Require().NoError(err)
	suite.Require().True(loadedOpt.IsSome())

	loaded := loadedOpt.Unwrap()
	suite.Equal(agent.Name, loaded.Name)
	suite.True(agent.InitialFunds.Equal(loaded.InitialFunds))
	// The decimal string survives storage exactly.
	suite.True(decimal.RequireFromString("999964.37").Equal(loaded.CashBalance))
}

func (suite *StoreTestSuite) TestGetMissingAgent() {
	opt, err := suite.store.GetAgent(context.Background(), "nobody")
	suite.Require().NoError(err)
	suite.True(opt.IsNone())
}

func (suite *StoreTestSuite) TestInvalidAgentRejected() {
	err := suite.store.CreateAgent(context.Background(), &types.Agent{ID: "agent-1"})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *StoreTestSuite) TestListAgents() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.CreateAgent(ctx, suite.newAgent("agent-1")))
	suite.Require().NoError(suite.store.CreateAgent(ctx, suite.newAgent("agent-2")))

	agents, err := suite.store.ListAgents(ctx)
	suite.Require().NoError(err)
	suite.Len(agents, 2)
}

func (suite *StoreTestSuite) TestHoldingUpsertAndDelete() {
	ctx := context.Background()

	err := suite.store.WithTx(ctx, func(tx *sql.Tx) error {
		return suite.store.UpsertHoldingTx(tx, types.Holding{
			AgentID:   "agent-1",
			Ticker:    "2330",
			Quantity:  1000,
			AvgCost:   decimal.NewFromInt(500),
			UpdatedAt: time.Now(),
		})
	})
	suite.Require().NoError(err)

	// Upsert on the same key replaces the row.
	err = suite.store.WithTx(ctx, func(tx *sql.Tx) error {
		return suite.store.UpsertHoldingTx(tx, types.Holding{
			AgentID:   "agent-1",
			Ticker:    "2330",
			Quantity:  2000,
			AvgCost:   decimal.RequireFromString("510.25"),
			UpdatedAt: time.Now(),
		})
	})
	suite.Require().NoError(err)

	holdings, err := suite.store.GetHoldings(ctx, "agent-1")
	suite.Require().NoError(err)
	suite.Require().Len(holdings, 1)
	suite.Equal(int64(2000), holdings[0].Quantity)
	suite.True(decimal.RequireFromString("510.25").Equal(holdings[0].AvgCost))

	err = suite.store.WithTx(ctx, func(tx *sql.Tx) error {
		return suite.store.DeleteHoldingTx(tx, "agent-1", "2330")
	})
	suite.Require().NoError(err)

	holdings, err = suite.store.GetHoldings(ctx, "agent-1")
	suite.Require().NoError(err)
	suite.Empty(holdings)
}

func (suite *StoreTestSuite) TestWithTxRollsBackOnError() {
	ctx := context.Background()

	err := suite.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := suite.store.UpsertHoldingTx(tx, types.Holding{
			AgentID:   "agent-1",
			Ticker:    "2330",
			Quantity:  1000,
			AvgCost:   decimal.NewFromInt(500),
			UpdatedAt: time.Now(),
		}); err != nil {
			return err
		}

		return errors.New(errors.ErrCodeInsufficientFunds, "forced failure")
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientFunds))

	// The write inside the failed transaction must not be visible.
	holdings, err := suite.store.GetHoldings(ctx, "agent-1")
	suite.Require().NoError(err)
	suite.Empty(holdings)
}

func (suite *StoreTestSuite) TestUpdateCashForMissingAgent() {
	err := suite.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		return suite.store.UpdateAgentCashTx(tx, "nobody", decimal.NewFromInt(1))
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAgentNotFound))
}

func (suite *StoreTestSuite) TestSessionRoundTrip() {
	ctx := context.Background()

	session := types.NewExecutionSession("agent-1", types.ModeTrading)
	suite.Require().NoError(suite.store.InsertSession(ctx, session))

	session.MarkRunning()
	suite.Require().NoError(suite.store.UpdateSession(ctx, session))

	session.Complete("run summary")
	suite.Require().NoError(suite.store.UpdateSession(ctx, session))

	loadedOpt, err := suite.store.GetSession(ctx, session.ID)
	suite.Require().NoError(err)
	suite.Require().True(loadedOpt.IsSome())

	loaded := loadedOpt.Unwrap()
	suite.Equal(types.SessionStatusCompleted, loaded.Status)
	suite.Equal("run summary", loaded.Result)
	suite.Empty(loaded.Error)
	suite.NotNil(loaded.EndedAt)
}

func (suite *StoreTestSuite) TestListSessionsNewestFirst() {
	ctx := context.Background()

	first := types.NewExecutionSession("agent-1", types.ModeTrading)
	first.StartedAt = time.Now().Add(-time.Hour)
	suite.Require().NoError(suite.store.InsertSession(ctx, first))

	second := types.NewExecutionSession("agent-1", types.ModeObservation)
	suite.Require().NoError(suite.store.InsertSession(ctx, second))

	sessions, err := suite.store.ListSessions(ctx, "agent-1", 0)
	suite.Require().NoError(err)
	suite.Require().Len(sessions, 2)
	suite.Equal(second.ID, sessions[0].ID)

	limited, err := suite.store.ListSessions(ctx, "agent-1", 1)
	suite.Require().NoError(err)
	suite.Len(limited, 1)
}

func (suite *StoreTestSuite) TestMemoryAppendAndList() {
	ctx := context.Background()

	suite.Require().NoError(suite.store.AppendMemory(ctx, "agent-1", "first note"))
	suite.Require().NoError(suite.store.AppendMemory(ctx, "agent-1", "second note"))
	suite.Require().NoError(suite.store.AppendMemory(ctx, "agent-2", "other agent"))

	notes, err := suite.store.ListMemory(ctx, "agent-1", 0)
	suite.Require().NoError(err)
	suite.Len(notes, 2)
	suite.NotContains(notes, "other agent")

	limited, err := suite.store.ListMemory(ctx, "agent-1", 1)
	suite.Require().NoError(err)
	suite.Len(limited, 1)
}
