package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// CreateAgent inserts a new agent row.
func (s *Store) CreateAgent(ctx context.Context, agent *types.Agent) error {
	if err := agent.Validate(); err != nil {
		return err
	}

	_, err := s.sq.Insert("agents").
		Columns("id", "name", "model", "instructions", "initial_funds", "cash_balance", "created_at", "updated_at").
		Values(agent.ID, agent.Name, agent.Model, agent.Instructions,
			agent.InitialFunds.String(), agent.CashBalance.String(), agent.CreatedAt, agent.UpdatedAt).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert agent", err)
	}

	return nil
}

// GetAgent returns the agent with the given id, or None if absent.
func (s *Store) GetAgent(ctx context.Context, agentID string) (optional.Option[types.Agent], error) {
	return scanAgent(s.sq.Select(agentColumns...).
		From("agents").
		Where("id = ?", agentID).
		RunWith(s.db).
		QueryRowContext(ctx))
}

// GetAgentTx is GetAgent inside an open transaction. The executor reads the
// agent through the same transaction that mutates its balance so concurrent
// external trade paths cannot interleave.
func (s *Store) GetAgentTx(tx *sql.Tx, agentID string) (optional.Option[types.Agent], error) {
	return scanAgent(s.sq.Select(agentColumns...).
		From("agents").
		Where("id = ?", agentID).
		RunWith(tx).
		QueryRow())
}

// UpdateAgentCashTx updates the agent's cash balance inside an open transaction.
func (s *Store) UpdateAgentCashTx(tx *sql.Tx, agentID string, cash decimal.Decimal) error {
	result, err := s.sq.Update("agents").
		Set("cash_balance", cash.String()).
		Set("updated_at", time.Now()).
		Where("id = ?", agentID).
		RunWith(tx).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to update cash balance", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.Newf(errors.ErrCodeAgentNotFound, "agent %s not found", agentID)
	}

	return nil
}

// ListAgents returns all agents ordered by creation time.
func (s *Store) ListAgents(ctx context.Context) ([]types.Agent, error) {
	rows, err := s.sq.Select(agentColumns...).
		From("agents").
		OrderBy("created_at").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query agents", err)
	}
	defer rows.Close()

	var agents []types.Agent

	for rows.Next() {
		agent, err := scanAgentRow(rows)
		if err != nil {
			return nil, err
		}

		agents = append(agents, agent)
	}

	return agents, rows.Err()
}

var agentColumns = []string{"id", "name", "model", "instructions", "initial_funds", "cash_balance", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgentRow(row rowScanner) (types.Agent, error) {
	var (
		agent                     types.Agent
		initialFunds, cashBalance string
	)

	err := row.Scan(&agent.ID, &agent.Name, &agent.Model, &agent.Instructions,
		&initialFunds, &cashBalance, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return types.Agent{}, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan agent", err)
	}

	if agent.InitialFunds, err = decimal.NewFromString(initialFunds); err != nil {
		return types.Agent{}, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt initial_funds value", err)
	}

	if agent.CashBalance, err = decimal.NewFromString(cashBalance); err != nil {
		return types.Agent{}, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt cash_balance value", err)
	}

	return agent, nil
}

func scanAgent(row rowScanner) (optional.Option[types.Agent], error) {
	agent, err := scanAgentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return optional.None[types.Agent](), nil
		}

		return optional.None[types.Agent](), err
	}

	return optional.Some(agent), nil
}
