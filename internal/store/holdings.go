package store

import (
	"context"
	"database/sql"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

var holdingColumns = []string{"agent_id", "ticker", "quantity", "avg_cost", "updated_at"}

// GetHoldingTx returns the agent's holding for one ticker inside an open
// transaction, or None if the agent holds no position in it.
func (s *Store) GetHoldingTx(tx *sql.Tx, agentID, ticker string) (optional.Option[types.Holding], error) {
	row := s.sq.Select(holdingColumns...).
		From("holdings").
		Where("agent_id = ? AND ticker = ?", agentID, ticker).
		RunWith(tx).
		QueryRow()

	holding, err := scanHolding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return optional.None[types.Holding](), nil
		}

		return optional.None[types.Holding](), err
	}

	return optional.Some(holding), nil
}

// UpsertHoldingTx inserts or replaces the holding row inside an open transaction.
func (s *Store) UpsertHoldingTx(tx *sql.Tx, holding types.Holding) error {
	// DuckDB supports INSERT OR REPLACE on primary key conflicts.
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO holdings (agent_id, ticker, quantity, avg_cost, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		holding.AgentID, holding.Ticker, holding.Quantity, holding.AvgCost.String(), holding.UpdatedAt)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to upsert holding", err)
	}

	return nil
}

// DeleteHoldingTx removes the holding row inside an open transaction. Used
// when a sell fully liquidates a position so no zero-quantity rows remain.
func (s *Store) DeleteHoldingTx(tx *sql.Tx, agentID, ticker string) error {
	_, err := s.sq.Delete("holdings").
		Where("agent_id = ? AND ticker = ?", agentID, ticker).
		RunWith(tx).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to delete holding", err)
	}

	return nil
}

// GetHoldings returns all holdings of an agent ordered by ticker.
func (s *Store) GetHoldings(ctx context.Context, agentID string) ([]types.Holding, error) {
	rows, err := s.sq.Select(holdingColumns...).
		From("holdings").
		Where("agent_id = ?", agentID).
		OrderBy("ticker").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query holdings", err)
	}
	defer rows.Close()

	var holdings []types.Holding

	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}

		holdings = append(holdings, holding)
	}

	return holdings, rows.Err()
}

// GetHoldingsTx returns all holdings of an agent inside an open transaction.
func (s *Store) GetHoldingsTx(tx *sql.Tx, agentID string) ([]types.Holding, error) {
	rows, err := s.sq.Select(holdingColumns...).
		From("holdings").
		Where("agent_id = ?", agentID).
		OrderBy("ticker").
		RunWith(tx).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query holdings", err)
	}
	defer rows.Close()

	var holdings []types.Holding

	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}

		holdings = append(holdings, holding)
	}

	return holdings, rows.Err()
}

func scanHolding(row rowScanner) (types.Holding, error) {
	var (
		holding types.Holding
		avgCost string
	)

	err := row.Scan(&holding.AgentID, &holding.Ticker, &holding.Quantity, &avgCost, &holding.UpdatedAt)
	if err != nil {
		return types.Holding{}, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan holding", err)
	}

	if holding.AvgCost, err = decimal.NewFromString(avgCost); err != nil {
		return types.Holding{}, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt avg_cost value", err)
	}

	return holding, nil
}
