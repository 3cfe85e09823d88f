package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

var tradeColumns = []string{
	"id", "session_id", "agent_id", "ticker", "action", "quantity",
	"price", "total_amount", "commission", "reason", "executed_at",
}

// InsertTradeTx inserts a trade record inside an open transaction.
func (s *Store) InsertTradeTx(tx *sql.Tx, record *types.TradeRecord) error {
	_, err := s.sq.Insert("trades").
		Columns(tradeColumns...).
		Values(record.ID, record.SessionID, record.AgentID, record.Ticker,
			record.Action, record.Quantity, record.Price.String(),
			record.TotalAmount.String(), record.Commission.String(),
			record.Reason, record.ExecutedAt).
		RunWith(tx).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to insert trade", err)
	}

	return nil
}

// CountTradesOnDateTx counts the agent's trades executed on the given day
// inside an open transaction. Used to recompute the daily performance snapshot.
func (s *Store) CountTradesOnDateTx(tx *sql.Tx, agentID, date string) (int, error) {
	var count int

	err := tx.QueryRow(`
		SELECT COUNT(*) FROM trades
		WHERE agent_id = ? AND strftime(executed_at, '%Y-%m-%d') = ?`,
		agentID, date).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to count trades", err)
	}

	return count, nil
}

// GetTrades returns the agent's trades, most recent first. A limit of 0 means
// no limit.
func (s *Store) GetTrades(ctx context.Context, agentID string, limit uint64) ([]types.TradeRecord, error) {
	builder := s.sq.Select(tradeColumns...).
		From("trades").
		Where("agent_id = ?", agentID).
		OrderBy("executed_at DESC")

	if limit > 0 {
		builder = builder.Limit(limit)
	}

	rows, err := builder.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord

	for rows.Next() {
		var (
			record                         types.TradeRecord
			price, totalAmount, commission string
		)

		err := rows.Scan(&record.ID, &record.SessionID, &record.AgentID, &record.Ticker,
			&record.Action, &record.Quantity, &price, &totalAmount, &commission,
			&record.Reason, &record.ExecutedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan trade", err)
		}

		if record.Price, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt price value", err)
		}

		if record.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt total_amount value", err)
		}

		if record.Commission, err = decimal.NewFromString(commission); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt commission value", err)
		}

		trades = append(trades, record)
	}

	return trades, rows.Err()
}

// UpsertPerformanceTx inserts or replaces the agent's daily performance
// snapshot inside an open transaction.
func (s *Store) UpsertPerformanceTx(tx *sql.Tx, snapshot types.PerformanceSnapshot) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO performance_snapshots
			(agent_id, date, cash, market_value, total_value, unrealized_pnl, trade_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.AgentID, snapshot.Date, snapshot.Cash.String(),
		snapshot.MarketValue.String(), snapshot.TotalValue.String(),
		snapshot.UnrealizedPnL.String(), snapshot.TradeCount, time.Now())
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, "failed to upsert performance snapshot", err)
	}

	return nil
}

// GetPerformance returns the agent's snapshots ordered by date ascending.
func (s *Store) GetPerformance(ctx context.Context, agentID string) ([]types.PerformanceSnapshot, error) {
	rows, err := s.sq.Select("agent_id", "date", "cash", "market_value", "total_value", "unrealized_pnl", "trade_count", "updated_at").
		From("performance_snapshots").
		Where("agent_id = ?", agentID).
		OrderBy("date").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to query performance snapshots", err)
	}
	defer rows.Close()

	var snapshots []types.PerformanceSnapshot

	for rows.Next() {
		var (
			snapshot                                  types.PerformanceSnapshot
			cash, marketValue, totalValue, unrealized string
		)

		err := rows.Scan(&snapshot.AgentID, &snapshot.Date, &cash, &marketValue,
			&totalValue, &unrealized, &snapshot.TradeCount, &snapshot.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to scan performance snapshot", err)
		}

		if snapshot.Cash, err = decimal.NewFromString(cash); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt cash value", err)
		}

		if snapshot.MarketValue, err = decimal.NewFromString(marketValue); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt market_value value", err)
		}

		if snapshot.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt total_value value", err)
		}

		if snapshot.UnrealizedPnL, err = decimal.NewFromString(unrealized); err != nil {
			return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "corrupt unrealized_pnl value", err)
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
