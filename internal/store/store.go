// Package store implements the durable persistence layer on DuckDB.
//
// Money columns are stored as VARCHAR and parsed with shopspring/decimal on
// read, so repeated weighted-average-cost updates never accumulate binary
// floating point drift.
package store

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Store is the DuckDB-backed persistence store for agents, holdings, trades,
// performance snapshots, session records, and agent memory.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStore opens (or creates) the DuckDB database at path. Pass ":memory:"
// for an ephemeral store.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, "failed to open duckdb", err)
	}

	// DuckDB is an embedded single-writer engine; a single connection keeps
	// transactions serialized without lock contention in the driver.
	db.SetMaxOpenConns(1)

	return &Store{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the schema if it does not exist.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			model TEXT NOT NULL,
			instructions TEXT,
			initial_funds VARCHAR NOT NULL,
			cash_balance VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS holdings (
			agent_id TEXT NOT NULL,
			ticker TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			avg_cost VARCHAR NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (agent_id, ticker)
		);

		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			ticker TEXT NOT NULL,
			action TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			price VARCHAR NOT NULL,
			total_amount VARCHAR NOT NULL,
			commission VARCHAR NOT NULL,
			reason TEXT,
			executed_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS performance_snapshots (
			agent_id TEXT NOT NULL,
			date TEXT NOT NULL,
			cash VARCHAR NOT NULL,
			market_value VARCHAR NOT NULL,
			total_value VARCHAR NOT NULL,
			unrealized_pnl VARCHAR NOT NULL,
			trade_count INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (agent_id, date)
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			result TEXT,
			error TEXT
		);

		CREATE TABLE IF NOT EXISTS agent_memory (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSchemaInitFailed, "failed to create schema", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil return and rolling
// back on error or panic. All writes of one atomic trade apply go through a
// single WithTx call so no partial state is ever observable.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransactionFailed, "failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeTransactionFailed, "failed to commit transaction", err)
	}

	return nil
}
