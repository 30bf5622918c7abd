package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// memoryDSN opens a private in-memory database. Every connection to
// ":memory:" gets its own empty database, so the pool is pinned to a
// single connection that never expires.
const memoryDSN = ":memory:"

// SQLiteDB wraps sqlx.DB with monitoring and metrics
type SQLiteDB struct {
	db      *sqlx.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewMemoryDB opens the in-memory event store used for a single load
func NewMemoryDB(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping event store: %w", err)
	}

	logger.Debug(ctx, "[DB_INIT] In-memory event store opened", logging.Fields{
		"driver": "sqlite",
	})

	return &SQLiteDB{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	s.logger.Debug(context.Background(), "[DB_CLOSE] Closing event store", logging.Fields{})
	return s.db.Close()
}

// DB returns the underlying sqlx.DB instance
func (s *SQLiteDB) DB() *sqlx.DB {
	return s.db
}

// ExecContext executes a command with context and metrics
func (s *SQLiteDB) ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		s.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	}()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.metrics.RecordDBError("exec_error")
		s.logger.Error(ctx, "[DB_EXEC_ERROR] Command failed", logging.Fields{
			"query_type": queryType,
		}, err)
		return nil, err
	}

	return result, nil
}

// GetContext executes a query that returns a single row
func (s *SQLiteDB) GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		s.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	}()

	err := s.db.GetContext(ctx, dest, query, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordDBError("get_error")
		s.logger.Error(ctx, "[DB_GET_ERROR] Get query failed", logging.Fields{
			"query_type": queryType,
		}, err)
	}

	return err
}

// SelectContext executes a query that returns multiple rows
func (s *SQLiteDB) SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		s.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
		s.logger.Debug(ctx, "[DB_QUERY] Query executed", logging.Fields{
			"query_type":  queryType,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	err := s.db.SelectContext(ctx, dest, query, args...)
	if err != nil {
		s.metrics.RecordDBError("select_error")
		s.logger.Error(ctx, "[DB_SELECT_ERROR] Select query failed", logging.Fields{
			"query_type": queryType,
		}, err)
		return err
	}

	return nil
}

// BeginTx begins a new transaction
func (s *SQLiteDB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.metrics.RecordDBError("transaction_begin_error")
		s.logger.Error(ctx, "[DB_TX_ERROR] Failed to begin transaction", logging.Fields{}, err)
		return nil, err
	}

	return tx, nil
}

// HealthCheck performs a database health check
func (s *SQLiteDB) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("event store health check failed: %w", err)
	}

	return nil
}
