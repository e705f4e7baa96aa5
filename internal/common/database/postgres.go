// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/config"

	"github.com/lib/pq"
)

const connMaxLifetime = 5 * time.Minute

// PostgresClient holds the pool for applicants, loan products, matches and
// the notification log.
type PostgresClient struct {
	DB           *sql.DB
	queryTimeout time.Duration
}

// NewPostgres validates the DSN and opens a pool. It does not dial; call Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	connector, err := pq.NewConnector(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxLifetime)

	return &PostgresClient{
		DB:           db,
		queryTimeout: config.GetDuration(cfg.QueryTimeout),
	}, nil
}

// Ping dials the database, bounded by the query timeout when one is set.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// QueryTimeout is the per-statement budget configured for this pool.
func (c *PostgresClient) QueryTimeout() time.Duration {
	return c.queryTimeout
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
