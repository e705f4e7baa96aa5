package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-eligibility-workers/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Redis
// ==========================

func TestNewRedis_HostPort(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr(), CacheTTL: 60000})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, time.Minute, client.TTL)
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: "redis://" + mr.Addr() + "/2", PoolSize: 4})
	require.NoError(t, err)
	defer client.Close()

	opts := client.GetClient().Options()
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_Errors(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.ErrorContains(t, err, "redis address is empty")

	_, err = NewRedis(config.RedisConfig{Address: "redis://:bad port"})
	assert.ErrorContains(t, err, "invalid redis url")
}

func TestRedisPing_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	assert.ErrorContains(t, client.Ping(context.Background()), "redis ping failed")
}

// ==========================
// Postgres
// ==========================

func TestPostgresPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	client := &PostgresClient{DB: db, queryTimeout: time.Second}
	defer client.Close()

	mock.ExpectPing()
	require.NoError(t, client.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = client.Ping(context.Background())
	assert.ErrorContains(t, err, "postgres ping failed")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_PoolSettings(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "loans", User: "loans", Password: "secret", SSLMode: "disable",
		MaxConnections: 7, QueryTimeout: 2500,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 7, client.GetDB().Stats().MaxOpenConnections)
	assert.Equal(t, 2500*time.Millisecond, client.QueryTimeout())
}
