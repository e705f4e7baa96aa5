// Package store persists applicants, loan products, match verdicts and the
// notification log in PostgreSQL, with an optional Redis read cache in front
// of applicant and product lookups.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/logger"

	"go.opentelemetry.io/otel"
)

var (
	ErrApplicantNotFound = errors.New("applicant not found")
	ErrProductNotFound   = errors.New("loan product not found")
	// ErrStore wraps every database failure that is not a missing row.
	ErrStore = errors.New("store failure")
)

var tracer = otel.Tracer("loan-eligibility-workers/store")

// Store is the PostgreSQL-backed match store.
type Store struct {
	db           *sql.DB
	cache        *Cache
	logger       logger.Logger
	queryTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithCache puts a read cache in front of applicant and product lookups.
func WithCache(c *Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithQueryTimeout bounds every statement. Zero leaves the caller's deadline.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.queryTimeout = d }
}

func New(db *sql.DB, log logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{db: db, logger: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// OpError is a database failure tagged with the store operation that hit it.
// It matches ErrStore and the underlying driver error.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStore, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

func storeErr(op string, err error) error {
	return &OpError{Op: op, Err: err}
}
