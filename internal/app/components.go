// Package app wires the store, evaluator and notification batcher from
// configuration. Both the worker manager and loanctl build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"loan-eligibility-workers/internal/common/aws"
	"loan-eligibility-workers/internal/common/config"
	"loan-eligibility-workers/internal/common/database"
	apperrors "loan-eligibility-workers/internal/common/errors"
	"loan-eligibility-workers/internal/common/llm"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/eligibility"
	"loan-eligibility-workers/internal/notification"
	"loan-eligibility-workers/internal/store"
)

// Components are the long-lived domain services.
type Components struct {
	Store       *store.Store
	Eligibility *eligibility.Service
	Notifier    *notification.Batcher
	Provider    llm.Provider
}

// Clients are the connected infrastructure clients. Redis is optional.
type Clients struct {
	Postgres *database.PostgresClient
	Redis    *database.RedisClient
}

// NewComponents builds the services over already-connected clients. A
// missing LLM credential is returned as a PROVIDER_NOT_CONFIGURED
// StandardError wrapping the *llm.ConfigurationError.
func NewComponents(ctx context.Context, cfg *config.Config, clients Clients, log logger.Logger) (*Components, error) {
	if clients.Postgres == nil {
		return nil, fmt.Errorf("postgres client is required")
	}

	opts := []store.Option{store.WithQueryTimeout(clients.Postgres.QueryTimeout())}
	if clients.Redis != nil {
		opts = append(opts, store.WithCache(store.NewCache(clients.Redis.GetClient(), clients.Redis.TTL, log)))
	}
	matchStore := store.New(clients.Postgres.GetDB(), log, opts...)

	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		var cfgErr *llm.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, apperrors.NewProviderNotConfiguredError(cfgErr.Provider, err)
		}
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	evaluator := eligibility.NewEvaluator(provider, log)
	service := eligibility.NewService(evaluator, matchStore, log)

	transport, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
	if err != nil {
		return nil, fmt.Errorf("email transport: %w", err)
	}

	var batcherOpts []notification.Option
	if cfg.Notifications.Events.Enabled {
		publisher, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Events.TopicARN)
		if err != nil {
			return nil, fmt.Errorf("event publisher: %w", err)
		}
		batcherOpts = append(batcherOpts, notification.WithEvents(publisher))
	}
	notifier := notification.NewBatcher(matchStore, transport, log, batcherOpts...)

	log.Info("Components initialized", map[string]interface{}{
		"llmProvider": provider.Name(),
		"cache":       clients.Redis != nil,
		"events":      cfg.Notifications.Events.Enabled,
	})

	return &Components{
		Store:       matchStore,
		Eligibility: service,
		Notifier:    notifier,
		Provider:    provider,
	}, nil
}
