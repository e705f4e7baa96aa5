// Package llm holds the provider adapters that submit an eligibility prompt to
// an LLM vendor and return its raw text reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/config"
)

// Provider submits a system instruction and a user prompt and returns the
// vendor's raw text payload without interpreting it.
type Provider interface {
	Name() string
	Evaluate(ctx context.Context, system, prompt string) (string, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindNotConfigured       ErrorKind = "not_configured"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
)

var (
	ErrNotConfigured       = errors.New("llm provider not configured")
	ErrProviderUnavailable = errors.New("llm provider unavailable")
)

// Error is returned by Provider.Evaluate. errors.Is matches it against the
// sentinel for its Kind as well as the wrapped cause.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	if e.Kind == KindNotConfigured {
		return ErrNotConfigured
	}
	return ErrProviderUnavailable
}

// Cause is the underlying error text, or the kind when there is none.
func (e *Error) Cause() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// ConfigurationError reports a provider constructed without its credential.
type ConfigurationError struct {
	Provider string
	Field    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm provider %q is missing %s", e.Provider, e.Field)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNotConfigured
}

// Settings are the sampling and deadline parameters shared by every provider.
type Settings struct {
	Temperature float64
	Timeout     time.Duration
}

func SettingsFromConfig(cfg config.LLMConfig) Settings {
	return Settings{
		Temperature: cfg.Temperature,
		Timeout:     config.GetDuration(cfg.Timeout),
	}
}

// New builds the provider selected by cfg.Provider. A missing credential is a
// *ConfigurationError.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	settings := SettingsFromConfig(cfg)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAI, settings)
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.Gemini, settings)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
