package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loan-eligibility-workers/internal/common/config"

	"google.golang.org/genai"
)

// contentGenerator is the slice of genai.Models the adapter depends on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider calls the Gemini generate-content API.
type GeminiProvider struct {
	models   contentGenerator
	model    string
	settings Settings
}

func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig, settings Settings) (*GeminiProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &ConfigurationError{Provider: config.ProviderGemini, Field: "api_key"}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGeminiProvider(client.Models, cfg.Model, settings), nil
}

func newGeminiProvider(models contentGenerator, model string, settings Settings) *GeminiProvider {
	return &GeminiProvider{models: models, model: model, settings: settings}
}

func (p *GeminiProvider) Name() string {
	return config.ProviderGemini
}

func (p *GeminiProvider) Evaluate(ctx context.Context, system, prompt string) (string, error) {
	if p == nil || p.models == nil {
		return "", &Error{Kind: KindNotConfigured, Provider: config.ProviderGemini}
	}

	ctx, cancel := withTimeout(ctx, p.settings.Timeout)
	defer cancel()

	temperature := float32(p.settings.Temperature)
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       &temperature,
	}

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", &Error{Kind: KindProviderUnavailable, Provider: config.ProviderGemini, Err: err}
	}

	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil {
					builder.WriteString(part.Text)
				}
			}
			break
		}
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", &Error{
			Kind:     KindProviderUnavailable,
			Provider: config.ProviderGemini,
			Err:      errors.New("response contained no text"),
		}
	}
	return builder.String(), nil
}
