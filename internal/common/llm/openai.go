package llm

import (
	"context"
	"errors"
	"strings"

	"loan-eligibility-workers/internal/common/config"
	commonhttp "loan-eligibility-workers/internal/common/http"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	apiKey   string
	model    string
	baseURL  string
	settings Settings
	client   *commonhttp.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIProvider(cfg config.ProviderConfig, settings Settings) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{Provider: config.ProviderOpenAI, Field: "api_key"}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &OpenAIProvider{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		baseURL:  baseURL,
		settings: settings,
		client:   commonhttp.NewClient(settings.Timeout),
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

func (p *OpenAIProvider) Evaluate(ctx context.Context, system, prompt string) (string, error) {
	if p == nil || p.apiKey == "" {
		return "", &Error{Kind: KindNotConfigured, Provider: config.ProviderOpenAI}
	}

	ctx, cancel := withTimeout(ctx, p.settings.Timeout)
	defer cancel()

	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: p.settings.Temperature,
	}

	var resp chatResponse
	err := p.client.PostJSON(ctx, p.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.apiKey}, req, &resp)
	if err != nil {
		return "", &Error{Kind: KindProviderUnavailable, Provider: config.ProviderOpenAI, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{
			Kind:     KindProviderUnavailable,
			Provider: config.ProviderOpenAI,
			Err:      errors.New("response contained no choices"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}
