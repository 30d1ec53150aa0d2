// Package llm provides the retrying HTTP client that agent roles use to talk
// to a provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/providers"
	"github.com/promptc-ai/promptc/utils"
)

// LLM interface defines the methods a provider-bound client implements
type LLM interface {
	Generate(ctx context.Context, prompt string) (response string, err error)
	GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error)
	SetOption(key string, value any)
	SetSystemPrompt(prompt string)
	GetLogger() utils.Logger
	SupportsJSONSchema() bool
	Model() string
	ProviderName() string
}

// LLMImpl is our implementation of the LLM interface
type LLMImpl struct {
	Provider   providers.Provider
	Options    map[string]any
	client     *http.Client
	logger     utils.Logger
	model      string
	MaxRetries int
	RetryDelay time.Duration
}

// NewLLM builds a client for the given provider/model pair from the registry.
func NewLLM(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry, providerName, model string) (LLM, error) {
	provider, err := registry.Get(providerName, cfg.APIKeys[providerName], model, cfg.ExtraHeaders)
	if err != nil {
		return nil, err
	}

	provider.SetDefaultOptions(cfg)
	provider.SetLogger(logger)

	llmClient := &LLMImpl{
		Provider:   provider,
		Options:    make(map[string]any),
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		model:      model,
		MaxRetries: cfg.TransportRetries,
		RetryDelay: cfg.RetryDelay,
	}

	return llmClient, nil
}

func (l *LLMImpl) SetOption(key string, value any) {
	l.Options[key] = value
	l.logger.Debug("Option set", "key", key, "value", value)
}

func (l *LLMImpl) SetSystemPrompt(prompt string) {
	l.SetOption("system_prompt", prompt)
}

func (l *LLMImpl) GetLogger() utils.Logger {
	return l.logger
}

func (l *LLMImpl) SupportsJSONSchema() bool {
	return l.Provider.SupportsJSONSchema()
}

func (l *LLMImpl) Model() string {
	return l.model
}

func (l *LLMImpl) ProviderName() string {
	return l.Provider.Name()
}

func (l *LLMImpl) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= l.MaxRetries; attempt++ {
		l.logger.Debug("Generating text", "provider", l.Provider.Name(), "attempt", attempt+1)

		result, err := l.attemptGenerate(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		l.logger.Warn("Generation attempt failed", "error", err, "attempt", attempt+1)

		if attempt < l.MaxRetries {
			if err := l.wait(ctx); err != nil {
				return "", NewLLMError(ErrorTypeTimeout, "context cancelled during retry wait", err)
			}
		}
	}

	return "", fmt.Errorf("failed to generate after %d attempts: %w", l.MaxRetries+1, lastErr)
}

func (l *LLMImpl) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.RetryDelay):
		return nil
	}
}

func (l *LLMImpl) attemptGenerate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := l.Provider.PrepareRequest(prompt, l.Options)
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}

	return l.post(ctx, reqBody)
}

func (l *LLMImpl) GenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= l.MaxRetries; attempt++ {
		l.logger.Debug("Generating text with schema", "provider", l.Provider.Name(), "attempt", attempt+1)

		result, err := l.attemptGenerateWithSchema(ctx, prompt, schema)
		if err == nil {
			return result, nil
		}
		lastErr = err

		l.logger.Warn("Generation attempt with schema failed", "error", err, "attempt", attempt+1)

		if attempt < l.MaxRetries {
			if err := l.wait(ctx); err != nil {
				return "", NewLLMError(ErrorTypeTimeout, "context cancelled during retry wait", err)
			}
		}
	}

	return "", fmt.Errorf("failed to generate with schema after %d attempts: %w", l.MaxRetries+1, lastErr)
}

func (l *LLMImpl) attemptGenerateWithSchema(ctx context.Context, prompt string, schema any) (string, error) {
	var reqBody []byte
	var err error

	if l.SupportsJSONSchema() {
		reqBody, err = l.Provider.PrepareRequestWithSchema(prompt, l.Options, schema)
	} else {
		reqBody, err = l.Provider.PrepareRequest(l.preparePromptWithSchema(prompt, schema), l.Options)
	}
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}

	return l.post(ctx, reqBody)
}

func (l *LLMImpl) post(ctx context.Context, reqBody []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return "", NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}

	for k, v := range l.Provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", NewLLMError(ErrorTypeTimeout, "request timed out", err)
		}
		return "", NewLLMError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewLLMError(ErrorTypeResponse, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parse
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", NewLLMError(ErrorTypeRateLimit, "rate limited", nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", NewLLMError(ErrorTypeAuthentication, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	default:
		l.logger.Error("API error", "provider", l.Provider.Name(), "status", resp.StatusCode, "body", string(body))
		return "", NewLLMError(ErrorTypeAPI, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	}

	result, err := l.Provider.ParseResponse(body)
	if err != nil {
		return "", NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}

	l.logger.Debug("Text generated successfully")
	return result, nil
}

func (l *LLMImpl) preparePromptWithSchema(prompt string, schema any) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		l.logger.Warn("Failed to marshal schema", "error", err)
		return prompt
	}

	return fmt.Sprintf("%s\n\nPlease provide your response in JSON format according to this schema:\n%s", prompt, string(schemaJSON))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
