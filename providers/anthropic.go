package providers

import (
	"encoding/json"
	"fmt"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/utils"
)

// AnthropicProvider implements the Provider interface for Anthropic's API
type AnthropicProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewAnthropicProvider creates a new Anthropic provider instance
func NewAnthropicProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &AnthropicProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}
}

func (p *AnthropicProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Option set", "key", key, "value", value)
}

func (p *AnthropicProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *AnthropicProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Endpoint() string {
	return "https://api.anthropic.com/v1/messages"
}

// SupportsJSONSchema is false for Anthropic; the client falls back to
// injecting the schema into the prompt text.
func (p *AnthropicProvider) SupportsJSONSchema() bool {
	return false
}

func (p *AnthropicProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	for key, value := range p.extraHeaders {
		headers[key] = value
	}

	return headers
}

func (p *AnthropicProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

func (p *AnthropicProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	request := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if system, ok := stringOption(p.options, options, "system_prompt"); ok {
		request["system"] = system
	}
	p.addOptions(request, options)

	// The messages API requires max_tokens
	if _, ok := request["max_tokens"]; !ok {
		request["max_tokens"] = 2048
	}

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request", "error", err)
		return nil, err
	}

	return reqJSON, nil
}

func (p *AnthropicProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	// No native schema support; callers pre-render the schema into the
	// prompt before reaching this path.
	return p.PrepareRequest(prompt, options)
}

func (p *AnthropicProvider) addOptions(request map[string]any, options map[string]any) {
	for k, v := range p.options {
		if k == "system_prompt" {
			continue
		}
		request[k] = v
	}
	for k, v := range options {
		if k == "system_prompt" {
			continue
		}
		request[k] = v
	}
}

func (p *AnthropicProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return response.Content[0].Text, nil
}
