package providers

import (
	"encoding/json"
	"fmt"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/utils"
)

// OpenAIProvider implements the Provider interface for OpenAI's API
type OpenAIProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &OpenAIProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}
}

// SetOption sets a specific option for the provider
func (p *OpenAIProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Option set", "key", key, "value", value)
}

// SetDefaultOptions sets default options based on the provided configuration
func (p *OpenAIProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *OpenAIProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

// Name returns the provider's name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Endpoint returns the API endpoint for OpenAI
func (p *OpenAIProvider) Endpoint() string {
	return "https://api.openai.com/v1/chat/completions"
}

// SupportsJSONSchema indicates whether this provider supports JSON schema
func (p *OpenAIProvider) SupportsJSONSchema() bool {
	return true
}

// Headers returns the necessary headers for API requests
func (p *OpenAIProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}

	for key, value := range p.extraHeaders {
		headers[key] = value
	}

	return headers
}

func (p *OpenAIProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

// PrepareRequest prepares the request body for the API call. A
// "system_prompt" option becomes the leading system message.
func (p *OpenAIProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	messages := []map[string]string{}
	if system, ok := stringOption(p.options, options, "system_prompt"); ok {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	request := map[string]any{
		"model":    p.model,
		"messages": messages,
	}
	p.addOptions(request, options)

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request", "error", err)
		return nil, err
	}

	return reqJSON, nil
}

// PrepareRequestWithSchema prepares a request with a JSON schema
func (p *OpenAIProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	messages := []map[string]string{}
	if system, ok := stringOption(p.options, options, "system_prompt"); ok {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	request := map[string]any{
		"model":    p.model,
		"messages": messages,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": schema,
			},
		},
	}
	p.addOptions(request, options)

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request with schema", "error", err)
		return nil, err
	}

	return reqJSON, nil
}

// addOptions adds options to the request
func (p *OpenAIProvider) addOptions(request map[string]any, options map[string]any) {
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

// ParseResponse parses the API response
func (p *OpenAIProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return response.Choices[0].Message.Content, nil
}

// stringOption looks up a string option, preferring per-call options over
// provider defaults.
func stringOption(defaults, overrides map[string]any, key string) (string, bool) {
	if v, ok := overrides[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	if v, ok := defaults[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
