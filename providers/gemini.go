package providers

import (
	"encoding/json"
	"fmt"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/utils"
)

// GeminiProvider implements the Provider interface for Google's Gemini API
type GeminiProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &GeminiProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelInfo),
	}
}

func (p *GeminiProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Option set", "key", key, "value", value)
}

func (p *GeminiProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("maxOutputTokens", cfg.MaxTokens)
}

func (p *GeminiProvider) SetLogger(logger utils.Logger) {
	p.logger = logger
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Endpoint() string {
	return fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		p.model, p.apiKey,
	)
}

func (p *GeminiProvider) SupportsJSONSchema() bool {
	return true
}

func (p *GeminiProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	for key, value := range p.extraHeaders {
		headers[key] = value
	}

	return headers
}

func (p *GeminiProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

func (p *GeminiProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": p.generationConfig(options),
	}
	if system, ok := stringOption(p.options, options, "system_prompt"); ok {
		request["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": system}},
		}
	}

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request", "error", err)
		return nil, err
	}

	return reqJSON, nil
}

func (p *GeminiProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	generationConfig := p.generationConfig(options)
	generationConfig["responseMimeType"] = "application/json"
	generationConfig["responseSchema"] = schema

	request := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": generationConfig,
	}
	if system, ok := stringOption(p.options, options, "system_prompt"); ok {
		request["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": system}},
		}
	}

	reqJSON, err := json.Marshal(request)
	if err != nil {
		p.logger.Error("Failed to marshal request with schema", "error", err)
		return nil, err
	}

	return reqJSON, nil
}

func (p *GeminiProvider) generationConfig(options map[string]any) map[string]any {
	generationConfig := make(map[string]any)
	for k, v := range p.options {
		if k == "system_prompt" {
			continue
		}
		generationConfig[k] = v
	}
	for k, v := range options {
		if k == "system_prompt" {
			continue
		}
		generationConfig[k] = v
	}
	return generationConfig
}

func (p *GeminiProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}
