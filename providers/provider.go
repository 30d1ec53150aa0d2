// Package providers implements the HTTP-level interfaces to the LLM services
// promptc can talk to. It supports OpenAI, Anthropic, and Gemini, providing a
// unified request/response surface for the agent roles built on top.
package providers

import (
	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/utils"
)

// Provider defines the interface all LLM providers must implement.
type Provider interface {
	// Core identification and configuration
	Name() string
	Endpoint() string
	Headers() map[string]string
	SetExtraHeaders(extraHeaders map[string]string)
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)

	// Request preparation
	PrepareRequest(prompt string, options map[string]any) ([]byte, error)
	PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error)

	// Response handling
	ParseResponse(body []byte) (string, error)

	// Capability checks
	SupportsJSONSchema() bool
}

// ProviderConstructor defines a function type for creating new provider
// instances. Each provider implementation registers a constructor of this
// type.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
