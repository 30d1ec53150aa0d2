package models

import (
	"sort"
	"strings"
	"sync"

	"github.com/promptc-ai/promptc/utils"
)

// Registry is the central catalog of the models promptc can target.
//
// The registry:
//   - Bootstraps with a set of common models from major providers.
//   - Accepts dynamic registrations.
//   - Exposes a lookup that synthesizes a temporary model definition with
//     conservative defaults when a requested name is unknown, so callers
//     are not disrupted by missing catalog entries.
type Registry struct {
	models map[string]Model
	logger utils.Logger
	mutex  sync.RWMutex
}

// NewRegistry creates a registry seeded with the default catalog.
func NewRegistry(logger utils.Logger) *Registry {
	r := &Registry{
		models: make(map[string]Model),
		logger: logger,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	openAITips := "Be concise. Use Markdown headers to separate sections."
	anthropicTips := "Wrap instructions, context, and examples in XML tags. State the task before the data."
	geminiTips := "Be concise. Use Markdown. Put instructions before long context."

	for _, m := range []Model{
		{Provider: "openai", Name: "gpt-5", SupportsSystemMessages: true, ContextWindow: 200000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "openai", Name: "gpt-5-mini", SupportsSystemMessages: true, ContextWindow: 128000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "openai", Name: "gpt-4.1", SupportsSystemMessages: true, ContextWindow: 128000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "openai", Name: "gpt-4o", SupportsSystemMessages: true, ContextWindow: 128000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "openai", Name: "gpt-4o-mini", SupportsSystemMessages: true, ContextWindow: 64000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "openai", Name: "gpt-4-turbo", SupportsSystemMessages: true, ContextWindow: 128000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: openAITips},
		{Provider: "anthropic", Name: "claude-3-5-sonnet-20241022", SupportsSystemMessages: true, ContextWindow: 200000, PromptStyle: StyleXML, SupportsJSONMode: false, PromptingTips: anthropicTips},
		{Provider: "anthropic", Name: "claude-3-opus-20240229", SupportsSystemMessages: true, ContextWindow: 200000, PromptStyle: StyleXML, SupportsJSONMode: false, PromptingTips: anthropicTips},
		{Provider: "anthropic", Name: "claude-3-haiku-20240307", SupportsSystemMessages: true, ContextWindow: 200000, PromptStyle: StyleXML, SupportsJSONMode: false, PromptingTips: anthropicTips},
		{Provider: "gemini", Name: "gemini-2.5-pro", SupportsSystemMessages: true, ContextWindow: 2000000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: geminiTips},
		{Provider: "gemini", Name: "gemini-2.5-flash", SupportsSystemMessages: true, ContextWindow: 1000000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: geminiTips},
		{Provider: "gemini", Name: "gemini-2.0-flash", SupportsSystemMessages: true, ContextWindow: 1000000, PromptStyle: StyleMarkdown, SupportsJSONMode: true, PromptingTips: geminiTips},
	} {
		r.models[m.Name] = m
	}
}

// Register adds or replaces a model definition. Existing entries with the
// same name are overwritten.
func (r *Registry) Register(m Model) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models[m.Name] = m
	r.logger.Debug("Registered model", "model", m.Name)
}

// Lookup retrieves a model by name, with an optional provider hint used
// when synthesizing a fallback definition for unknown names.
func (r *Registry) Lookup(modelName, providerName string) Model {
	r.mutex.RLock()
	m, ok := r.models[modelName]
	r.mutex.RUnlock()
	if ok {
		return m
	}

	r.logger.Warn("Model not found in registry, creating temporary definition", "model", modelName)

	return Model{
		Provider:               strings.ToLower(strings.TrimSpace(providerName)),
		Name:                   modelName,
		SupportsSystemMessages: true,
		ContextWindow:          8192, // conservative assumption for unknown models
		PromptStyle:            styleFor(modelName, providerName),
		SupportsJSONMode:       true,
		PromptingTips:          "Be concise.",
	}
}

// Known reports whether a model is present in the catalog.
func (r *Registry) Known(modelName string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.models[modelName]
	return ok
}

// List returns the catalog sorted by provider then name.
func (r *Registry) List() []Model {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}
