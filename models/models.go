// Package models holds the catalog of models promptc can compile prompts
// for, along with the formatting idioms each one prefers. The catalog is
// data: the pipeline forwards prompt styles and prompting tips into the
// Architect instruction without interpreting them.
package models

import "strings"

// PromptStyle is the formatting idiom a model responds best to.
type PromptStyle string

const (
	StyleMarkdown PromptStyle = "markdown" // OpenAI / Gemini prefer this
	StyleXML      PromptStyle = "xml"      // Anthropic prefers <instructions> tags
	StylePlain    PromptStyle = "plain"    // Older models
)

// Model describes a target model's capabilities and prompting preferences.
type Model struct {
	Provider               string
	Name                   string
	SupportsSystemMessages bool
	ContextWindow          int
	PromptStyle            PromptStyle
	SupportsJSONMode       bool
	PromptingTips          string
}

// Encoding returns the tiktoken encoding to use when counting tokens for
// this model. Token counts for non-OpenAI models are approximations, which
// is acceptable for budget checks.
func (m Model) Encoding() string {
	name := strings.ToLower(m.Name)
	switch {
	case strings.HasPrefix(name, "gpt-4o"), strings.HasPrefix(name, "gpt-5"), strings.HasPrefix(name, "o1"), strings.HasPrefix(name, "o3"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}

// styleFor guesses a prompt style for models missing from the catalog.
func styleFor(modelName, providerName string) PromptStyle {
	if strings.Contains(strings.ToLower(modelName), "claude") ||
		strings.Contains(strings.ToLower(providerName), "anthropic") {
		return StyleXML
	}
	return StyleMarkdown
}
