package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderRegistryRegistersKnownProviders(t *testing.T) {
	registry := NewProviderRegistry()

	for _, name := range []string{"openai", "anthropic", "gemini", "google", "mock"} {
		provider, err := registry.Get(name, "test-key", "test-model", nil)
		require.NoError(t, err, "provider %q should be registered", name)
		assert.NotNil(t, provider)
	}
}

func TestNewProviderRegistryWithSubset(t *testing.T) {
	registry := NewProviderRegistry("openai")

	_, err := registry.Get("openai", "key", "gpt-4o", nil)
	assert.NoError(t, err)

	_, err = registry.Get("anthropic", "key", "claude-3-opus-20240229", nil)
	assert.Error(t, err)
}

func TestGetUnknownProvider(t *testing.T) {
	registry := NewProviderRegistry()

	_, err := registry.Get("definitely-not-real", "key", "model", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider: definitely-not-real")
}

func TestGoogleAliasResolvesToGemini(t *testing.T) {
	registry := NewProviderRegistry()

	provider, err := registry.Get("google", "key", "gemini-2.5-pro", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
}

func TestRegisterCustomProvider(t *testing.T) {
	registry := NewProviderRegistry()
	registry.Register("custom", func(apiKey, model string, extraHeaders map[string]string) Provider {
		return NewMockProvider("http://localhost:9999", model, extraHeaders)
	})

	provider, err := registry.Get("custom", "key", "my-model", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}
