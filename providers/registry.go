package providers

import (
	"fmt"
	"sync"
)

// ProviderRegistry manages the registration and retrieval of LLM providers.
// It provides thread-safe access to provider constructors and supports
// dynamic provider registration.
type ProviderRegistry struct {
	providers map[string]ProviderConstructor
	mutex     sync.RWMutex
}

// NewProviderRegistry creates a new provider registry with the specified
// providers. If no providers are specified, all known providers are
// registered by default.
func NewProviderRegistry(providerNames ...string) *ProviderRegistry {
	registry := &ProviderRegistry{
		providers: make(map[string]ProviderConstructor),
	}

	knownProviders := getKnownProviders()

	if len(providerNames) == 0 {
		for name, constructor := range knownProviders {
			registry.providers[name] = constructor
		}
	} else {
		for _, name := range providerNames {
			if constructor, ok := knownProviders[name]; ok {
				registry.providers[name] = constructor
			}
		}
	}

	return registry
}

// getKnownProviders returns all known provider constructors
func getKnownProviders() map[string]ProviderConstructor {
	return map[string]ProviderConstructor{
		"openai": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewOpenAIProvider(apiKey, model, extraHeaders)
		},
		"anthropic": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewAnthropicProvider(apiKey, model, extraHeaders)
		},
		"gemini": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewGeminiProvider(apiKey, model, extraHeaders)
		},
		"google": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewGeminiProvider(apiKey, model, extraHeaders)
		},
		"mock": func(apiKey, model string, extraHeaders map[string]string) Provider {
			return NewMockProvider("mock://", model, extraHeaders)
		},
	}
}

// Register adds a new provider constructor to the registry.
// This method is thread-safe and can be used to dynamically add new providers.
func (r *ProviderRegistry) Register(name string, constructor ProviderConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.providers[name] = constructor
}

// Get retrieves a provider instance by name.
// It creates a new provider instance using the registered constructor.
func (r *ProviderRegistry) Get(name, apiKey, model string, extraHeaders map[string]string) (Provider, error) {
	r.mutex.RLock()
	constructor, exists := r.providers[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return constructor(apiKey, model, extraHeaders), nil
}
