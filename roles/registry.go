package roles

import (
	"fmt"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/providers"
	"github.com/promptc-ai/promptc/utils"
)

// Factory builds role agents bound to concrete providers. Unknown provider
// names surface the provider registry's "unknown provider" error unchanged.
type Factory struct {
	cfg       *config.Config
	providers *providers.ProviderRegistry
	logger    utils.Logger
}

// NewFactory creates a role factory over the given provider registry.
func NewFactory(cfg *config.Config, registry *providers.ProviderRegistry, logger utils.Logger) *Factory {
	return &Factory{cfg: cfg, providers: registry, logger: logger}
}

func (f *Factory) client(binding config.RoleBinding) (llm.LLM, error) {
	client, err := llm.NewLLM(f.cfg, f.logger, f.providers, binding.Provider, binding.Model)
	if err != nil {
		return nil, fmt.Errorf("building client for %s/%s: %w", binding.Provider, binding.Model, err)
	}
	return client, nil
}

// Decompiler builds the Decompiler agent from its configured binding.
func (f *Factory) Decompiler() (*Decompiler, error) {
	client, err := f.client(f.cfg.DecompilerBinding())
	if err != nil {
		return nil, err
	}
	return NewDecompiler(client, f.logger), nil
}

// Architect builds the Architect agent from its configured binding.
func (f *Factory) Architect() (*Architect, error) {
	client, err := f.client(f.cfg.ArchitectBinding())
	if err != nil {
		return nil, err
	}
	return NewArchitect(client, f.logger), nil
}

// Judge builds the Judge agent from its configured binding.
func (f *Factory) Judge() (*Judge, error) {
	client, err := f.client(f.cfg.JudgeBinding())
	if err != nil {
		return nil, err
	}
	return NewJudge(client, f.logger), nil
}

// PilotFor builds a Pilot bound to the compilation target.
func (f *Factory) PilotFor(provider, model string) (*Pilot, error) {
	client, err := f.client(config.RoleBinding{Provider: provider, Model: model})
	if err != nil {
		return nil, err
	}
	return NewPilot(client, f.logger), nil
}

// HistorianFor builds a Historian bound to the source model.
func (f *Factory) HistorianFor(provider, model string) (*Historian, error) {
	client, err := f.client(config.RoleBinding{Provider: provider, Model: model})
	if err != nil {
		return nil, err
	}
	return NewHistorian(client, f.logger), nil
}
