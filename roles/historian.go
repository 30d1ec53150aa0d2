package roles

import (
	"context"

	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/utils"
)

// Historian benchmarks the original prompt against its native model to give
// the Judge a baseline response to compare candidates with.
type Historian struct {
	agent
}

// NewHistorian builds a Historian over a client bound to the source model.
func NewHistorian(client llm.LLM, logger utils.Logger) *Historian {
	return &Historian{agent{role: RoleHistorian, client: client, logger: logger}}
}

// EstablishBaseline executes the original prompt on the source model and
// returns its response.
func (h *Historian) EstablishBaseline(ctx context.Context, rawPrompt string) (string, error) {
	h.logger.Info("Historian starting baseline run", "model", h.client.Model())

	response, err := h.Invoke(ctx, assistantInstruction, rawPrompt)
	if err != nil {
		return "", err
	}

	h.logger.Info("Historian baseline captured", "response_length", len(response))
	return response, nil
}
