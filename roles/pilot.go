package roles

import (
	"context"

	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/utils"
)

const assistantInstruction = "You are a helpful assistant."

// Pilot test-flies a candidate prompt against the target model so the Judge
// can rate real behavior instead of prompt text alone.
type Pilot struct {
	agent
}

// NewPilot builds a Pilot over a client bound to the compilation target.
func NewPilot(client llm.LLM, logger utils.Logger) *Pilot {
	return &Pilot{agent{role: RolePilot, client: client, logger: logger}}
}

// TestFly executes the candidate prompt on the target model and returns the
// response.
func (p *Pilot) TestFly(ctx context.Context, candidate string) (string, error) {
	p.logger.Info("Pilot testing candidate", "model", p.client.Model())

	response, err := p.Invoke(ctx, assistantInstruction, candidate)
	if err != nil {
		return "", err
	}

	p.logger.Debug("Pilot test complete", "response_length", len(response))
	return response, nil
}
