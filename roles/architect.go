package roles

import (
	"context"
	"fmt"

	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/models"
	"github.com/promptc-ai/promptc/utils"
)

// Architect synthesizes candidate prompts optimized for a target model from
// a fixed intermediate representation. Each design call is independent; no
// state carries over between attempts beyond the IR and optional judge
// feedback.
type Architect struct {
	agent
}

// NewArchitect builds an Architect over the given client.
func NewArchitect(client llm.LLM, logger utils.Logger) *Architect {
	return &Architect{agent{role: RoleArchitect, client: client, logger: logger}}
}

// Design produces one candidate prompt for the target model. The target's
// formatting idioms come from the model catalog and are forwarded verbatim;
// the Architect does not interpret them. feedback may be empty.
func (a *Architect) Design(ctx context.Context, rep ir.Representation, target models.Model, feedback string) (string, error) {
	a.logger.Info("Architect designing prompt", "target_model", target.Name)

	instruction := fmt.Sprintf(
		"You are a Prompt Architect. Your goal is to write a highly optimized system "+
			"prompt for the model '%s'.\n"+
			"Model Prompting Tips: %s\n"+
			"Target Prompt Style: %s\n"+
			"Do NOT look at the original prompt (Clean Room). Use ONLY the provided specification.",
		target.Name, target.PromptingTips, target.PromptStyle,
	)

	input := fmt.Sprintf("Specification:\n%s", rep.SpecText())
	if feedback != "" {
		input += fmt.Sprintf(
			"\n\nCRITICAL FEEDBACK FROM PREVIOUS ITERATION:\n%s\nAddress this feedback in your new design.",
			feedback,
		)
	}
	input += "\n\nWrite the optimized prompt:"

	candidate, err := a.Invoke(ctx, instruction, input)
	if err != nil {
		return "", err
	}

	a.logger.Debug("Architect generated prompt", "length", len(candidate))
	return candidate, nil
}
