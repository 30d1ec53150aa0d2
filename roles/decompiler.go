package roles

import (
	"context"
	"fmt"

	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/utils"
)

const decompilerInstruction = `You are an expert LLM Decompiler. Your job is to convert raw prompts into a
Model-Agnostic Intermediate Representation (IR).

### CRITICAL INSTRUCTION: "Template" vs "Payload"
You must classify the user's request into one of two types:

1. TYPE A: ABSTRACT TEMPLATE
- User asks: "Write a prompt to summarize movies."
- Action: Create a reusable tool.
- Variables: Extract "movies" as {{variable}}.

2. TYPE B: CONCRETE PAYLOAD (Most Common)
- User asks: "Summarize 'Fight Club'."
- Action: The user wants a result NOW for this specific entity.
- Rule: 'Fight Club' is NOT a variable. It is CONTEXT.
- Rule: Do NOT extract specific entities as variables if the user provided them.
- Rule: Embed the specific data directly into the intent or context fields.

Respond with a single JSON object matching the provided schema. Deduplicate
constraints. Preserve the order of few-shot examples exactly as they appear.`

// Decompiler reverse-engineers an original prompt into a structured,
// model-agnostic intermediate representation. It runs exactly once per
// compilation run and is never retried by the inner loop.
type Decompiler struct {
	agent
}

// NewDecompiler builds a Decompiler over the given client.
func NewDecompiler(client llm.LLM, logger utils.Logger) *Decompiler {
	return &Decompiler{agent{role: RoleDecompiler, client: client, logger: logger}}
}

// Decompile extracts the intermediate representation from a raw prompt.
// A transport failure surfaces as *AgentError; output that arrived but did
// not conform to the IR shape surfaces as an ir.ErrParse-wrapped error so
// callers can tell the two apart.
func (d *Decompiler) Decompile(ctx context.Context, rawPrompt, sourceModel string) (ir.Representation, error) {
	d.logger.Info("Decompiler starting analysis", "source_model", sourceModel)

	input := fmt.Sprintf("Analyze this prompt and extract the specification:\n\n%s", rawPrompt)
	schema := llm.GenerateSchema(&ir.Representation{})

	response, err := d.invokeWithSchema(ctx, decompilerInstruction, input, schema)
	if err != nil {
		return ir.Representation{}, err
	}

	rep, err := ir.Parse(response)
	if err != nil {
		d.logger.Error("Decompiler output did not conform to IR shape", "error", err)
		return ir.Representation{}, err
	}

	d.logger.Debug("Decompiler extracted IR", "intent", rep.PrimaryIntent, "constraints", len(rep.Constraints))
	return rep, nil
}
