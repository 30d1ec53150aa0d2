package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/utils"
)

// Verdict holds the component scores the Judge assigns to one candidate.
// All sub-scores are in [0,1].
type Verdict struct {
	IntentScore      float64            `json:"primary_intent_score" jsonschema_description:"How faithfully the candidate preserves the primary intent, 0.0 to 1.0" validate:"min=0,max=1"`
	ToneScore        float64            `json:"tone_voice_score" jsonschema_description:"How well the candidate matches the required tone, 0.0 to 1.0" validate:"min=0,max=1"`
	ConstraintScores map[string]float64 `json:"constraint_scores" jsonschema_description:"Per-constraint coverage scores, 0.0 to 1.0" validate:"dive,min=0,max=1"`
	FeedbackHint     string             `json:"feedback_hint" jsonschema_description:"Short constructive hint for the Architect"`
}

// Judge rates a candidate prompt against the intermediate representation.
type Judge struct {
	agent
}

// NewJudge builds a Judge over the given client.
func NewJudge(client llm.LLM, logger utils.Logger) *Judge {
	return &Judge{agent{role: RoleJudge, client: client, logger: logger}}
}

const judgeInstruction = "You are a Judge. Rate how well a candidate prompt (and its test response, " +
	"when provided) fulfills a specification. Score each dimension from 0.0 to 1.0. " +
	"Also provide a short constructive hint for the Architect to improve the prompt. " +
	"Do NOT leak the content of the baseline response in the hint."

// Evaluate rates one candidate. baseline and candidateResponse may be empty
// when the Historian and Pilot stages are disabled.
func (j *Judge) Evaluate(ctx context.Context, candidate, candidateResponse, baseline string, rep ir.Representation) (*Verdict, error) {
	j.logger.Info("Judge evaluating candidate")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Specification:\n%s\n", rep.SpecText())
	fmt.Fprintf(&sb, "Candidate Prompt:\n%s\n", candidate)
	if baseline != "" {
		fmt.Fprintf(&sb, "Baseline Response (reference, do not leak):\n%s\n", baseline)
	}
	if candidateResponse != "" {
		fmt.Fprintf(&sb, "Candidate Response:\n%s\n", candidateResponse)
	}
	sb.WriteString("\nRate the candidate on primary intent, tone, and each constraint.")

	schema := llm.GenerateSchema(&Verdict{})

	response, err := j.invokeWithSchema(ctx, judgeInstruction, sb.String(), schema)
	if err != nil {
		return nil, err
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(ir.CleanJSON(response)), &verdict); err != nil {
		j.logger.Error("Judge returned invalid JSON", "error", err)
		return nil, malformedError(RoleJudge, err)
	}

	if err := llm.Validate(verdict); err != nil {
		return nil, malformedError(RoleJudge, err)
	}

	j.logger.Debug("Judge scores",
		"intent", verdict.IntentScore,
		"tone", verdict.ToneScore,
		"constraints", len(verdict.ConstraintScores))
	return &verdict, nil
}

// ConstraintAverage is the mean of the per-constraint scores, 0 when none
// were rated.
func (v *Verdict) ConstraintAverage() float64 {
	if len(v.ConstraintScores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range v.ConstraintScores {
		sum += s
	}
	return sum / float64(len(v.ConstraintScores))
}
