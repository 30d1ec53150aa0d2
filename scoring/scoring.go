// Package scoring evaluates candidate prompts against a weighted rubric of
// named criteria. Criteria are either mechanical (deterministic local
// checks) or judged (rated by the Judge role against the intermediate
// representation); anything checkable without semantic judgment is checked
// locally for determinism and speed.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/models"
	"github.com/promptc-ai/promptc/roles"
	"github.com/promptc-ai/promptc/utils"
)

// Kind distinguishes how a criterion's sub-score is obtained.
type Kind int

const (
	// Mechanical criteria run a local deterministic check.
	Mechanical Kind = iota
	// Judged criteria take their sub-score from the Judge's verdict.
	Judged
)

// Judged criterion names recognized by the engine.
const (
	CriterionIntentFidelity     = "intent_fidelity"
	CriterionToneVoice          = "tone_voice"
	CriterionConstraintCoverage = "constraint_coverage"
)

// ErrNoCriteria reports an empty rubric. The score for an empty rubric is
// defined as 0 and the condition is a configuration error, never a division
// by zero.
var ErrNoCriteria = errors.New("scoring: criteria list is empty")

// Candidate bundles everything a criterion may inspect.
type Candidate struct {
	Prompt   string
	Response string // Pilot output, empty when the Pilot stage is disabled
	Baseline string // Historian output, empty when the baseline stage is disabled
	Target   models.Model
}

// CheckFunc is a deterministic local check returning a sub-score in [0,1].
type CheckFunc func(c Candidate) float64

// Criterion is one weighted rubric entry.
type Criterion struct {
	Name   string
	Weight float64
	Kind   Kind
	Check  CheckFunc // Mechanical criteria only
}

// Evaluation is the outcome of scoring one candidate.
type Evaluation struct {
	Score     float64
	Breakdown map[string]float64
	Feedback  string // Judge's hint for the next Architect attempt
}

// Judge is the slice of the Judge role the engine needs.
type Judge interface {
	Evaluate(ctx context.Context, candidate, candidateResponse, baseline string, rep ir.Representation) (*roles.Verdict, error)
}

// Engine computes the weighted score of a candidate against its rubric.
type Engine struct {
	criteria []Criterion
	judge    Judge
	logger   utils.Logger
}

// NewEngine validates the rubric and builds an engine. A judge is required
// only when the rubric contains judged criteria.
func NewEngine(criteria []Criterion, judge Judge, logger utils.Logger) (*Engine, error) {
	if len(criteria) == 0 {
		return nil, ErrNoCriteria
	}

	var totalWeight float64
	needsJudge := false
	for _, c := range criteria {
		if c.Weight < 0 {
			return nil, fmt.Errorf("scoring: criterion %q has negative weight", c.Name)
		}
		totalWeight += c.Weight
		switch c.Kind {
		case Mechanical:
			if c.Check == nil {
				return nil, fmt.Errorf("scoring: mechanical criterion %q has no check", c.Name)
			}
		case Judged:
			switch c.Name {
			case CriterionIntentFidelity, CriterionToneVoice, CriterionConstraintCoverage:
				needsJudge = true
			default:
				return nil, fmt.Errorf("scoring: unknown judged criterion %q", c.Name)
			}
		}
	}
	if totalWeight == 0 {
		return nil, fmt.Errorf("scoring: rubric weights sum to zero")
	}
	if needsJudge && judge == nil {
		return nil, fmt.Errorf("scoring: rubric has judged criteria but no judge")
	}

	return &Engine{criteria: criteria, judge: judge, logger: logger}, nil
}

// Score evaluates one candidate. Judged criteria share a single Judge
// invocation; a judge failure propagates so the pipeline can account for it,
// while mechanical criteria never fail.
func (e *Engine) Score(ctx context.Context, cand Candidate, rep ir.Representation) (*Evaluation, error) {
	breakdown := make(map[string]float64, len(e.criteria))

	var verdict *roles.Verdict
	if e.hasJudged() {
		v, err := e.judge.Evaluate(ctx, cand.Prompt, cand.Response, cand.Baseline, rep)
		if err != nil {
			return nil, err
		}
		verdict = v
	}

	var weightedSum, totalWeight float64
	for _, c := range e.criteria {
		var sub float64
		switch c.Kind {
		case Mechanical:
			sub = clamp01(c.Check(cand))
		case Judged:
			sub = clamp01(judgedSubscore(c.Name, verdict))
		}
		breakdown[c.Name] = sub
		weightedSum += c.Weight * sub
		totalWeight += c.Weight
	}

	eval := &Evaluation{
		Score:     clamp01(weightedSum / totalWeight),
		Breakdown: breakdown,
	}
	if verdict != nil {
		eval.Feedback = verdict.FeedbackHint
	}

	e.logger.Debug("Candidate scored", "score", eval.Score)
	return eval, nil
}

func (e *Engine) hasJudged() bool {
	for _, c := range e.criteria {
		if c.Kind == Judged {
			return true
		}
	}
	return false
}

func judgedSubscore(name string, v *roles.Verdict) float64 {
	if v == nil {
		return 0
	}
	switch name {
	case CriterionIntentFidelity:
		return v.IntentScore
	case CriterionToneVoice:
		return v.ToneScore
	case CriterionConstraintCoverage:
		return v.ConstraintAverage()
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DefaultCriteria is the standard rubric: the three judged dimensions carry
// the bulk of the weight, with mechanical checks for format correctness,
// conversational filler, and context-window fit.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: CriterionIntentFidelity, Weight: 0.4, Kind: Judged},
		{Name: CriterionToneVoice, Weight: 0.2, Kind: Judged},
		{Name: CriterionConstraintCoverage, Weight: 0.2, Kind: Judged},
		{Name: "format_correctness", Weight: 0.1, Kind: Mechanical, Check: StyleMarkers()},
		{Name: "no_filler", Weight: 0.05, Kind: Mechanical, Check: NoFiller()},
		{Name: "fits_context_window", Weight: 0.05, Kind: Mechanical, Check: FitsContextWindow()},
	}
}
