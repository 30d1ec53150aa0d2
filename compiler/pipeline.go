// Package compiler implements the compilation control loop: decompile the
// source prompt into an intermediate representation, then iterate
// Architect -> Pilot -> Judge until a candidate meets the acceptance
// threshold, the retry budget runs out, or the run stops improving.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/models"
	"github.com/promptc-ai/promptc/providers"
	"github.com/promptc-ai/promptc/roles"
	"github.com/promptc-ai/promptc/scoring"
	"github.com/promptc-ai/promptc/utils"
)

// decompiler, architect, and scorer are the seams between the loop and the
// live agents.
type decompiler interface {
	Decompile(ctx context.Context, rawPrompt, sourceModel string) (ir.Representation, error)
}

type architect interface {
	Design(ctx context.Context, rep ir.Representation, target models.Model, feedback string) (string, error)
}

type scorer interface {
	Score(ctx context.Context, cand scoring.Candidate, rep ir.Representation) (*scoring.Evaluation, error)
}

// Pipeline orchestrates one compilation run at a time. Concurrent runs each
// need their own Pipeline so no state is shared between them.
type Pipeline struct {
	cfg      *config.Config
	factory  *roles.Factory
	catalog  *models.Registry
	criteria []scoring.Criterion
	logger   utils.Logger
	debug    *utils.DebugManager

	decompiler decompiler
	architect  architect
	engine     scorer
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithCriteria replaces the default scoring rubric.
func WithCriteria(criteria []scoring.Criterion) Option {
	return func(p *Pipeline) {
		p.criteria = criteria
	}
}

// WithDebugManager attaches per-attempt debug output.
func WithDebugManager(dm *utils.DebugManager) Option {
	return func(p *Pipeline) {
		p.debug = dm
	}
}

// WithModelCatalog replaces the default model catalog.
func WithModelCatalog(catalog *models.Registry) Option {
	return func(p *Pipeline) {
		p.catalog = catalog
	}
}

// New builds a pipeline over the given provider registry. Configuration is
// validated here, before any agent call can happen; an invalid loop control
// or an empty rubric returns a *ConfigError.
func New(cfg *config.Config, registry *providers.ProviderRegistry, logger utils.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Field: "config", Message: err.Error()}
	}

	p := &Pipeline{
		cfg:      cfg,
		factory:  roles.NewFactory(cfg, registry, logger),
		catalog:  models.NewRegistry(logger),
		criteria: scoring.DefaultCriteria(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	if p.decompiler, err = p.factory.Decompiler(); err != nil {
		return nil, &ConfigError{Field: "decompiler", Message: err.Error()}
	}
	if p.architect, err = p.factory.Architect(); err != nil {
		return nil, &ConfigError{Field: "architect", Message: err.Error()}
	}

	judge, err := p.factory.Judge()
	if err != nil {
		return nil, &ConfigError{Field: "judge", Message: err.Error()}
	}
	p.engine, err = scoring.NewEngine(p.criteria, judge, logger)
	if err != nil {
		return nil, &ConfigError{Field: "criteria", Message: err.Error()}
	}

	return p, nil
}

// loopControls are the effective settings for one run after request
// overrides are applied.
type loopControls struct {
	maxRetries        int
	scoreThreshold    float64
	earlyStopPatience int
}

func (p *Pipeline) resolveControls(req Request) (loopControls, error) {
	lc := loopControls{
		maxRetries:        p.cfg.MaxRetries,
		scoreThreshold:    p.cfg.ScoreThreshold,
		earlyStopPatience: p.cfg.EarlyStopPatience,
	}
	if req.MaxRetries != nil {
		lc.maxRetries = *req.MaxRetries
	}
	if req.ScoreThreshold != nil {
		lc.scoreThreshold = *req.ScoreThreshold
	}
	if req.EarlyStopPatience != nil {
		lc.earlyStopPatience = *req.EarlyStopPatience
	}

	if lc.maxRetries < 1 {
		return lc, &ConfigError{Field: "max_retries", Message: fmt.Sprintf("must be positive, got %d", lc.maxRetries)}
	}
	if lc.scoreThreshold < 0 || lc.scoreThreshold > 1 {
		return lc, &ConfigError{Field: "score_threshold", Message: fmt.Sprintf("must be in [0,1], got %g", lc.scoreThreshold)}
	}
	if lc.earlyStopPatience < 0 {
		return lc, &ConfigError{Field: "early_stop_patience", Message: fmt.Sprintf("must be non-negative, got %d", lc.earlyStopPatience)}
	}
	return lc, nil
}

// Run executes the compilation pipeline for one request. Agent failures
// inside the loop are recorded in history and never abort the run; the only
// errors returned are *ConfigError and *DecompileError. Cancellation
// between attempts yields the best-so-far result with StatusCancelled.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	lc, err := p.resolveControls(req)
	if err != nil {
		return nil, err
	}
	if req.RawPrompt == "" {
		return nil, &ConfigError{Field: "raw_prompt", Message: "must not be empty"}
	}

	p.logger.Info("Starting compilation pipeline",
		"source", req.SourceModel, "target", req.TargetModel, "max_retries", lc.maxRetries)

	target := p.catalog.Lookup(req.TargetModel, req.TargetProvider)

	pilot, err := p.buildPilot(req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:          uuid.NewString(),
		Status:         StatusExhausted,
		SourceModel:    req.SourceModel,
		SourceProvider: req.SourceProvider,
		TargetModel:    req.TargetModel,
		TargetProvider: req.TargetProvider,
	}

	// Stage 1: baseline. A baseline failure degrades scoring quality but
	// does not end the run.
	if p.cfg.EnableBaseline {
		if baseline, err := p.establishBaseline(ctx, req); err != nil {
			p.logger.Warn("Baseline run failed, continuing without it", "error", err)
		} else {
			result.BaselineResponse = baseline
		}
	}

	// Stage 2: decompile to IR. Runs exactly once; failure is fatal.
	rep, err := p.decompiler.Decompile(ctx, req.RawPrompt, req.SourceModel)
	if err != nil {
		return nil, &DecompileError{Err: err}
	}
	result.Representation = rep

	// Stage 3: the optimization loop.
	p.runLoop(ctx, req, lc, rep, target, pilot, result)
	return result, nil
}

func (p *Pipeline) establishBaseline(ctx context.Context, req Request) (string, error) {
	historian, err := p.factory.HistorianFor(req.SourceProvider, req.SourceModel)
	if err != nil {
		return "", err
	}
	return historian.EstablishBaseline(ctx, req.RawPrompt)
}

func (p *Pipeline) buildPilot(req Request) (*roles.Pilot, error) {
	if !p.cfg.EnablePilot {
		return nil, nil
	}
	pilot, err := p.factory.PilotFor(req.TargetProvider, req.TargetModel)
	if err != nil {
		return nil, &ConfigError{Field: "target_provider", Message: err.Error()}
	}
	return pilot, nil
}

func (p *Pipeline) runLoop(ctx context.Context, req Request, lc loopControls, rep ir.Representation, target models.Model, pilot *roles.Pilot, result *Result) {
	bestScore := -1.0
	bestIdx := -1
	sinceImprovement := 0
	feedback := ""

	for attemptNum := 1; attemptNum <= lc.maxRetries; attemptNum++ {
		select {
		case <-ctx.Done():
			p.logger.Warn("Compilation cancelled", "attempts", len(result.History))
			result.Status = StatusCancelled
			p.finalize(result, bestIdx, bestScore)
			return
		default:
		}

		p.logger.Info("Optimization loop", "attempt", attemptNum, "max", lc.maxRetries)

		attempt := Attempt{Number: attemptNum, Timestamp: time.Now()}

		candidate, err := p.architect.Design(ctx, rep, target, feedback)
		if err != nil {
			p.recordFailure(&attempt, err, result)
			sinceImprovement++
			if stalled(sinceImprovement, lc.earlyStopPatience) {
				p.logger.Warn("Early stopping: no improvement")
				break
			}
			continue
		}
		attempt.CandidatePrompt = candidate
		if p.debug != nil {
			p.debug.LogPrompt(candidate)
		}

		candidateResponse := ""
		if pilot != nil {
			if resp, err := pilot.TestFly(ctx, candidate); err != nil {
				p.logger.Warn("Pilot test failed, judging prompt text alone", "error", err)
			} else {
				candidateResponse = resp
				if p.debug != nil {
					p.debug.LogResponse(resp)
				}
			}
		}

		eval, err := p.engine.Score(ctx, scoring.Candidate{
			Prompt:   candidate,
			Response: candidateResponse,
			Baseline: result.BaselineResponse,
			Target:   target,
		}, rep)
		if err != nil {
			p.recordFailure(&attempt, err, result)
			sinceImprovement++
			if stalled(sinceImprovement, lc.earlyStopPatience) {
				p.logger.Warn("Early stopping: no improvement")
				break
			}
			continue
		}

		score := eval.Score
		attempt.Score = &score
		attempt.Breakdown = eval.Breakdown
		feedback = eval.Feedback

		// Strictly-greater keeps the earlier attempt on ties: stability
		// favors fewer, cheaper calls.
		if score > bestScore {
			bestScore = score
			bestIdx = len(result.History)
			result.CandidateResponse = candidateResponse
			sinceImprovement = 0
		} else {
			sinceImprovement++
		}

		if score >= lc.scoreThreshold {
			p.logger.Info("Threshold met", "score", score, "attempt", attemptNum)
			attempt.Accepted = true
			result.History = append(result.History, attempt)
			p.saveAttempt(attempt)
			result.Status = StatusAccepted
			result.Accepted = true
			p.finalize(result, bestIdx, bestScore)
			return
		}

		result.History = append(result.History, attempt)
		p.saveAttempt(attempt)

		if stalled(sinceImprovement, lc.earlyStopPatience) {
			p.logger.Warn("Early stopping: no improvement", "best_score", bestScore)
			break
		}
	}

	p.logger.Warn("Returning best candidate", "best_score", bestScore, "attempts", len(result.History))
	p.finalize(result, bestIdx, bestScore)
}

func (p *Pipeline) recordFailure(attempt *Attempt, err error, result *Result) {
	p.logger.Warn("Attempt failed", "attempt", attempt.Number, "error", err)
	attempt.Failed = true
	attempt.FailureReason = failureReason(err)
	result.History = append(result.History, *attempt)
	p.saveAttempt(*attempt)
}

func (p *Pipeline) finalize(result *Result, bestIdx int, bestScore float64) {
	if bestIdx < 0 {
		// Every attempt failed; a best-effort empty result still beats
		// an error.
		return
	}
	best := result.History[bestIdx]
	result.Prompt = best.CandidatePrompt
	result.FinalScore = bestScore
}

func (p *Pipeline) saveAttempt(attempt Attempt) {
	if p.debug != nil {
		p.debug.SaveAttempt(attempt.Number, attempt)
	}
}

// stalled reports whether the run has tolerated as many attempts without
// improvement as patience allows. The check runs after every recorded
// attempt, so patience 0 ends the run after its first attempt unless that
// attempt was accepted.
func stalled(sinceImprovement, patience int) bool {
	return sinceImprovement >= patience
}

func failureReason(err error) string {
	var agentErr *roles.AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Reason.String()
	}
	return "error"
}
