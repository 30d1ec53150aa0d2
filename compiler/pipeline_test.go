package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/ir"
	"github.com/promptc-ai/promptc/models"
	"github.com/promptc-ai/promptc/roles"
	"github.com/promptc-ai/promptc/scoring"
	"github.com/promptc-ai/promptc/utils"
)

type stubDecompiler struct {
	rep   ir.Representation
	err   error
	calls int
}

func (s *stubDecompiler) Decompile(_ context.Context, _, _ string) (ir.Representation, error) {
	s.calls++
	return s.rep, s.err
}

type stubArchitect struct {
	errs     []error // per-call, nil means success
	calls    int
	feedback []string // feedback received per call
	onCall   func(n int)
}

func (s *stubArchitect) Design(_ context.Context, _ ir.Representation, _ models.Model, feedback string) (string, error) {
	s.calls++
	s.feedback = append(s.feedback, feedback)
	if s.onCall != nil {
		s.onCall(s.calls)
	}
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return "", s.errs[s.calls-1]
	}
	return fmt.Sprintf("candidate %d", s.calls), nil
}

type stubScorer struct {
	scores []float64
	errs   []error
	calls  int
}

func (s *stubScorer) Score(_ context.Context, _ scoring.Candidate, _ ir.Representation) (*scoring.Evaluation, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	score := s.scores[s.calls-1]
	return &scoring.Evaluation{
		Score:     score,
		Breakdown: map[string]float64{"intent_fidelity": score},
		Feedback:  fmt.Sprintf("hint after attempt %d", s.calls),
	}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetBaseline(false), config.SetPilot(false))
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, dec decompiler, arc architect, sc scorer) *Pipeline {
	t.Helper()
	logger := utils.NewLogger(utils.LogLevelOff)
	return &Pipeline{
		cfg:        cfg,
		catalog:    models.NewRegistry(logger),
		logger:     logger,
		decompiler: dec,
		architect:  arc,
		engine:     sc,
	}
}

func testRequest() Request {
	return Request{
		RawPrompt:      "Summarize the quarterly report in three bullet points.",
		SourceModel:    "gpt-4o",
		SourceProvider: "openai",
		TargetModel:    "claude-3-5-sonnet-20241022",
		TargetProvider: "anthropic",
	}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestRunAcceptsWhenThresholdMet(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "summarize reports"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.9}}

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.True(t, result.Accepted)
	assert.Equal(t, "candidate 1", result.Prompt)
	assert.Equal(t, 0.9, result.FinalScore)
	assert.NotEmpty(t, result.RunID)

	// The history ends at the accepting attempt: no wasted calls after
	// the threshold is met.
	require.Len(t, result.History, 1)
	assert.True(t, result.History[0].Accepted)
	assert.Equal(t, 1, result.History[0].Number)
	require.NotNil(t, result.History[0].Score)
	assert.Equal(t, 0.9, *result.History[0].Score)
	assert.Equal(t, 1, arc.calls)
}

func TestRunStopsAtAcceptingAttempt(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "classify tickets"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.5, 0.85, 0.99}}

	req := testRequest()
	req.MaxRetries = intPtr(5)
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, result.Status)
	require.Len(t, result.History, 2)
	assert.True(t, result.History[1].Accepted)
	assert.Equal(t, "candidate 2", result.Prompt)
	assert.Equal(t, 2, arc.calls)
}

func TestRunExhaustsRetryBudget(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "translate text"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.1, 0.2, 0.3}}

	req := testRequest()
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusExhausted, result.Status)
	assert.False(t, result.Accepted)
	require.Len(t, result.History, 3)
	assert.Equal(t, "candidate 3", result.Prompt)
	assert.Equal(t, 0.3, result.FinalScore)
}

func TestRunEarlyStopsWithoutImprovement(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "extract entities"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.4, 0.3, 0.5, 0.6}}

	req := testRequest()
	req.MaxRetries = intPtr(4)
	req.EarlyStopPatience = intPtr(1)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	// Attempt 2 does not beat attempt 1, so patience 1 ends the run
	// there even though later attempts would have scored higher.
	assert.Equal(t, StatusExhausted, result.Status)
	require.Len(t, result.History, 2)
	assert.Equal(t, "candidate 1", result.Prompt)
	assert.Equal(t, 0.4, result.FinalScore)
	assert.Equal(t, 2, arc.calls)
}

func TestRunPatienceZeroStopsAfterFirstAttempt(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "label images"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}

	req := testRequest()
	req.MaxRetries = intPtr(5)
	req.ScoreThreshold = floatPtr(0.95)
	req.EarlyStopPatience = intPtr(0)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	// Patience 0 tolerates no attempts beyond the first: even a run of
	// steadily improving scores ends after one attempt.
	assert.Equal(t, StatusExhausted, result.Status)
	require.Len(t, result.History, 1)
	assert.Equal(t, "candidate 1", result.Prompt)
	assert.Equal(t, 0.1, result.FinalScore)
	assert.Equal(t, 1, arc.calls)
}

func TestRunPatienceZeroStillAccepts(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "label images"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.9}}

	req := testRequest()
	req.EarlyStopPatience = intPtr(0)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	// Acceptance is checked before the early-stop rule.
	assert.Equal(t, StatusAccepted, result.Status)
	assert.True(t, result.Accepted)
}

func TestRunReturnsBestAttemptNotLast(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "write release notes"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.5, 0.9, 0.6}}

	req := testRequest()
	req.ScoreThreshold = floatPtr(0.95)
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusExhausted, result.Status)
	assert.Equal(t, "candidate 2", result.Prompt)
	assert.Equal(t, 0.9, result.FinalScore)
	require.Len(t, result.History, 3)
}

func TestRunTieKeepsEarlierAttempt(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "review code"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.7, 0.9, 0.9}}

	req := testRequest()
	req.ScoreThreshold = floatPtr(0.95)
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "candidate 2", result.Prompt)
	assert.Equal(t, 0.9, result.FinalScore)
}

func TestRunRejectsInvalidOverridesBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Request)
		field string
	}{
		{
			name:  "negative max retries",
			edit:  func(r *Request) { r.MaxRetries = intPtr(-1) },
			field: "max_retries",
		},
		{
			name:  "zero max retries",
			edit:  func(r *Request) { r.MaxRetries = intPtr(0) },
			field: "max_retries",
		},
		{
			name:  "threshold above one",
			edit:  func(r *Request) { r.ScoreThreshold = floatPtr(1.5) },
			field: "score_threshold",
		},
		{
			name:  "negative threshold",
			edit:  func(r *Request) { r.ScoreThreshold = floatPtr(-0.1) },
			field: "score_threshold",
		},
		{
			name:  "negative patience",
			edit:  func(r *Request) { r.EarlyStopPatience = intPtr(-2) },
			field: "early_stop_patience",
		},
		{
			name:  "empty prompt",
			edit:  func(r *Request) { r.RawPrompt = "" },
			field: "raw_prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := &stubDecompiler{}
			arc := &stubArchitect{}
			sc := &stubScorer{}

			req := testRequest()
			tt.edit(&req)

			p := newTestPipeline(t, testConfig(t), dec, arc, sc)
			result, err := p.Run(context.Background(), req)

			require.Nil(t, result)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)

			// The bad request must be rejected before any agent runs.
			assert.Zero(t, dec.calls)
			assert.Zero(t, arc.calls)
			assert.Zero(t, sc.calls)
		})
	}
}

func TestRunDecompileFailureIsFatal(t *testing.T) {
	cause := &roles.AgentError{Role: roles.RoleDecompiler, Reason: roles.ReasonTimeout, Err: errors.New("deadline exceeded")}
	dec := &stubDecompiler{err: cause}
	arc := &stubArchitect{}
	sc := &stubScorer{}

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), testRequest())

	require.Nil(t, result)
	var decErr *DecompileError
	require.ErrorAs(t, err, &decErr)

	// The cause stays reachable so callers can tell transport trouble
	// from nonconforming output.
	var agentErr *roles.AgentError
	assert.ErrorAs(t, err, &agentErr)

	assert.Equal(t, 1, dec.calls)
	assert.Zero(t, arc.calls)
}

func TestRunDecompileParseFailureIsFatal(t *testing.T) {
	dec := &stubDecompiler{err: fmt.Errorf("decoding representation: %w", ir.ErrParse)}
	p := newTestPipeline(t, testConfig(t), dec, &stubArchitect{}, &stubScorer{})

	_, err := p.Run(context.Background(), testRequest())
	var decErr *DecompileError
	require.ErrorAs(t, err, &decErr)
	assert.ErrorIs(t, err, ir.ErrParse)
}

func TestRunRecordsArchitectFailureAndContinues(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "draft emails"}}
	arc := &stubArchitect{errs: []error{
		&roles.AgentError{Role: roles.RoleArchitect, Reason: roles.ReasonProviderError, Err: errors.New("503")},
	}}
	sc := &stubScorer{scores: []float64{0.9}}

	req := testRequest()
	req.EarlyStopPatience = intPtr(3)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.History, 2)
	first := result.History[0]
	assert.True(t, first.Failed)
	assert.Nil(t, first.Score)
	assert.Equal(t, "provider-error", first.FailureReason)

	assert.Equal(t, StatusAccepted, result.Status)
	assert.Equal(t, "candidate 2", result.Prompt)
}

func TestRunScoringFailureCountsAgainstPatience(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "tag documents"}}
	arc := &stubArchitect{}
	sc := &stubScorer{
		scores: []float64{0.6, 0, 0},
		errs: []error{
			nil,
			&roles.AgentError{Role: roles.RoleJudge, Reason: roles.ReasonMalformedResponse, Err: errors.New("bad json")},
			&roles.AgentError{Role: roles.RoleJudge, Reason: roles.ReasonMalformedResponse, Err: errors.New("bad json")},
		},
	}

	req := testRequest()
	req.MaxRetries = intPtr(5)
	req.EarlyStopPatience = intPtr(2)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	// Two failed evaluations in a row exhaust patience 2.
	require.Len(t, result.History, 3)
	assert.Equal(t, "malformed-response", result.History[1].FailureReason)
	assert.Equal(t, "candidate 1", result.Prompt)
	assert.Equal(t, 0.6, result.FinalScore)
}

func TestRunAllFailuresStillReturnsResult(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "plan sprints"}}
	agentErr := &roles.AgentError{Role: roles.RoleArchitect, Reason: roles.ReasonTimeout, Err: errors.New("timeout")}
	arc := &stubArchitect{errs: []error{agentErr, agentErr, agentErr}}
	sc := &stubScorer{}

	req := testRequest()
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, StatusExhausted, result.Status)
	assert.False(t, result.Accepted)
	assert.Empty(t, result.Prompt)
	assert.Zero(t, result.FinalScore)
	require.Len(t, result.History, 3)
	for _, attempt := range result.History {
		assert.True(t, attempt.Failed)
		assert.Equal(t, "timeout", attempt.FailureReason)
	}
}

func TestRunCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "answer questions"}}
	arc := &stubArchitect{onCall: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	sc := &stubScorer{scores: []float64{0.5}}

	req := testRequest()
	req.MaxRetries = intPtr(5)
	req.ScoreThreshold = floatPtr(0.95)
	req.EarlyStopPatience = intPtr(10)

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	result, err := p.Run(ctx, req)
	require.NoError(t, err)

	// A cancellation between attempts is an orderly outcome: best-so-far
	// plus the status, never an error.
	assert.Equal(t, StatusCancelled, result.Status)
	require.Len(t, result.History, 1)
	assert.Equal(t, "candidate 1", result.Prompt)
	assert.Equal(t, 0.5, result.FinalScore)
	assert.Equal(t, 1, arc.calls)
}

func TestRunFeedbackReachesNextAttempt(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "summarize calls"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.5, 0.9}}

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	_, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, arc.feedback, 2)
	assert.Empty(t, arc.feedback[0])
	assert.Equal(t, "hint after attempt 1", arc.feedback[1])
}

func TestRunWritesDebugArtifacts(t *testing.T) {
	dec := &stubDecompiler{rep: ir.Representation{PrimaryIntent: "summarize reports"}}
	arc := &stubArchitect{}
	sc := &stubScorer{scores: []float64{0.9}}

	dir := t.TempDir()
	dm := utils.NewDebugManager(utils.NewLogger(utils.LogLevelOff), utils.DebugOptions{
		Enabled:    true,
		SaveToFile: true,
		LogPrompts: true,
		OutputDir:  dir,
	})

	p := newTestPipeline(t, testConfig(t), dec, arc, sc)
	p.debug = dm

	_, err := p.Run(context.Background(), testRequest())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "prompts.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "candidate 1")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var attemptFiles int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "attempt_") {
			attemptFiles++
		}
	}
	assert.Equal(t, 1, attemptFiles)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.MaxRetries = 0

	logger := utils.NewLogger(utils.LogLevelOff)
	_, err := New(cfg, nil, logger)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
