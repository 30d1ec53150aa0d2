package compiler

import (
	"time"

	"github.com/promptc-ai/promptc/ir"
)

// Status is the terminal state of a compilation run.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusExhausted Status = "exhausted"
	StatusCancelled Status = "cancelled"
)

// Attempt records one loop iteration. Attempts are immutable once appended
// to the history.
type Attempt struct {
	Number          int                `json:"number"`
	CandidatePrompt string             `json:"candidate_prompt"`
	Score           *float64           `json:"score,omitempty"` // absent when scoring failed
	Breakdown       map[string]float64 `json:"breakdown,omitempty"`
	Accepted        bool               `json:"accepted"`
	Failed          bool               `json:"failed"`
	FailureReason   string             `json:"failure_reason,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
}

// Result is the outcome of one compilation run. Prompt is the best-scoring
// candidate seen across all attempts, which is not necessarily the last one
// produced.
type Result struct {
	RunID          string            `json:"run_id"`
	Prompt         string            `json:"prompt"`
	FinalScore     float64           `json:"final_score"`
	Accepted       bool              `json:"accepted"`
	Status         Status            `json:"status"`
	History        []Attempt         `json:"history"`
	SourceModel    string            `json:"source_model"`
	SourceProvider string            `json:"source_provider"`
	TargetModel    string            `json:"target_model"`
	TargetProvider string            `json:"target_provider"`
	Representation ir.Representation `json:"representation"`

	// Populated when the Historian / Pilot stages are enabled.
	BaselineResponse  string `json:"baseline_response,omitempty"`
	CandidateResponse string `json:"candidate_response,omitempty"`
}

// Request describes one compilation run. The loop-control fields override
// the pipeline defaults when set; nil means "use the configured value".
type Request struct {
	RawPrompt      string
	SourceModel    string
	SourceProvider string
	TargetModel    string
	TargetProvider string

	MaxRetries        *int     // nil = use pipeline default
	ScoreThreshold    *float64 // nil = use pipeline default
	EarlyStopPatience *int     // nil = use pipeline default
}
