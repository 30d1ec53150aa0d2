package roles

import (
	"errors"
	"fmt"

	"github.com/promptc-ai/promptc/llm"
)

// FailureReason tags why an agent invocation failed.
type FailureReason int

const (
	ReasonProviderError FailureReason = iota
	ReasonTimeout
	ReasonMalformedResponse
)

func (r FailureReason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonMalformedResponse:
		return "malformed-response"
	default:
		return "provider-error"
	}
}

// AgentError is a failed agent invocation. The pipeline observes it and
// decides retry-vs-abort; it is never silently swallowed.
type AgentError struct {
	Role   Role
	Reason FailureReason
	Err    error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s agent failed (%s): %v", e.Role, e.Reason, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// newAgentError classifies an underlying transport error into the agent
// failure taxonomy.
func newAgentError(role Role, err error) *AgentError {
	return &AgentError{Role: role, Reason: classify(err), Err: err}
}

// malformedError tags output that arrived but could not be parsed.
func malformedError(role Role, err error) *AgentError {
	return &AgentError{Role: role, Reason: ReasonMalformedResponse, Err: err}
}

func classify(err error) FailureReason {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) {
		switch llmErr.Type {
		case llm.ErrorTypeTimeout:
			return ReasonTimeout
		case llm.ErrorTypeResponse:
			return ReasonMalformedResponse
		}
	}
	return ReasonProviderError
}
