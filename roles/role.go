// Package roles implements the five agent roles of the compilation pipeline:
// Decompiler, Architect, Judge, Pilot, and Historian. The roles differ only
// in instruction template and output parsing; all share one invocation
// contract over a provider-bound llm client.
package roles

import (
	"context"

	"github.com/promptc-ai/promptc/llm"
	"github.com/promptc-ai/promptc/utils"
)

// Role identifies an agent role.
type Role string

const (
	RoleDecompiler Role = "decompiler"
	RoleArchitect  Role = "architect"
	RoleJudge      Role = "judge"
	RolePilot      Role = "pilot"
	RoleHistorian  Role = "historian"
)

// Agent is the single contract all role variants are polymorphic over:
// given a role-specific instruction and input text, produce text output or
// fail with an *AgentError.
type Agent interface {
	Role() Role
	Invoke(ctx context.Context, instruction, input string) (string, error)
}

// agent is the shared base for all role implementations.
type agent struct {
	role   Role
	client llm.LLM
	logger utils.Logger
}

func (a *agent) Role() Role {
	return a.role
}

// Invoke sends one instruction/input pair to the role's model. Transport and
// API failures come back as *AgentError; they are never swallowed here.
func (a *agent) Invoke(ctx context.Context, instruction, input string) (string, error) {
	a.client.SetSystemPrompt(instruction)

	response, err := a.client.Generate(ctx, input)
	if err != nil {
		return "", newAgentError(a.role, err)
	}
	return response, nil
}

// invokeWithSchema is Invoke with schema-guided generation. Providers
// without native schema support get the schema rendered into the prompt.
func (a *agent) invokeWithSchema(ctx context.Context, instruction, input string, schema any) (string, error) {
	a.client.SetSystemPrompt(instruction)

	response, err := a.client.GenerateWithSchema(ctx, input, schema)
	if err != nil {
		return "", newAgentError(a.role, err)
	}
	return response, nil
}
