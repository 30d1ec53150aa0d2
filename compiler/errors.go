package compiler

import "fmt"

// ConfigError reports an invalid pipeline configuration. It is raised
// before any agent call is made.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// DecompileError reports that the one-shot IR construction step could not
// produce a valid representation. It is fatal to the run and never retried
// internally; unwrap to distinguish a transport failure (*roles.AgentError)
// from nonconforming output (ir.ErrParse).
type DecompileError struct {
	Err error
}

func (e *DecompileError) Error() string {
	return fmt.Sprintf("decompilation failed: %v", e.Err)
}

func (e *DecompileError) Unwrap() error {
	return e.Err
}
