// Package ir defines the model-agnostic intermediate representation a prompt
// is decompiled into. A Representation is built once per compilation run and
// never mutated afterwards; every Architect attempt reads the same value.
package ir

import (
	"fmt"
	"strings"
)

// Example is one input/output pair illustrating expected behavior. Example
// order is preserved end to end: examples describe a sequence, not a set.
type Example struct {
	Input  string `json:"input" validate:"required"`
	Output string `json:"output" validate:"required"`
}

// Representation captures a prompt's intent independent of any provider.
type Representation struct {
	PrimaryIntent   string    `json:"primary_intent" jsonschema_description:"The core goal of the prompt" validate:"required"`
	ToneVoice       string    `json:"tone_voice" jsonschema_description:"Required register, e.g. robotic or Socratic"`
	DomainContext   string    `json:"domain_context" jsonschema_description:"The specific data or domain to process"`
	Constraints     []string  `json:"constraints" jsonschema_description:"Hard requirements on the output"`
	InputFormat     string    `json:"input_format" jsonschema_description:"Expected shape of the input"`
	OutputSchema    string    `json:"output_schema" jsonschema_description:"Expected shape of the output"`
	FewShotExamples []Example `json:"few_shot_examples" jsonschema_description:"Ordered input/output example pairs"`
}

// DefaultTone is used when the decompiler leaves the register unspecified.
const DefaultTone = "neutral"

// Normalize fills defaults and deduplicates constraints while preserving
// their first-seen order. It returns a new value; the receiver is not
// modified.
func (r Representation) Normalize() Representation {
	if strings.TrimSpace(r.ToneVoice) == "" {
		r.ToneVoice = DefaultTone
	}

	seen := make(map[string]struct{}, len(r.Constraints))
	deduped := make([]string, 0, len(r.Constraints))
	for _, c := range r.Constraints {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		deduped = append(deduped, c)
	}
	r.Constraints = deduped

	return r
}

// SpecText renders the representation as the specification block handed to
// the Architect.
func (r Representation) SpecText() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Primary Intent: %s\n", r.PrimaryIntent)
	fmt.Fprintf(&sb, "Tone/Voice: %s\n", r.ToneVoice)
	if r.DomainContext != "" {
		fmt.Fprintf(&sb, "Domain: %s\n", r.DomainContext)
	}
	if len(r.Constraints) > 0 {
		sb.WriteString("Constraints:\n")
		for _, c := range r.Constraints {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	if r.InputFormat != "" {
		fmt.Fprintf(&sb, "Input Format: %s\n", r.InputFormat)
	}
	if r.OutputSchema != "" {
		fmt.Fprintf(&sb, "Output Schema: %s\n", r.OutputSchema)
	}
	if len(r.FewShotExamples) > 0 {
		sb.WriteString("Few-Shot Examples:\n")
		for _, ex := range r.FewShotExamples {
			fmt.Fprintf(&sb, "Input: %s\nOutput: %s\n", ex.Input, ex.Output)
		}
	}

	return sb.String()
}
