package llm

import (
	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON schema from a Go struct. The result is
// inlined (no $ref indirection) so it can be sent directly to providers
// that accept a response schema.
func GenerateSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflector.Reflect(v)
}
