package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrParse marks decompiler output that could not be turned into a valid
// Representation. It is distinct from a transport failure: the call
// succeeded but the model's output did not conform.
var ErrParse = errors.New("ir: output does not conform to representation shape")

var validate = validator.New()

// Parse turns raw decompiler output into a normalized Representation.
// Markdown code fences around the JSON body are tolerated.
func Parse(output string) (Representation, error) {
	cleaned := CleanJSON(output)

	var rep Representation
	if err := json.Unmarshal([]byte(cleaned), &rep); err != nil {
		return Representation{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	rep = rep.Normalize()

	if err := validate.Struct(rep); err != nil {
		return Representation{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return rep, nil
}

// CleanJSON strips markdown fences and leading prose, keeping the
// outermost JSON object.
func CleanJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "{") {
		return response
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start != -1 && end != -1 && end > start {
		return response[start : end+1]
	}

	return response
}
