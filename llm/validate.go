package llm

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used across the package.
var validate = validator.New()

// Validate checks a struct against its validator tags. Role agents run
// model output through this before trusting it.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
