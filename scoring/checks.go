package scoring

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/promptc-ai/promptc/models"
)

// MaxWords passes candidates whose prompt stays under the given word count.
func MaxWords(limit int) CheckFunc {
	return func(c Candidate) float64 {
		if len(strings.Fields(c.Prompt)) <= limit {
			return 1
		}
		return 0
	}
}

// fillerPhrases are conversational openers and asides that have no place in
// a compiled prompt.
var fillerPhrases = []string{
	"sure, here",
	"certainly!",
	"of course!",
	"as an ai",
	"i hope this helps",
	"here is the prompt",
	"here's the prompt",
	"let me know if",
}

// NoFiller passes candidates free of conversational filler.
func NoFiller() CheckFunc {
	return func(c Candidate) float64 {
		lower := strings.ToLower(c.Prompt)
		for _, phrase := range fillerPhrases {
			if strings.Contains(lower, phrase) {
				return 0
			}
		}
		return 1
	}
}

// StyleMarkers passes candidates that carry the structural markers of the
// target's preferred prompt style.
func StyleMarkers() CheckFunc {
	return func(c Candidate) float64 {
		switch c.Target.PromptStyle {
		case models.StyleXML:
			if strings.Contains(c.Prompt, "<") && strings.Contains(c.Prompt, ">") {
				return 1
			}
			return 0
		case models.StyleMarkdown:
			for _, marker := range []string{"#", "**", "\n-", "\n*"} {
				if strings.Contains(c.Prompt, marker) {
					return 1
				}
			}
			return 0
		default:
			return 1
		}
	}
}

// FitsContextWindow passes candidates whose token count fits the target's
// context window. Token counts use the target's tiktoken encoding; when the
// encoding is unavailable, a conservative bytes-per-token estimate keeps the
// check deterministic.
func FitsContextWindow() CheckFunc {
	return func(c Candidate) float64 {
		if c.Target.ContextWindow <= 0 {
			return 1
		}
		if tokenCount(c.Prompt, c.Target) <= c.Target.ContextWindow {
			return 1
		}
		return 0
	}
}

func tokenCount(text string, target models.Model) int {
	enc, err := tiktoken.GetEncoding(target.Encoding())
	if err != nil {
		// Roughly four bytes per token holds across current models.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
