// Package generate asks a language model for output that matches a schema.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/schema"
)

// Provider names accepted in config.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// systemPrompt frames every structured request.
const systemPrompt = "You are an SEO expert. Answer only with data matching the requested structure."

// Request is one structured-generation call.
type Request struct {
	// Name identifies the structure, e.g. the forced tool name.
	Name   string
	Prompt string
	Schema *schema.Node
}

// Generator returns a JSON value produced for req. Implementations do not
// retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
	Name() string
}

// Options tune a model call.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

// StatusError reports an HTTP failure from a model API that does not carry
// its own status accessor.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// ErrEmptyOutput is returned when the model answered without a usable value.
var ErrEmptyOutput = eris.New("generate: empty model output")

// cleanJSON strips markdown code fences and surrounding prose from a model
// answer, keeping the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
