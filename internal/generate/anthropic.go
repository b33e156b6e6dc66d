package generate

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/pkg/anthropic"
)

// AnthropicGenerator forces the model to call a single tool whose input
// schema is the requested structure, and returns the tool input.
type AnthropicGenerator struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropic creates an AnthropicGenerator.
func NewAnthropic(client anthropic.Client, opts Options) *AnthropicGenerator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &AnthropicGenerator{client: client, opts: opts}
}

// Name implements Generator.
func (g *AnthropicGenerator) Name() string { return ProviderAnthropic }

// Generate implements Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Schema == nil {
		return nil, eris.New("anthropic: schema is required")
	}
	temp := g.opts.Temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
		Tools: []anthropic.Tool{{
			Name:        req.Name,
			Description: req.Schema.Description,
			InputSchema: anthropic.InputSchema{
				Properties: req.Schema.Properties(),
				Required:   req.Schema.Required(),
			},
		}},
		ToolChoice: req.Name,
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(g.opts.Model, "generate")

	input, ok := resp.ToolInput(req.Name)
	if !ok || len(input) == 0 {
		return nil, eris.Wrapf(ErrEmptyOutput, "anthropic: no %s tool call (stop reason %q)", req.Name, resp.StopReason)
	}
	return input, nil
}
