package generate

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the part of *openai.Client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a go-openai client. An empty baseURL keeps the
// public endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAIGenerator asks for a chat completion constrained by a json_schema
// response format and returns the message content.
type OpenAIGenerator struct {
	client ChatClient
	opts   Options
}

// NewOpenAI creates an OpenAIGenerator.
func NewOpenAI(client ChatClient, opts Options) *OpenAIGenerator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &OpenAIGenerator{client: client, opts: opts}
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string { return ProviderOpenAI }

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Schema == nil {
		return nil, eris.New("openai: schema is required")
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		MaxTokens:   int(g.opts.MaxTokens),
		Temperature: float32(g.opts.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Name,
				Description: req.Schema.Description,
				Schema:      req.Schema,
			},
		},
	})
	if err != nil {
		return nil, wrapOpenAIError(err)
	}

	zap.L().Info("openai: usage",
		zap.String("model", g.opts.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return nil, eris.Wrap(ErrEmptyOutput, "openai: no choices")
	}
	content := cleanJSON(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, eris.Wrapf(ErrEmptyOutput, "openai: finish reason %q", resp.Choices[0].FinishReason)
	}
	return json.RawMessage(content), nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return eris.Wrap(&StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}, "openai: create chat completion")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return eris.Wrap(&StatusError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}, "openai: create chat completion")
	}
	return eris.Wrap(err, "openai: create chat completion")
}
