package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient runs completions against OpenAI or any API-compatible server.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates a client. baseURL may be empty for the public
// OpenAI endpoint, or point at a compatible server (vLLM, LM Studio, ...).
func NewOpenAIClient(baseURL, apiKey, model string, logger *zap.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend requires an API key")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}, nil
}

// Generate implements Client using a single-message chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("calling openai",
		zap.String("model", c.model),
		zap.Int("promptLen", len(prompt)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Label implements Client.
func (c *OpenAIClient) Label() string {
	return fmt.Sprintf("openai (%s)", c.model)
}
