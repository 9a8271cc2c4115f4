package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	style   prompts.Style
	prompts *prompts.Set
}

// New creates a new LLM client. An unknown style falls back to standard.
func New(baseURL, apiKey, modelName string, style prompts.Style) (*Client, error) {
	set, err := prompts.Default()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	if !prompts.IsValidStyle(string(style)) {
		slog.Warn("unknown explanation style, using standard", "style", style)
		style = prompts.StyleStandard
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		style:   style,
		prompts: set,
	}, nil
}

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Reply answers a free-form support question.
func (c *Client) Reply(ctx context.Context, message string) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: c.prompts.ChatSystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompts.WrapUserMessage(message)},
	}, 0.5)
}

// Explain walks the student through an item. chosen is the option they
// picked, or nil if they left it blank.
func (c *Client) Explain(ctx context.Context, item assessment.Item, chosen *int) (string, error) {
	prompt, err := c.prompts.BuildExplainPrompt(c.style, item, chosen)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt},
	}, 0.2)
}

func (c *Client) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return strings.TrimSpace(raw), nil
}
