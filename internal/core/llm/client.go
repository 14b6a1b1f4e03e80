// Package llm wraps the chat-completions backend used for question
// reformulation and answer generation.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-derm-assistant/internal/core/faults"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Message is one role-tagged chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// Config selects the chat backend, model and sampling parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	TopP        float64
}

// Client is an immutable chat backend handle, safe for concurrent use.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	topP        float64
}

// New builds a Client against an OpenAI-compatible chat endpoint.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, faults.Config("llm", "missing API key", nil)
	}
	if cfg.Model == "" {
		return nil, faults.Config("llm", "missing chat model", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}, nil
}

// chatTimeout caps one completion round trip; generation is the only
// unbounded-latency step.
const chatTimeout = 30 * time.Second

// Chat performs a one-shot chat call and returns the assistant message text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	var out chatResponse
	if err := c.api.Post(ctx, "/chat/completions", req, &out); err != nil {
		return "", faults.Inference("generator", err)
	}
	if len(out.Choices) == 0 {
		return "", faults.Inference("generator", errors.New("no choices returned"))
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
