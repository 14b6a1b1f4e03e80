// Package embedding wraps the OpenAI-compatible embeddings endpoint. One
// Client instance serves query, question and answer texts so every vector in
// a retrieval call comes from the same encoder.
package embedding

import (
	"context"
	"errors"
	"time"

	"ai-derm-assistant/pkg/logger"

	"ai-derm-assistant/internal/core/faults"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Config selects the encoder backend and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is an immutable embedding encoder handle, safe for concurrent use.
type Client struct {
	api   openai.Client
	model string
}

// New builds a Client. The API key is required; BaseURL may point at any
// OpenAI-compatible server.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, faults.Config("embedding", "missing API key", nil)
	}
	if cfg.Model == "" {
		return nil, faults.Config("embedding", "missing embedding model", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{api: openai.NewClient(opts...), model: cfg.Model}, nil
}

// Embed returns one fixed-dimensional vector per input text, in input order.
// Inputs are sent in batches of up to 100.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	var all [][]float32
	for i := 0; i < len(inputs); i += 100 {
		j := i + 100
		if j > len(inputs) {
			j = len(inputs)
		}
		vectors, err := c.embedBatch(ctx, inputs[i:j])
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"model":       c.model,
				"batch_start": i,
				"batch_end":   j,
				"error":       err,
			}).Errorf("embedding: batch failed")
			return nil, faults.Inference("encoder", err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

// embedTimeout caps one encoder round trip.
const embedTimeout = 3 * time.Second

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()
	reqBody := embedRequest{Model: c.model, Input: batch}
	var out embedResponse
	if err := c.api.Post(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, errors.New(out.Error.Message)
	}
	if len(out.Data) != len(batch) {
		return nil, errors.New("embedding count mismatch")
	}
	vectors := make([][]float32, len(out.Data))
	for i := range out.Data {
		src := out.Data[i].Embedding
		vec := make([]float32, len(src))
		for k := range src {
			vec[k] = float32(src[k])
		}
		vectors[i] = vec
	}
	return vectors, nil
}
