// Package openai provides the OpenAI implementation of the embedding
// provider.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is an OpenAI embedding client.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config is the configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// Model is the embedding model name. Defaults to
	// text-embedding-3-small.
	Model string

	// BaseURL overrides the API base URL (optional).
	BaseURL string

	// Dimensions is the vector dimension. Defaults to 1536.
	Dimensions int
}

// NewClient creates a new OpenAI embedding client.
func NewClient(cfg *Config) (*Client, error) {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	client := openai.NewClientWithConfig(config)

	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 1536
	}

	return &Client{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("embedding generation failed: no data returned from OpenAI API")
	}

	return toFloat64(resp.Data[0].Embedding), nil
}

// EmbedBatch converts multiple texts to vectors in one request. The result
// preserves input order: embeddings[i] corresponds to texts[i].
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from OpenAI API (got %d, expected %d)", len(resp.Data), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for i, data := range resp.Data {
		embeddings[i] = toFloat64(data.Embedding)
	}

	return embeddings, nil
}

// Dimensions returns the vector dimensions.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close closes the client connection.
// The OpenAI SDK client does not require explicit closing; this method is
// retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}

// toFloat64 widens the API's float32 embedding.
func toFloat64(embedding []float32) []float64 {
	converted := make([]float64, len(embedding))
	for i, v := range embedding {
		converted[i] = float64(v)
	}
	return converted
}
