package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/KamdynS/go-vecstore/store"
)

// OpenAIConfig holds OpenAI-specific configuration for the embedder.
type OpenAIConfig struct {
	APIKey       string        `json:"api_key"`
	Model        string        `json:"model"` // e.g., "text-embedding-3-small"
	BaseURL      string        `json:"base_url,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
	Organization string        `json:"organization,omitempty"`
}

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates a new embedder.
func NewOpenAIEmbedder(config OpenAIConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	openaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		openaiConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		openaiConfig.OrgID = config.Organization
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(openaiConfig),
		model:  openai.EmbeddingModel(config.Model),
	}, nil
}

// Embed returns a single vector for the input text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (store.Vector, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	vec := make(store.Vector, len(resp.Data[0].Embedding))
	for i, f := range resp.Data[0].Embedding {
		vec[i] = float64(f)
	}
	return vec, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
