package rag

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/KamdynS/go-vecstore/store"
)

// AnswerConfig holds Anthropic-specific configuration for answer synthesis.
type AnswerConfig struct {
	APIKey    string        `json:"api_key"`
	Model     string        `json:"model"` // e.g., "claude-3-5-haiku-latest"
	BaseURL   string        `json:"base_url,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
}

const answerSystemPrompt = "Answer the question using only the provided context. " +
	"If the context does not contain the answer, say so."

// Answer asks Claude to answer the question from the retrieved documents.
func Answer(ctx context.Context, cfg AnswerConfig, question string, docs []store.Document) (string, error) {
	if cfg.APIKey == "" {
		return "", fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(cfg.APIKey, opts...)

	prompt := fmt.Sprintf("Context:\n%s\nQuestion: %s", BuildContext(docs), question)
	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(cfg.Model),
		System:    answerSystemPrompt,
		MaxTokens: cfg.MaxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create messages: %w", err)
	}
	return resp.GetFirstContentText(), nil
}
