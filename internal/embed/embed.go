// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed provides the text embedders used by the vector index. Both
// implementations satisfy langchaingo's embeddings.Embedder.
package embed

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// New returns the embedder selected by cfg.Backend. An empty backend
// selects the offline hashing embedder.
func New(cfg types.EmbeddingConfig) (embeddings.Embedder, error) {
	switch cfg.Backend {
	case types.EmbeddingHash, "":
		return NewHashing(cfg.Dimension), nil
	case types.EmbeddingLLM:
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.Backend)
	}
}

// NewOpenAI returns an embedder backed by an OpenAI-compatible embeddings
// endpoint. Local servers that need no key get the token "none".
func NewOpenAI(cfg types.EmbeddingConfig) (embeddings.Embedder, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	e, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return e, nil
}
