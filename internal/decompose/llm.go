// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/wikifacts/pkg/types"
)

// LLMBackend generates through any langchaingo model.
type LLMBackend struct {
	model llms.Model
}

// NewLLMBackend wraps model.
func NewLLMBackend(model llms.Model) *LLMBackend {
	return &LLMBackend{model: model}
}

// NewOpenAIBackend connects to an OpenAI-compatible chat endpoint
// (OpenAI, Ollama, vLLM, llama.cpp server). Local servers that need no key
// get the token "none".
func NewOpenAIBackend(cfg types.AIConfig) (*LLMBackend, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return NewLLMBackend(client), nil
}

// Generate runs prompt at temperature zero.
func (b *LLMBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, b.model, prompt, llms.WithTemperature(0))
}
