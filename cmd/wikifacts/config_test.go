package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wikifacts/internal/decompose"
	"github.com/pdiddy/wikifacts/pkg/types"
)

func TestParseAsOf(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2021-01-01", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2021-01-01T12:30:00Z", time.Date(2021, 1, 1, 12, 30, 0, 0, time.UTC)},
		{"2021-01-01T12:30:00+02:00", time.Date(2021, 1, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseAsOf(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "parseAsOf(%q) = %v, want %v", tt.in, got, tt.want)
	}

	_, err := parseAsOf("01/01/2021")
	assert.Error(t, err)

	now, err := parseAsOf("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	wc := wikiConfig()
	assert.Equal(t, defaultAPIURL, wc.APIURL)
	assert.Equal(t, defaultDelay, wc.RequestDelay)
	assert.Equal(t, defaultTimeout, wc.Timeout)

	ai := aiConfig()
	assert.Equal(t, types.BackendLLM, ai.Backend)
	assert.Equal(t, defaultLLMModel, ai.Model)
	assert.Equal(t, defaultLLMURL, ai.BaseURL)

	ec := embeddingConfig()
	assert.Equal(t, types.EmbeddingHash, ec.Backend)

	ic := indexConfig()
	assert.Equal(t, defaultDB, ic.DBPath)
	assert.Equal(t, defaultMaxResults, ic.MaxResults)
}

func TestNewBackend(t *testing.T) {
	b, err := newBackend(types.AIConfig{Backend: types.BackendLLM, Model: "llama3.1:8b", BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.IsType(t, &decompose.LLMBackend{}, b)

	_, err = newBackend(types.AIConfig{Backend: types.BackendClaude})
	assert.ErrorContains(t, err, "API key")

	b, err = newBackend(types.AIConfig{Backend: types.BackendClaude, APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &decompose.ClaudeBackend{}, b)

	_, err = newBackend(types.AIConfig{Backend: "gpt"})
	assert.Error(t, err)
}
