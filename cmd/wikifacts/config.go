package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/pdiddy/wikifacts/internal/decompose"
	"github.com/pdiddy/wikifacts/internal/embed"
	"github.com/pdiddy/wikifacts/internal/pipeline"
	"github.com/pdiddy/wikifacts/internal/secrets"
	"github.com/pdiddy/wikifacts/pkg/types"
)

const (
	defaultAPIURL     = "https://minecraft.wiki/api.php"
	defaultPageURL    = "https://minecraft.wiki/w/"
	defaultTimeout    = 30 * time.Second
	defaultDelay      = 1 * time.Second
	defaultUserAgent  = "wikifacts/0.1 (+https://github.com/pdiddy/wikifacts)"
	defaultCorpus     = "data/corpus.json"
	defaultDB         = "data/index/wikifacts.db"
	defaultLLMURL     = "http://localhost:11434/v1"
	defaultLLMModel   = "llama3.1:8b"
	defaultClaude     = "claude-sonnet-4-5-20250929"
	defaultAITimeout  = 2 * time.Minute
	defaultMaxResults = 5
)

// durationOr returns the duration at key, or fallback when unset or zero.
func durationOr(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

func stringOr(key, fallback string) string {
	if s := viper.GetString(key); s != "" {
		return s
	}
	return fallback
}

// parseAsOf accepts RFC 3339 or a bare date, read as midnight UTC.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return d, nil
}

func wikiConfig() types.WikiConfig {
	return types.WikiConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationOr("timeout", defaultTimeout),
			UserAgent: stringOr("user-agent", defaultUserAgent),
		},
		APIURL:          stringOr("api-url", defaultAPIURL),
		PageURL:         stringOr("page-url", defaultPageURL),
		ListLimit:       viper.GetInt("limit"),
		RequestDelay:    durationOr("delay", defaultDelay),
		MaxRetries:      viper.GetInt("http-retries"),
		ContentSelector: viper.GetString("selector"),
		CacheDir:        viper.GetString("cache-dir"),
	}
}

// filterConfig reads the paragraph filter. The marker and boilerplate
// lists only come from the config file; unset lists keep the defaults.
func filterConfig() types.FilterConfig {
	return types.FilterConfig{
		MinLength:          viper.GetInt("min-length"),
		ErrorMarkers:       viper.GetStringSlice("error-markers"),
		BoilerplatePhrases: viper.GetStringSlice("boilerplate"),
	}
}

func aiConfig() types.AIConfig {
	cfg := types.AIConfig{
		Backend:    types.AIBackendKind(stringOr("backend", string(types.BackendLLM))),
		Model:      viper.GetString("model"),
		BaseURL:    viper.GetString("llm-url"),
		MaxRetries: viper.GetInt("max-retries"),
		Delimiter:  viper.GetString("delimiter"),
		Timeout:    durationOr("ai-timeout", defaultAITimeout),
	}
	switch cfg.Backend {
	case types.BackendClaude:
		cfg.APIKey = loadedSecrets.Get(secrets.AnthropicAPIKey, viper.GetString("api-key"))
		if cfg.Model == "" {
			cfg.Model = defaultClaude
		}
	default:
		cfg.APIKey = loadedSecrets.Get(secrets.OpenAIAPIKey, viper.GetString("api-key"))
		if cfg.Model == "" {
			cfg.Model = defaultLLMModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultLLMURL
		}
	}
	return cfg
}

func embeddingConfig() types.EmbeddingConfig {
	cfg := types.EmbeddingConfig{
		Backend:   types.EmbeddingBackendKind(stringOr("embedder", string(types.EmbeddingHash))),
		Model:     stringOr("embedding-model", "nomic-embed-text"),
		BaseURL:   viper.GetString("embedding-url"),
		Dimension: viper.GetInt("dimension"),
	}
	if cfg.Backend == types.EmbeddingLLM {
		cfg.APIKey = loadedSecrets.Get(secrets.OpenAIAPIKey, "")
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultLLMURL
		}
	}
	return cfg
}

func indexConfig() types.IndexConfig {
	maxResults := viper.GetInt("max-results")
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return types.IndexConfig{
		DBPath:     stringOr("db", defaultDB),
		MaxResults: maxResults,
	}
}

// newBackend builds the rewriting service selected by cfg.Backend.
func newBackend(cfg types.AIConfig) (decompose.Backend, error) {
	switch cfg.Backend {
	case types.BackendLLM:
		return decompose.NewOpenAIBackend(cfg)
	case types.BackendClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude backend needs an API key: set --api-key, .secrets/%s or %s",
				secrets.AnthropicAPIKey, secrets.EnvName(secrets.AnthropicAPIKey))
		}
		return &decompose.ClaudeBackend{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Client: &http.Client{Timeout: cfg.Timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: use llm or claude", cfg.Backend)
	}
}

func newEmbedder() (embeddings.Embedder, error) {
	return embed.New(embeddingConfig())
}

// saveReport writes the run report when --report is set. A failed write
// is reported but does not fail the run.
func saveReport(r types.RunReport) {
	path := viper.GetString("report")
	if path == "" {
		return
	}
	if err := pipeline.WriteReport(path, r); err != nil {
		fmt.Fprintf(os.Stderr, "warning: report write failed: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
}
