package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "wikifacts/0.1"). Wiki operators ask bots to identify themselves.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WikiConfig holds settings for the revision, category, and fetch stages.
type WikiConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIURL is the MediaWiki action API endpoint (e.g. "https://minecraft.wiki/api.php").
	APIURL string `json:"api_url" yaml:"api_url"`

	// PageURL is the prefix for rendered pages (e.g. "https://minecraft.wiki/w/").
	// The underscored title is appended to it.
	PageURL string `json:"page_url" yaml:"page_url"`

	// ListLimit is the page size requested from the category listing (default 500).
	ListLimit int `json:"list_limit" yaml:"list_limit"`

	// RequestDelay is the minimum delay between consecutive wiki requests (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// ContentSelector selects the paragraphs of the main content container
	// (default "div.mw-parser-output > p").
	ContentSelector string `json:"content_selector" yaml:"content_selector"`

	// CacheDir is the directory of the revision-pinned page cache. Empty disables caching.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}

// FilterConfig holds the paragraph exclusion predicates.
type FilterConfig struct {
	// MinLength is the exclusive lower bound on trimmed paragraph length (default 30).
	MinLength int `json:"min_length" yaml:"min_length"`

	// ErrorMarkers are prefixes that identify error or placeholder pages.
	ErrorMarkers []string `json:"error_markers" yaml:"error_markers"`

	// BoilerplatePhrases are navigation or maintenance phrases that disqualify a paragraph.
	BoilerplatePhrases []string `json:"boilerplate_phrases" yaml:"boilerplate_phrases"`
}

// AIBackendKind selects the rewriting service implementation.
type AIBackendKind string

const (
	// BackendLLM uses an OpenAI-compatible endpoint through langchaingo
	// (OpenAI, Ollama, vLLM, llama.cpp server).
	BackendLLM AIBackendKind = "llm"

	// BackendClaude calls the Anthropic Messages API directly.
	BackendClaude AIBackendKind = "claude"
)

// AIConfig holds settings for the sentence decomposition stage.
type AIConfig struct {
	// Backend selects the rewriting service: llm or claude.
	Backend AIBackendKind `json:"backend" yaml:"backend"`

	// Model is the model identifier (e.g. "llama3.1:8b", "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the endpoint for the llm backend (e.g. "http://localhost:11434/v1").
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed rewriting calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Delimiter marks the end of a reasoning preamble in responses (default "</think>").
	Delimiter string `json:"delimiter" yaml:"delimiter"`

	// Timeout bounds a single rewriting call. Zero means no timeout beyond the transport's.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// EmbeddingBackendKind selects the embedding implementation used by the vector index.
type EmbeddingBackendKind string

const (
	// EmbeddingLLM uses an OpenAI-compatible embeddings endpoint through langchaingo.
	EmbeddingLLM EmbeddingBackendKind = "llm"

	// EmbeddingHash uses the offline feature-hashing embedder.
	EmbeddingHash EmbeddingBackendKind = "hash"
)

// EmbeddingConfig holds settings for the embedding model.
type EmbeddingConfig struct {
	Backend EmbeddingBackendKind `json:"backend" yaml:"backend"`

	// Model is the embedding model identifier (e.g. "nomic-embed-text").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the embeddings endpoint for the llm backend.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key, "none" for local servers.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Dimension is the vector size of the hash embedder (default 512).
	Dimension int `json:"dimension" yaml:"dimension"`
}

// IndexConfig holds settings for the vector index.
type IndexConfig struct {
	// DBPath is the SQLite file backing the index.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default number of query results (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
