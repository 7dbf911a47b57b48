// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider identifies a text-generation API flavour.
type Provider string

const (
	// ProviderOpenAI speaks the OpenAI chat-completions protocol. DeepSeek,
	// the default endpoint, is served through it.
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// GenerationConfig holds settings for the text-generation client.
type GenerationConfig struct {
	// Provider selects the protocol: openai (default) or anthropic.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "deepseek-chat").
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the provider endpoint. For the openai provider the
	// default is the DeepSeek API.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the bearer credential. It is resolved at startup and never
	// read from the config file.
	APIKey string `json:"-" yaml:"-"`

	// MaxTokens caps the reply length where the provider requires it (anthropic).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RequestsPerSecond throttles outbound generation calls; 0 disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// SearchConfig holds settings for the academic search backends.
type SearchConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Backends lists the backends queried by the research stage, in order.
	// Known names: arxiv, semantic_scholar, openalex.
	Backends []string `json:"backends" yaml:"backends"`

	// MaxResults is the number of records requested from each backend (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for OpenAlex polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// Concurrency bounds how many backends are queried at once (default 1).
	Concurrency int `json:"-" yaml:"-"`
}

// PipelineSettings holds settings shared by the stage agents.
type PipelineSettings struct {
	// Concurrency bounds the independent per-section calls one stage may have
	// in flight. The default of 1 issues one external call at a time.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Style is the citation style the format stage targets (default "IEEE").
	Style string `json:"style" yaml:"style"`
}

// LogConfig selects the logger's level and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is console or json.
	Format string `json:"format" yaml:"format"`
}

// Config groups every component configuration.
type Config struct {
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Search     SearchConfig     `json:"search" yaml:"search"`
	Pipeline   PipelineSettings `json:"pipeline" yaml:"pipeline"`
	Log        LogConfig        `json:"log" yaml:"log"`
}
