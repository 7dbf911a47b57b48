// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the text-generation client used by the stage agents. A
// Generator sends one prompt as a single user message and returns the
// assistant's text. Each call is exactly one outbound request: there is no
// retry, caching or deduplication.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// Generator abstracts the chat-completion endpoint so tests can supply a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// UpstreamError reports a failed generation request: a non-success HTTP
// status, a connection failure, or an empty reply.
type UpstreamError struct {
	// Provider names the API that failed (e.g. "openai").
	Provider string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Message is the provider's error text, if any.
	Message string

	// Err is the underlying transport or SDK error.
	Err error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("calling %s API: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API: %s", e.Provider, e.Message)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

const (
	defaultModel          = "deepseek-chat"
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultBaseURL        = "https://api.deepseek.com/v1"
	defaultMaxTokens      = 4096
	defaultTimeout        = 120 * time.Second
)

// New builds the Generator described by cfg, wrapped with throttling and
// metrics. cfg.APIKey must already be resolved.
func New(cfg types.GenerationConfig, rec *metrics.Recorder, logger *zap.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation client requires an API key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	var gen Generator
	provider := cfg.Provider
	switch provider {
	case "", types.ProviderOpenAI:
		provider = types.ProviderOpenAI
		gen = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, client)
	case types.ProviderAnthropic:
		gen = NewAnthropic(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens, client)
	default:
		return nil, fmt.Errorf("unsupported provider %q: use openai or anthropic", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		gen = RateLimited(gen, rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1))
	}
	logger.Debug("generation client ready",
		zap.String("provider", string(provider)),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond))
	return Instrumented(gen, string(provider), rec), nil
}
