// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-agent/internal/metrics"
)

// RateLimited waits on limiter before every call to next.
func RateLimited(next Generator, limiter *rate.Limiter) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
		return next.Generate(ctx, prompt)
	})
}

// Instrumented counts every call to next by outcome.
func Instrumented(next Generator, provider string, rec *metrics.Recorder) Generator {
	if rec == nil {
		return next
	}
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		text, err := next.Generate(ctx, prompt)
		rec.ObserveGeneration(provider, err)
		return text, err
	})
}
