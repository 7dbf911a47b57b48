// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/internal/agents"
	"github.com/pdiddy/paper-agent/internal/llm"
	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/search"
	"github.com/pdiddy/paper-agent/internal/secrets"
	"github.com/pdiddy/paper-agent/internal/tracing"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// app wires the stage agents and their collaborators for one command.
type app struct {
	stages      pipeline.StageTable
	recorder    *metrics.Recorder
	tracer      trace.Tracer
	shutdown    tracing.Shutdown
	metricsFile string
}

// newApp resolves the API credential and builds every component. A missing
// credential fails here, before any phase runs.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg := appConfig
	key, err := secrets.ResolveAPIKey(cfg.Generation.Provider, loadedSecrets, os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.Generation.APIKey = key

	a := &app{recorder: metrics.NewRecorder()}
	a.metricsFile, _ = cmd.Flags().GetString("metrics-file")

	gen, err := llm.New(cfg.Generation, a.recorder, logger)
	if err != nil {
		return nil, err
	}
	backends, err := search.NewBackends(cfg.Search, logger)
	if err != nil {
		return nil, err
	}

	if on, _ := cmd.Flags().GetBool("trace"); on {
		a.tracer, a.shutdown, err = tracing.Init(os.Stderr, version)
		if err != nil {
			return nil, err
		}
	} else {
		a.tracer, a.shutdown = tracing.Disabled()
	}

	a.stages = agents.Table(agents.Deps{
		Generator: gen,
		Backends:  backends,
		Search:    cfg.Search,
		Settings:  cfg.Pipeline,
		Logger:    logger,
		Recorder:  a.recorder,
	})
	return a, nil
}

// coordinator builds a coordinator for meta carrying the app's logger,
// recorder and tracer.
func (a *app) coordinator(meta types.PaperMetadata, extra ...pipeline.Option) *pipeline.Coordinator {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithRecorder(a.recorder),
		pipeline.WithTracer(a.tracer),
	}
	return pipeline.NewCoordinator(meta, a.stages, append(opts, extra...)...)
}

// close flushes spans and writes the metrics file when one was requested.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errs := []error{a.shutdown(ctx)}
	if a.metricsFile != "" {
		errs = append(errs, writeMetrics(a.metricsFile, a.recorder))
	}
	return errors.Join(errs...)
}

func writeMetrics(path string, rec *metrics.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	if err := rec.WriteText(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing metrics file: %w", err)
	}
	logger.Debug("metrics written", zap.String("path", path))
	return nil
}

// failedPhase returns the first phase missing from completed.
func failedPhase(completed []pipeline.PhaseID) pipeline.PhaseID {
	done := make(map[pipeline.PhaseID]bool, len(completed))
	for _, p := range completed {
		done[p] = true
	}
	for _, p := range pipeline.Phases() {
		if !done[p.ID] {
			return p.ID
		}
	}
	return ""
}
