// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// Coordinator owns the Context of one run and executes phases against it.
// It is not safe for concurrent use; phases run strictly one after another.
type Coordinator struct {
	runID     string
	stages    StageTable
	ctx       Context
	statuses  map[StageID]AgentStatus
	completed []PhaseID

	logger   *zap.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithTracer sets the tracer used for phase and stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithRunID sets the run identifier. A random UUID is used otherwise.
func WithRunID(id string) Option {
	return func(c *Coordinator) {
		if id != "" {
			c.runID = id
		}
	}
}

// WithSnapshot resumes from a previously saved context instead of the
// context derived from the metadata.
func WithSnapshot(snapshot Context, completed []PhaseID) Option {
	return func(c *Coordinator) {
		if snapshot != nil {
			c.ctx = snapshot.Clone()
		}
		c.completed = append([]PhaseID(nil), completed...)
	}
}

// NewCoordinator creates a coordinator whose context is initialized from meta.
func NewCoordinator(meta types.PaperMetadata, stages StageTable, opts ...Option) *Coordinator {
	c := &Coordinator{
		stages:   stages,
		ctx:      NewContext(meta),
		statuses: initialStatuses(),
		logger:   zap.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	c.logger = c.logger.With(zap.String("run_id", c.runID))
	for id, status := range c.statuses {
		c.recorder.SetStatus(string(id), string(status), allStatuses)
	}
	return c
}

// RunID returns the run identifier.
func (c *Coordinator) RunID() string { return c.runID }

// Context returns a copy of the context merged so far.
func (c *Coordinator) Context() Context { return c.ctx.Clone() }

// CompletedPhases returns the phases that finished successfully, in run order.
func (c *Coordinator) CompletedPhases() []PhaseID {
	return append([]PhaseID(nil), c.completed...)
}

// Statuses returns the current status of every stage agent.
func (c *Coordinator) Statuses() map[StageID]AgentStatus {
	out := make(map[StageID]AgentStatus, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}

// RunPhase executes the stages of phaseID in order. Each stage receives a
// snapshot of the context and its result is merged before the next stage
// starts. The first stage error stops the phase and is returned unchanged.
func (c *Coordinator) RunPhase(ctx context.Context, phaseID PhaseID) error {
	phase, err := LookupPhase(phaseID)
	if err != nil {
		return err
	}
	for _, id := range phase.Stages {
		if c.stages[id] == nil {
			return fmt.Errorf("no stage function registered for %q", id)
		}
	}

	ctx, span := c.tracer.Start(ctx, "phase "+string(phaseID),
		trace.WithAttributes(
			attribute.String("paper_agent.run_id", c.runID),
			attribute.String("paper_agent.phase", string(phaseID)),
		))
	defer span.End()

	c.logger.Info("phase started", zap.String("phase", string(phaseID)))
	start := time.Now()
	for _, id := range phase.Stages {
		if err := c.runStage(ctx, id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	if !slices.Contains(c.completed, phaseID) {
		c.completed = append(c.completed, phaseID)
	}
	c.logger.Info("phase completed",
		zap.String("phase", string(phaseID)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Coordinator) runStage(ctx context.Context, id StageID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := c.tracer.Start(ctx, "stage "+string(id),
		trace.WithAttributes(attribute.String("paper_agent.stage", string(id))))
	defer span.End()

	c.setStatus(id, StatusRunning)
	log := c.logger.With(zap.String("stage", string(id)))
	log.Debug("stage started")

	start := time.Now()
	result, err := c.stages[id](ctx, c.ctx.Clone())
	elapsed := time.Since(start)
	c.recorder.ObserveStage(string(id), elapsed, err)
	if err != nil {
		c.setStatus(id, StatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("stage failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return err
	}

	c.ctx.Merge(result)
	c.setStatus(id, StatusCompleted)
	keys := result.sortedKeys()
	span.SetAttributes(attribute.StringSlice("paper_agent.keys", keys))
	log.Info("stage completed", zap.Duration("elapsed", elapsed), zap.Strings("keys", keys))
	return nil
}

func (c *Coordinator) setStatus(id StageID, status AgentStatus) {
	c.statuses[id] = status
	c.recorder.SetStatus(string(id), string(status), allStatuses)
}

// Execute runs all four phases in order and returns the final context. On
// the first stage error the remaining phases are skipped and the error is
// returned unchanged; Context still reports everything merged before it.
func (c *Coordinator) Execute(ctx context.Context) (Context, error) {
	c.logger.Info("pipeline started", zap.String("title", c.ctx.String(KeyTitle)))
	for _, p := range phases {
		if err := c.RunPhase(ctx, p.ID); err != nil {
			c.logger.Error("pipeline failed", zap.String("phase", string(p.ID)), zap.Error(err))
			return c.Context(), err
		}
	}
	c.logger.Info("pipeline completed", zap.Int("keys", len(c.ctx)))
	return c.Context(), nil
}

// RunPhase runs one phase over a copy of snapshot and returns the updated
// context. On error the returned context holds the results merged before
// the failing stage.
func RunPhase(ctx context.Context, stages StageTable, phaseID PhaseID, snapshot Context, opts ...Option) (Context, error) {
	opts = append([]Option{WithSnapshot(snapshot, nil)}, opts...)
	c := NewCoordinator(types.PaperMetadata{}, stages, opts...)
	err := c.RunPhase(ctx, phaseID)
	return c.Context(), err
}

// ExecutePipeline initializes a context from meta and runs every phase.
func ExecutePipeline(ctx context.Context, stages StageTable, meta types.PaperMetadata, opts ...Option) (Context, error) {
	return NewCoordinator(meta, stages, opts...).Execute(ctx)
}
