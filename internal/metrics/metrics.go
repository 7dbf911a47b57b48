// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus collectors for pipeline runs. Every
// Recorder method is safe to call on a nil *Recorder, so components can take
// an optional recorder without guarding each call.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "paper_agent"

// Recorder owns a private registry and the pipeline collectors.
type Recorder struct {
	registry        *prometheus.Registry
	stageRuns       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	agentStatus     *prometheus.GaugeVec
	generationCalls *prometheus.CounterVec
	parseFallbacks  *prometheus.CounterVec
	searchRecords   *prometheus.CounterVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Stage agent invocations by outcome.",
		}, []string{"stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of stage agent invocations.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		agentStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agent_status",
			Help:      "1 for the current status of each stage agent, 0 otherwise.",
		}, []string{"stage", "status"}),
		generationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Text-generation requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		parseFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_fallbacks_total",
			Help:      "Model replies that failed structured parsing and were replaced by defaults.",
		}, []string{"stage", "field"}),
		searchRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_records_total",
			Help:      "Paper records returned by each search backend.",
		}, []string{"backend"}),
	}
	r.registry.MustRegister(
		r.stageRuns, r.stageDuration, r.agentStatus,
		r.generationCalls, r.parseFallbacks, r.searchRecords,
	)
	return r
}

// Registry returns the registry holding the pipeline collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStage records one stage invocation.
func (r *Recorder) ObserveStage(stage string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stageRuns.WithLabelValues(stage, outcome(err)).Inc()
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetStatus marks status as the current one for stage among all known statuses.
func (r *Recorder) SetStatus(stage, status string, all []string) {
	if r == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == status {
			v = 1
		}
		r.agentStatus.WithLabelValues(stage, s).Set(v)
	}
}

// ObserveGeneration records one text-generation request.
func (r *Recorder) ObserveGeneration(provider string, err error) {
	if r == nil {
		return
	}
	r.generationCalls.WithLabelValues(provider, outcome(err)).Inc()
}

// ParseFallback records a reply replaced by its default value.
func (r *Recorder) ParseFallback(stage, field string) {
	if r == nil {
		return
	}
	r.parseFallbacks.WithLabelValues(stage, field).Inc()
}

// SearchRecords records how many records a backend returned.
func (r *Recorder) SearchRecords(backend string, n int) {
	if r == nil {
		return
	}
	r.searchRecords.WithLabelValues(backend).Add(float64(n))
}

// WriteText writes every collected metric family in the Prometheus text
// exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
