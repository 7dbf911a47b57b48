// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// StageID identifies a stage agent.
type StageID string

// Stage identifiers in pipeline order.
const (
	StageResearchGather StageID = "research_gather"
	StageTopicAnalyze   StageID = "topic_analyze"
	StageContentDraft   StageID = "content_draft"
	StageQualityCheck   StageID = "quality_check"
	StageExpertReview   StageID = "expert_review"
	StageFormat         StageID = "format"
)

// PhaseID identifies a phase.
type PhaseID string

// Phase identifiers in pipeline order.
const (
	PhaseResearch     PhaseID = "research"
	PhaseWriting      PhaseID = "writing"
	PhaseReview       PhaseID = "review"
	PhaseFinalization PhaseID = "finalization"
)

// ErrUnknownPhase is returned for a phase ID outside the fixed set.
var ErrUnknownPhase = errors.New("unknown phase")

// StageFunc runs one stage against a context snapshot and returns the keys
// it produced.
type StageFunc func(ctx context.Context, snapshot Context) (StageResult, error)

// StageTable maps each stage to its implementation.
type StageTable map[StageID]StageFunc

// Phase is an ordered group of stages.
type Phase struct {
	ID     PhaseID
	Stages []StageID
}

var phases = []Phase{
	{ID: PhaseResearch, Stages: []StageID{StageResearchGather, StageTopicAnalyze}},
	{ID: PhaseWriting, Stages: []StageID{StageContentDraft}},
	{ID: PhaseReview, Stages: []StageID{StageQualityCheck, StageExpertReview}},
	{ID: PhaseFinalization, Stages: []StageID{StageFormat}},
}

// Phases returns the four phases in execution order.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = Phase{ID: p.ID, Stages: append([]StageID(nil), p.Stages...)}
	}
	return out
}

// LookupPhase returns the phase with the given ID.
func LookupPhase(id PhaseID) (Phase, error) {
	for _, p := range Phases() {
		if p.ID == id {
			return p, nil
		}
	}
	return Phase{}, fmt.Errorf("%w %q (want one of %s)", ErrUnknownPhase, id, phaseNames())
}

// Stages returns every stage ID in pipeline order.
func Stages() []StageID {
	var out []StageID
	for _, p := range phases {
		out = append(out, p.Stages...)
	}
	return out
}

func phaseNames() string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p.ID)
	}
	return strings.Join(names, ", ")
}
