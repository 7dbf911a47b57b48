// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents implements the six stage agents of the paper pipeline.
// Each agent reads a context snapshot, makes its external calls, and returns
// the keys it produced. Replies that should carry JSON but cannot be parsed
// are logged with the raw text and replaced by a documented default; failed
// external calls abort the stage.
package agents

import (
	"context"
	"fmt"
	"sort"
	"text/template"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-agent/internal/llm"
	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/search"
	"github.com/pdiddy/paper-agent/internal/structured"
	"github.com/pdiddy/paper-agent/pkg/types"
)

const defaultStyle = "IEEE"

// Deps holds the collaborators shared by the stage agents.
type Deps struct {
	Generator llm.Generator
	Backends  []search.Backend
	Search    types.SearchConfig
	Settings  types.PipelineSettings
	Logger    *zap.Logger
	Recorder  *metrics.Recorder
}

// agentSet binds the stage functions to their dependencies.
type agentSet struct {
	Deps
}

// Table returns the dispatch table mapping every stage ID to its agent.
func Table(deps Deps) pipeline.StageTable {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Settings.Concurrency <= 0 {
		deps.Settings.Concurrency = 1
	}
	if deps.Settings.Style == "" {
		deps.Settings.Style = defaultStyle
	}
	a := &agentSet{Deps: deps}
	return pipeline.StageTable{
		pipeline.StageResearchGather: a.researchGather,
		pipeline.StageTopicAnalyze:   a.topicAnalyze,
		pipeline.StageContentDraft:   a.contentDraft,
		pipeline.StageQualityCheck:   a.qualityCheck,
		pipeline.StageExpertReview:   a.expertReview,
		pipeline.StageFormat:         a.format,
	}
}

// generate renders tmpl with data and sends the prompt.
func (a *agentSet) generate(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return a.Generator.Generate(ctx, prompt)
}

// fallback logs an unparseable reply and counts it.
func (a *agentSet) fallback(stage pipeline.StageID, field, reply string, err error) {
	a.Logger.Warn("unparseable model reply, using default",
		zap.String("stage", string(stage)),
		zap.String("field", field),
		zap.Error(err),
		zap.String("raw_response", reply))
	a.Recorder.ParseFallback(string(stage), field)
}

// decodeReply decodes reply into a copy of start. On failure it reports the
// fallback and returns def.
func decodeReply[T any](a *agentSet, stage pipeline.StageID, field, reply string, start, def T) T {
	v := start
	if err := structured.Decode(reply, &v); err != nil {
		a.fallback(stage, field, reply, err)
		return def
	}
	return v
}

// forEachSection calls fn for every section name, at most
// Settings.Concurrency at a time. fn must write only to its own index.
func (a *agentSet) forEachSection(ctx context.Context, names []string, fn func(ctx context.Context, i int, name string) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.Settings.Concurrency)
	for i, name := range names {
		eg.Go(func() error {
			return fn(egCtx, i, name)
		})
	}
	return eg.Wait()
}

// sectionOrder lists the keys of sections in outline order, followed by the
// remaining keys sorted.
func sectionOrder(outline []string, sections map[string]string) []string {
	order := make([]string, 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, name := range outline {
		if _, ok := sections[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range sections {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// readSections returns the drafted sections and their processing order.
func readSections(snap pipeline.Context) (map[string]string, []string, error) {
	sections := map[string]string{}
	if _, err := snap.Decode(pipeline.KeySections, &sections); err != nil {
		return nil, nil, err
	}
	return sections, sectionOrder(snap.Strings(pipeline.KeyOutline), sections), nil
}

// readTopics returns the topic analysis, or the empty analysis when absent
// or malformed.
func readTopics(snap pipeline.Context) types.TopicAnalysis {
	ta := types.EmptyTopicAnalysis()
	if _, err := snap.Decode(pipeline.KeyTopicAnalysis, &ta); err != nil {
		return types.EmptyTopicAnalysis()
	}
	return ta
}
