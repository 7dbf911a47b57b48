// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/search"
	"github.com/pdiddy/paper-agent/pkg/types"
)

const abstractExcerptLen = 200

// researchGather searches every configured backend with the title and
// keywords. A failing backend fails the stage.
func (a *agentSet) researchGather(ctx context.Context, snap pipeline.Context) (pipeline.StageResult, error) {
	query := search.BuildQuery(snap.String(pipeline.KeyTitle), snap.Strings(pipeline.KeyKeywords))
	g := search.Gatherer{
		Concurrency: a.Settings.Concurrency,
		Logger:      a.Logger,
		Recorder:    a.Recorder,
	}
	res, err := g.Gather(ctx, query, a.Backends, a.Search)
	if err != nil {
		return nil, fmt.Errorf("gathering papers: %w", err)
	}
	papers := res.Records
	if papers == nil {
		papers = []types.PaperRecord{}
	}
	return pipeline.StageResult{
		pipeline.KeyAcademicPapers:    papers,
		pipeline.KeyDatabasesAccessed: res.Accessed,
	}, nil
}

// topicAnalyze asks the model for the topics of the gathered papers and
// derives the literature review and citation list from the papers directly.
func (a *agentSet) topicAnalyze(ctx context.Context, snap pipeline.Context) (pipeline.StageResult, error) {
	var papers []types.PaperRecord
	if _, err := snap.Decode(pipeline.KeyAcademicPapers, &papers); err != nil {
		return nil, err
	}

	reply, err := a.generate(ctx, topicPromptTmpl, struct{ Papers []types.PaperRecord }{papers})
	if err != nil {
		return nil, fmt.Errorf("analyzing topics: %w", err)
	}
	analysis := decodeReply(a, pipeline.StageTopicAnalyze, pipeline.KeyTopicAnalysis, reply,
		types.EmptyTopicAnalysis(), types.EmptyTopicAnalysis())

	citations := make([]string, len(papers))
	for i, p := range papers {
		citations[i] = p.Title
	}
	return pipeline.StageResult{
		pipeline.KeyTopicAnalysis:    analysis,
		pipeline.KeyLiteratureReview: literatureReview(papers),
		pipeline.KeyCitations:        citations,
	}, nil
}

// literatureReview summarizes each paper on its own numbered entry.
func literatureReview(papers []types.PaperRecord) string {
	if len(papers) == 0 {
		return "No papers were gathered."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed %d papers.\n", len(papers))
	for i, p := range papers {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p.Title)
		if p.Year != "" {
			fmt.Fprintf(&b, " (%s)", p.Year)
		}
		b.WriteString("\n")
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "   Authors: %s\n", strings.Join(p.Authors, ", "))
		}
		if ex := excerpt(p.Abstract, abstractExcerptLen); ex != "" {
			fmt.Fprintf(&b, "   %s\n", ex)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// excerpt returns the first n runes of s, marking a cut with "...".
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
