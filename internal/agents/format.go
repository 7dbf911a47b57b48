// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/render"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// format rewrites every section in the configured citation style and
// formats the reference list from the gathered papers.
func (a *agentSet) format(ctx context.Context, snap pipeline.Context) (pipeline.StageResult, error) {
	sections, order, err := readSections(snap)
	if err != nil {
		return nil, err
	}
	var papers []types.PaperRecord
	if _, err := snap.Decode(pipeline.KeyAcademicPapers, &papers); err != nil {
		return nil, err
	}
	style := a.Settings.Style

	formatted := make([]types.FormattedSection, len(order))
	err = a.forEachSection(ctx, order, func(ctx context.Context, i int, name string) error {
		content := sections[name]
		reply, err := a.generate(ctx, formatPromptTmpl, struct{ Style, Content string }{style, content})
		if err != nil {
			return fmt.Errorf("formatting %q: %w", name, err)
		}
		start := types.FormattedSection{StyleCompliance: []string{}, Issues: []string{}}
		fs := decodeReply(a, pipeline.StageFormat, pipeline.KeyFormattedSections, reply,
			start, types.UnformattedSection(content))
		if strings.TrimSpace(fs.FormattedContent) == "" && strings.TrimSpace(content) != "" {
			a.fallback(pipeline.StageFormat, pipeline.KeyFormattedSections, reply, fmt.Errorf("reply has no formatted_content"))
			fs = types.UnformattedSection(content)
		}
		formatted[i] = fs
		return nil
	})
	if err != nil {
		return nil, err
	}

	bySection := make(map[string]types.FormattedSection, len(order))
	for i, name := range order {
		bySection[name] = formatted[i]
	}
	return pipeline.StageResult{
		pipeline.KeyStyleCompliance:     style,
		pipeline.KeyFormattedSections:   bySection,
		pipeline.KeyDocumentStructure:   "Finalized",
		pipeline.KeyReferencesFormatted: render.References(style, papers),
	}, nil
}
