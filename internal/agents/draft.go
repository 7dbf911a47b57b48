// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/structured"
	"github.com/pdiddy/paper-agent/pkg/types"
)

type draftData struct {
	Title     string
	Section   string
	Topics    types.TopicAnalysis
	Citations []string
}

// contentDraft asks for an outline, then writes one section per entry.
func (a *agentSet) contentDraft(ctx context.Context, snap pipeline.Context) (pipeline.StageResult, error) {
	data := draftData{
		Title:     snap.String(pipeline.KeyTitle),
		Topics:    readTopics(snap),
		Citations: snap.Strings(pipeline.KeyCitations),
	}

	reply, err := a.generate(ctx, outlinePromptTmpl, data)
	if err != nil {
		return nil, fmt.Errorf("generating outline: %w", err)
	}
	outline, err := parseOutline(reply)
	if err != nil {
		a.fallback(pipeline.StageContentDraft, pipeline.KeyOutline, reply, err)
		outline = []string{}
	}

	texts := make([]string, len(outline))
	err = a.forEachSection(ctx, outline, func(ctx context.Context, i int, name string) error {
		d := data
		d.Section = name
		text, err := a.generate(ctx, sectionPromptTmpl, d)
		if err != nil {
			return fmt.Errorf("writing section %q: %w", name, err)
		}
		texts[i] = strings.TrimSpace(text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sections := make(map[string]string, len(outline))
	for i, name := range outline {
		sections[name] = texts[i]
	}
	return pipeline.StageResult{
		pipeline.KeyOutline:             outline,
		pipeline.KeySections:            sections,
		pipeline.KeyCitationsIntegrated: true,
	}, nil
}

// parseOutline reads section titles from a JSON array of strings or of
// objects carrying title, section or name. An object wrapping the array
// under "outline" or "sections" is unwrapped. Blank and repeated entries
// are dropped.
func parseOutline(reply string) ([]string, error) {
	raw, err := structured.Extract(reply)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{"outline", "sections"} {
			if inner, ok := obj[key]; ok {
				v = inner
				break
			}
		}
	}
	entries, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("outline is not a list")
	}

	outline := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(entryTitle(e))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		outline = append(outline, name)
	}
	return outline, nil
}

func entryTitle(e any) string {
	switch v := e.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"title", "section", "name"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
