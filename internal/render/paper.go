// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a pipeline context into human-readable output: the
// plain-text paper view, a Markdown document, and bibliographies.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// Section is one named block of paper text.
type Section struct {
	Name    string
	Content string
}

// Sections returns the paper body in outline order followed by any other
// sections sorted by name. Formatted content is preferred; drafted text is
// used for sections that were never formatted.
func Sections(c pipeline.Context) []Section {
	drafted := map[string]string{}
	_, _ = c.Decode(pipeline.KeySections, &drafted)
	formatted := map[string]types.FormattedSection{}
	_, _ = c.Decode(pipeline.KeyFormattedSections, &formatted)

	names := make(map[string]bool, len(drafted)+len(formatted))
	for name := range drafted {
		names[name] = true
	}
	for name := range formatted {
		names[name] = true
	}

	var order []string
	for _, name := range c.Strings(pipeline.KeyOutline) {
		if names[name] {
			order = append(order, name)
			delete(names, name)
		}
	}
	rest := make([]string, 0, len(names))
	for name := range names {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	order = append(order, rest...)

	out := make([]Section, 0, len(order))
	for _, name := range order {
		content := drafted[name]
		if fs, ok := formatted[name]; ok {
			content = fs.FormattedContent
		}
		out = append(out, Section{Name: name, Content: content})
	}
	return out
}

// Paper writes the plain-text paper view. When no sections exist yet it
// falls back to a summary of the research phase.
func Paper(w io.Writer, c pipeline.Context) error {
	var b strings.Builder
	b.WriteString("=== Final Paper ===\n")

	sections := Sections(c)
	if len(sections) == 0 {
		sections = researchSummary(c)
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "\n=== %s ===\n\n%s\n", s.Name, strings.TrimSpace(s.Content))
	}
	if len(sections) == 0 {
		b.WriteString("\nNothing has been generated yet.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// researchSummary describes the gathered papers and key concepts when no
// sections have been drafted.
func researchSummary(c pipeline.Context) []Section {
	var out []Section
	var papers []types.PaperRecord
	if ok, err := c.Decode(pipeline.KeyAcademicPapers, &papers); ok && err == nil {
		var b strings.Builder
		for _, p := range papers {
			fmt.Fprintf(&b, "- %s", p.Title)
			if p.Year != "" {
				fmt.Fprintf(&b, " (%s)", p.Year)
			}
			b.WriteString("\n")
			if len(p.Authors) > 0 {
				fmt.Fprintf(&b, "  Authors: %s\n", strings.Join(p.Authors, ", "))
			}
			if p.Abstract != "" {
				fmt.Fprintf(&b, "  Abstract: %s\n", p.Abstract)
			}
		}
		if len(papers) == 0 {
			b.WriteString("No papers were gathered.")
		}
		out = append(out, Section{Name: "Literature Review", Content: b.String()})
	}

	var ta types.TopicAnalysis
	if ok, err := c.Decode(pipeline.KeyTopicAnalysis, &ta); ok && err == nil && len(ta.KeyConcepts) > 0 {
		var b strings.Builder
		b.WriteString("Key concepts identified in the research:\n")
		for _, concept := range ta.KeyConcepts {
			fmt.Fprintf(&b, "- %s\n", concept)
		}
		out = append(out, Section{Name: "Key Findings", Content: b.String()})
	}
	return out
}

// Markdown writes the paper as a Markdown document with a reference list.
func Markdown(w io.Writer, c pipeline.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.String(pipeline.KeyTitle))
	if authors := c.Strings(pipeline.KeyAuthors); len(authors) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(authors, ", "))
	}
	if kw := c.Strings(pipeline.KeyKeywords); len(kw) > 0 {
		fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(kw, ", "))
	}

	for _, s := range Sections(c) {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Name, strings.TrimSpace(s.Content))
	}

	refs := c.Strings(pipeline.KeyReferencesFormatted)
	if len(refs) == 0 {
		var papers []types.PaperRecord
		if _, err := c.Decode(pipeline.KeyAcademicPapers, &papers); err != nil {
			return err
		}
		style := c.String(pipeline.KeyStyleCompliance)
		refs = References(style, papers)
	}
	if len(refs) > 0 {
		b.WriteString("## References\n\n")
		for _, r := range refs {
			fmt.Fprintf(&b, "%s\n\n", r)
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}
