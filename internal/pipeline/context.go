// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the paper-writing stages. A Coordinator owns the
// shared Context, runs the stages of each phase in a fixed order, and merges
// every stage result into the context before the next stage starts.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/pdiddy/paper-agent/internal/structured"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// Context keys written by the coordinator and the stage agents.
const (
	KeyTitle    = "title"
	KeyAuthors  = "authors"
	KeyKeywords = "keywords"

	KeyAcademicPapers    = "academic_papers"
	KeyDatabasesAccessed = "databases_accessed"

	KeyTopicAnalysis    = "topic_analysis"
	KeyLiteratureReview = "literature_review"
	KeyCitations        = "citations"

	KeyOutline             = "outline"
	KeySections            = "sections"
	KeyCitationsIntegrated = "citations_integrated"

	KeyGrammarCheck    = "grammar_check"
	KeyPlagiarismCheck = "plagiarism_check"
	KeyFormatCheck     = "format_check"

	KeyTechnicalAccuracy  = "technical_accuracy"
	KeyContentCoherence   = "content_coherence"
	KeyCitationsValidated = "citations_validated"

	KeyStyleCompliance     = "style_compliance"
	KeyFormattedSections   = "formatted_sections"
	KeyDocumentStructure   = "document_structure"
	KeyReferencesFormatted = "references_formatted"
)

// Context is the shared key-value state of one pipeline run. Keys are only
// ever added or overwritten, never removed.
type Context map[string]any

// StageResult is the partial update a stage returns. It is merged into the
// Context last-write-wins per key.
type StageResult map[string]any

// NewContext returns the initial context for meta: exactly the title,
// authors and keywords keys. Keywords is an empty list when none were given.
func NewContext(meta types.PaperMetadata) Context {
	keywords := make([]string, len(meta.Keywords))
	copy(keywords, meta.Keywords)
	return Context{
		KeyTitle:    meta.Title,
		KeyAuthors:  append([]string(nil), meta.Authors...),
		KeyKeywords: keywords,
	}
}

// Clone returns a shallow copy. Stages receive clones so that adding keys to
// their snapshot never changes the coordinator's context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge copies every key of r into c, overwriting existing values.
func (c Context) Merge(r StageResult) {
	for k, v := range r {
		c[k] = v
	}
}

// Keys returns the context keys in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present.
func (c Context) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// String returns the text value stored under key, or "" when the key is
// absent or holds a non-text value.
func (c Context) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Strings returns the text list stored under key. Values loaded from a
// session file arrive as []any and are converted. Absent keys give nil.
func (c Context) Strings(key string) []string {
	v, ok := c[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.([]string); ok {
		out := make([]string, len(s))
		copy(out, s)
		return out
	}
	var out []string
	if err := structured.DecodeValue(v, &out); err != nil {
		return nil
	}
	return out
}

// Decode converts the value stored under key into dst, a non-nil pointer.
// It reports false when the key is absent.
func (c Context) Decode(key string, dst any) (bool, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return false, nil
	}
	if err := structured.DecodeValue(v, dst); err != nil {
		return true, fmt.Errorf("context key %q: %w", key, err)
	}
	return true, nil
}

func (r StageResult) sortedKeys() []string {
	return Context(r).Keys()
}
