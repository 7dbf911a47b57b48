// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-agent pipeline:
// the metadata a run starts from, the paper records gathered from academic
// search APIs, the structured reports produced by the review stages, and the
// configuration for every component.
package types

import (
	"fmt"
	"strings"
)

// PaperMetadata describes the paper being written. It is created once by the
// shell before the first phase and never modified afterwards.
type PaperMetadata struct {
	// Title is the working title of the paper.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper's authors in byline order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is an optional draft abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Keywords steer the literature search.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// References lists references the author already intends to cite.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Normalize trims whitespace from every field and drops blank list entries.
// List fields are never nil after Normalize.
func (m PaperMetadata) Normalize() PaperMetadata {
	return PaperMetadata{
		Title:      strings.TrimSpace(m.Title),
		Authors:    cleanList(m.Authors),
		Abstract:   strings.TrimSpace(m.Abstract),
		Keywords:   cleanList(m.Keywords),
		References: cleanList(m.References),
	}
}

// Validate reports whether the metadata can start a pipeline run.
func (m PaperMetadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("paper title is required")
	}
	if len(cleanList(m.Authors)) == 0 {
		return fmt.Errorf("at least one author is required")
	}
	return nil
}

// SplitList splits comma-separated form input into a cleaned list.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// PaperRecord is a candidate paper returned by an academic search backend.
// Records carry metadata only; full text is never fetched.
type PaperRecord struct {
	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the publication year as text ("2020"), empty when unknown.
	Year string `json:"year" yaml:"year"`

	// URL links to the paper's landing page.
	URL string `json:"url" yaml:"url"`

	// Source names the backend that found the record (e.g. "arXiv").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}
