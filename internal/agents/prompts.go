// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"bytes"
	"strings"
	"text/template"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

func mustPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Parse(text))
}

var topicPromptTmpl = mustPrompt("topics", `Analyze these research papers and identify the main topics and themes:
{{range $i, $p := .Papers}}
{{inc $i}}. {{$p.Title}}{{if $p.Year}} ({{$p.Year}}){{end}}{{if $p.Authors}} by {{join $p.Authors ", "}}{{end}}
{{- if $p.Abstract}}
   {{$p.Abstract}}{{end}}
{{else}}
(no papers were found)
{{end}}
Return a JSON object with:
- main_topics: list of main topics
- subtopics: list of subtopics
- key_concepts: list of key concepts

Respond with the JSON object only.
`)

var outlinePromptTmpl = mustPrompt("outline", `Generate a detailed outline for a research paper titled "{{.Title}}" based on the following research:
Topics: {{join .Topics.MainTopics ", "}}
Key Concepts: {{join .Topics.KeyConcepts ", "}}

Return the main sections of the paper, in order, as a JSON array of section titles.
Respond with the JSON array only.
`)

var sectionPromptTmpl = mustPrompt("section", `Write the {{.Section}} section for a research paper titled "{{.Title}}".
Topics: {{join .Topics.MainTopics ", "}}
Key Concepts: {{join .Topics.KeyConcepts ", "}}
Citations:
{{range .Citations}}- {{.}}
{{end}}
Write in academic style, include relevant citations, and maintain coherence.
`)

var grammarPromptTmpl = mustPrompt("grammar", `Check the following text for grammar, style, and academic writing standards:

{{.Content}}

Return a JSON object with:
- issues: list of issues found
- suggestions: list of suggestions for improvement
- overall_quality: rating from 1-10

Respond with the JSON object only.
`)

var plagiarismPromptTmpl = mustPrompt("plagiarism", `Check the following text for potential plagiarism issues:

{{.Content}}

Citations used:
{{range .Citations}}- {{.}}
{{end}}
Return a JSON object with:
- potential_issues: list of potential plagiarism issues
- citation_coverage: percentage of text properly cited
- recommendations: list of recommendations

Respond with the JSON object only.
`)

var accuracyPromptTmpl = mustPrompt("accuracy", `Review the following {{.Section}} section of the paper "{{.Title}}" for technical accuracy:

{{.Content}}

Paper topics: {{join .Topics.MainTopics ", "}}
Key concepts: {{join .Topics.KeyConcepts ", "}}
Cited works:
{{range .Citations}}- {{.}}
{{end}}
Return a JSON object with:
- accuracy_issues: list of technical inaccuracies
- suggestions: list of suggestions for improvement
- confidence_score: rating from 1-10

Respond with the JSON object only.
`)

var formatPromptTmpl = mustPrompt("format", `Format the following content according to {{.Style}} style guidelines:

{{.Content}}

Return a JSON object with:
- formatted_content: the formatted text
- style_compliance: list of style requirements met
- issues: list of remaining formatting issues

Respond with the JSON object only.
`)

// renderPrompt executes tmpl with data.
func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
