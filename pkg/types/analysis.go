// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TopicAnalysis is the topic-analysis stage's reading of the gathered papers.
type TopicAnalysis struct {
	MainTopics  []string `json:"main_topics" yaml:"main_topics"`
	Subtopics   []string `json:"subtopics" yaml:"subtopics"`
	KeyConcepts []string `json:"key_concepts" yaml:"key_concepts"`
}

// EmptyTopicAnalysis is substituted when the model reply cannot be parsed.
func EmptyTopicAnalysis() TopicAnalysis {
	return TopicAnalysis{MainTopics: []string{}, Subtopics: []string{}, KeyConcepts: []string{}}
}

// GrammarReport holds the grammar and style check for one section.
type GrammarReport struct {
	Issues         []string `json:"issues" yaml:"issues"`
	Suggestions    []string `json:"suggestions" yaml:"suggestions"`
	OverallQuality float64  `json:"overall_quality" yaml:"overall_quality"`
}

// EmptyGrammarReport is substituted when the model reply cannot be parsed.
func EmptyGrammarReport() GrammarReport {
	return GrammarReport{Issues: []string{}, Suggestions: []string{}}
}

// PlagiarismReport holds the plagiarism check for one section.
type PlagiarismReport struct {
	PotentialIssues  []string `json:"potential_issues" yaml:"potential_issues"`
	CitationCoverage float64  `json:"citation_coverage" yaml:"citation_coverage"`
	Recommendations  []string `json:"recommendations" yaml:"recommendations"`
}

// EmptyPlagiarismReport is substituted when the model reply cannot be parsed.
func EmptyPlagiarismReport() PlagiarismReport {
	return PlagiarismReport{PotentialIssues: []string{}, Recommendations: []string{}}
}

// AccuracyReview holds the expert review of one section's technical content.
type AccuracyReview struct {
	AccuracyIssues  []string `json:"accuracy_issues" yaml:"accuracy_issues"`
	Suggestions     []string `json:"suggestions" yaml:"suggestions"`
	ConfidenceScore float64  `json:"confidence_score" yaml:"confidence_score"`
}

// EmptyAccuracyReview is substituted when the model reply cannot be parsed.
func EmptyAccuracyReview() AccuracyReview {
	return AccuracyReview{AccuracyIssues: []string{}, Suggestions: []string{}}
}

// FormattedSection is one section rewritten to the target citation style.
type FormattedSection struct {
	FormattedContent string   `json:"formatted_content" yaml:"formatted_content"`
	StyleCompliance  []string `json:"style_compliance" yaml:"style_compliance"`
	Issues           []string `json:"issues" yaml:"issues"`
}

// UnformattedSection is substituted when the formatting reply cannot be
// parsed: the original text is kept and the failure is recorded as an issue.
func UnformattedSection(content string) FormattedSection {
	return FormattedSection{
		FormattedContent: content,
		StyleCompliance:  []string{},
		Issues:           []string{"Failed to parse formatting response"},
	}
}
