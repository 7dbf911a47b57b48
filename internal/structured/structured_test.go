// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-agent/pkg/types"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"bare array", `["Intro", "Methods"]`, `["Intro", "Methods"]`, false},
		{"json fence", "Here you go:\n```json\n{\"a\": [1, 2]}\n```\nThanks", `{"a": [1, 2]}`, false},
		{"plain fence", "```\n[\"x\"]\n```", `["x"]`, false},
		{"surrounding prose", `Sure! The analysis is {"main_topics": ["AI"]} as requested.`, `{"main_topics": ["AI"]}`, false},
		{"braces inside strings", `note: {"text": "a } b { c", "n": 2} end`, `{"text": "a } b { c", "n": 2}`, false},
		{"trailing comma repaired", `{"issues": ["x", "y",], }`, `{"issues": ["x", "y"]}`, false},
		{"bracketed citations before object", `Based on papers [1] and [2], here is the analysis: {"main_topics": ["AI"]}`, `[1]`, false},
		{"plain prose", "I cannot help with that.", "", true},
		{"empty", "   ", "", true},
		{"unbalanced", `{"a": [1, 2}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.reply)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractKindPrefersWantedKind(t *testing.T) {
	reply := `Based on papers [1] and [2], here is the analysis: {"main_topics": ["AI"], "subtopics": []}`

	got, err := ExtractKind(reply, KindObject)
	require.NoError(t, err)
	assert.Equal(t, `{"main_topics": ["AI"], "subtopics": []}`, got)

	got, err = ExtractKind(`Sections follow {"note": "draft"} ["Intro", "Methods"]`, KindArray)
	require.NoError(t, err)
	assert.Equal(t, `["Intro", "Methods"]`, got)

	got, err = ExtractKind(`only [1] here`, KindObject)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, got, "falls back to any well-formed value")
}

func TestDecodeSkipsProseBrackets(t *testing.T) {
	reply := "Based on papers [1] and [2], here is the analysis:\n" +
		`{"main_topics": ["retrieval"], "subtopics": ["ranking"], "key_concepts": ["BM25"]}`

	var got types.TopicAnalysis
	require.NoError(t, Decode(reply, &got))
	assert.Equal(t, []string{"retrieval"}, got.MainTopics)
	assert.Equal(t, []string{"ranking"}, got.Subtopics)
	assert.Equal(t, []string{"BM25"}, got.KeyConcepts)
}

func TestDecodeScores(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"percentage", `"85%"`, 85},
		{"out of ten", `"8/10"`, 8},
		{"decimal text", `" 7.5 "`, 7.5},
		{"number", `6`, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got types.PlagiarismReport
			reply := `{"potential_issues": ["para 2 close to source"], "citation_coverage": ` + tt.value + `, "recommendations": ["cite P1"]}`
			require.NoError(t, Decode(reply, &got))
			assert.Equal(t, tt.want, got.CitationCoverage)
			assert.Equal(t, []string{"para 2 close to source"}, got.PotentialIssues)
			assert.Equal(t, []string{"cite P1"}, got.Recommendations)
		})
	}
}

func TestDecodeScoreNotNumeric(t *testing.T) {
	var got types.GrammarReport
	require.Error(t, Decode(`{"overall_quality": "excellent"}`, &got))
}

func TestDecodeObjectsAsText(t *testing.T) {
	reply := `{"issues": [{"issue": "passive voice", "location": "para 1"}, {"description": "long sentence"}, {"line": 4}, "comma splice"],
"suggestions": [], "overall_quality": 7}`

	var got types.GrammarReport
	require.NoError(t, Decode(reply, &got))
	assert.Equal(t, []string{"passive voice", "long sentence", `{"line":4}`, "comma splice"}, got.Issues)
	assert.Equal(t, 7.0, got.OverallQuality)
}

func TestDecodeTopicAnalysis(t *testing.T) {
	reply := "```json\n{\"main_topics\": [\"agents\"], \"subtopics\": \"delegation\", \"key_concepts\": [\"orchestration\", \"planning\"]}\n```"

	var got types.TopicAnalysis
	require.NoError(t, Decode(reply, &got))

	assert.Equal(t, []string{"agents"}, got.MainTopics)
	assert.Equal(t, []string{"delegation"}, got.Subtopics, "single value widened to list")
	assert.Equal(t, []string{"orchestration", "planning"}, got.KeyConcepts)
}

func TestDecodeWeakNumbers(t *testing.T) {
	var got types.GrammarReport
	require.NoError(t, Decode(`{"issues": [], "suggestions": ["shorter sentences"], "overall_quality": "8"}`, &got))
	assert.Equal(t, 8.0, got.OverallQuality)
	assert.Equal(t, []string{"shorter sentences"}, got.Suggestions)
}

func TestDecodeShapeMismatch(t *testing.T) {
	var got types.TopicAnalysis
	err := Decode(`["not", "an", "object"]`, &got)
	require.Error(t, err)
}

func TestDecodeValueTypedPassthrough(t *testing.T) {
	in := []types.PaperRecord{{Title: "P1", Year: "2020", Authors: []string{"X"}}}
	var out []types.PaperRecord
	require.NoError(t, DecodeValue(in, &out))
	assert.Equal(t, in, out)
}

func TestDecodeValueGenericMaps(t *testing.T) {
	in := map[string]any{
		"Intro": map[string]any{"accuracy_issues": []any{"claim unsupported"}, "confidence_score": 7},
	}
	var out map[string]types.AccuracyReview
	require.NoError(t, DecodeValue(in, &out))
	assert.Equal(t, []string{"claim unsupported"}, out["Intro"].AccuracyIssues)
	assert.Equal(t, 7.0, out["Intro"].ConfidenceScore)
}
