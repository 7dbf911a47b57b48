// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/pdiddy/paper-agent/pkg/types"
)

func TestNewContextKeys(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		meta := types.PaperMetadata{
			Title:      rapid.String().Draw(t, "title"),
			Authors:    rapid.SliceOfN(rapid.String(), 1, 5).Draw(t, "authors"),
			Abstract:   rapid.String().Draw(t, "abstract"),
			Keywords:   rapid.SliceOf(rapid.String()).Draw(t, "keywords"),
			References: rapid.SliceOf(rapid.String()).Draw(t, "references"),
		}
		c := NewContext(meta)

		if got := c.Keys(); len(got) != 3 || got[0] != KeyAuthors || got[1] != KeyKeywords || got[2] != KeyTitle {
			t.Fatalf("keys = %v", got)
		}
		if c.String(KeyTitle) != meta.Title {
			t.Fatalf("title = %q, want %q", c.String(KeyTitle), meta.Title)
		}
		assert.Equal(t, meta.Authors, c.Strings(KeyAuthors))
		kw := c.Strings(KeyKeywords)
		if len(meta.Keywords) == 0 {
			if kw == nil || len(kw) != 0 {
				t.Fatalf("keywords = %#v, want empty list", kw)
			}
		} else {
			assert.Equal(t, meta.Keywords, kw)
		}
	})
}

func TestNewContextCopiesLists(t *testing.T) {
	authors := []string{"Ada"}
	c := NewContext(types.PaperMetadata{Title: "T", Authors: authors})
	authors[0] = "changed"
	assert.Equal(t, []string{"Ada"}, c.Strings(KeyAuthors))
	assert.Equal(t, []string{}, c[KeyKeywords])
}

// Merging never removes keys and the last write wins.
func TestMergeLastWriteWins(t *testing.T) {
	keyGen := rapid.StringMatching(`[a-e]{1,2}`)
	rapid.Check(t, func(t *rapid.T) {
		base := Context(toAny(rapid.MapOf(keyGen, rapid.Int()).Draw(t, "base")))
		update := StageResult(toAny(rapid.MapOf(keyGen, rapid.Int()).Draw(t, "update")))
		before := base.Clone()

		base.Merge(update)

		for k, v := range before {
			got, ok := base[k]
			if !ok {
				t.Fatalf("key %q removed", k)
			}
			if _, overwritten := update[k]; !overwritten && got != v {
				t.Fatalf("key %q changed without update: %v -> %v", k, v, got)
			}
		}
		for k, v := range update {
			if base[k] != v {
				t.Fatalf("key %q = %v, want %v", k, base[k], v)
			}
		}
		if len(base) > len(before)+len(update) {
			t.Fatalf("merge invented keys")
		}
	})
}

func toAny(m map[string]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func TestCloneIsIndependent(t *testing.T) {
	c := Context{"a": 1}
	snap := c.Clone()
	snap["b"] = 2
	snap["a"] = 3
	assert.Equal(t, Context{"a": 1}, c)
}

func TestStringsConvertsGenericLists(t *testing.T) {
	c := Context{
		"typed":   []string{"x", "y"},
		"generic": []any{"x", "y"},
		"number":  42,
	}
	assert.Equal(t, []string{"x", "y"}, c.Strings("typed"))
	assert.Equal(t, []string{"x", "y"}, c.Strings("generic"))
	assert.Nil(t, c.Strings("missing"))
	assert.Empty(t, c.String("number"))
}

func TestDecode(t *testing.T) {
	c := Context{
		KeyTopicAnalysis: map[string]any{
			"main_topics":  []any{"agents"},
			"subtopics":    []any{},
			"key_concepts": []any{"planning"},
		},
		KeyAcademicPapers: []types.PaperRecord{{Title: "P1", Year: "2020"}},
	}

	var ta types.TopicAnalysis
	ok, err := c.Decode(KeyTopicAnalysis, &ta)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"agents"}, ta.MainTopics)

	var papers []types.PaperRecord
	ok, err = c.Decode(KeyAcademicPapers, &papers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "P1", papers[0].Title)

	ok, err = c.Decode("absent", &papers)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupPhase(t *testing.T) {
	p, err := LookupPhase(PhaseReview)
	require.NoError(t, err)
	assert.Equal(t, []StageID{StageQualityCheck, StageExpertReview}, p.Stages)

	_, err = LookupPhase("publishing")
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestPhasesOrder(t *testing.T) {
	var ids []PhaseID
	for _, p := range Phases() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []PhaseID{PhaseResearch, PhaseWriting, PhaseReview, PhaseFinalization}, ids)
	assert.Equal(t, []StageID{
		StageResearchGather, StageTopicAnalyze, StageContentDraft,
		StageQualityCheck, StageExpertReview, StageFormat,
	}, Stages())
}
