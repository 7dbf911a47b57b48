// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// mockBackend returns canned records or an error and counts calls.
type mockBackend struct {
	name    string
	records []types.PaperRecord
	err     error
	calls   atomic.Int32
	query   string
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, query string, _ types.SearchConfig) ([]types.PaperRecord, error) {
	m.calls.Add(1)
	m.query = query
	return m.records, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		UserAgent:  "paper-agent-test/0.1",
		MaxResults: 5,
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		keywords []string
		want     string
	}{
		{"title only", "Agent Pipelines", nil, "Agent Pipelines"},
		{"title and keywords", "Agent Pipelines", []string{"llm", "orchestration"}, "Agent Pipelines llm orchestration"},
		{"blank keywords dropped", " Agent Pipelines ", []string{"", " llm "}, "Agent Pipelines llm"},
		{"empty", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildQuery(tt.title, tt.keywords); got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewBackends(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		backends, err := NewBackends(types.SearchConfig{}, nil)
		require.NoError(t, err)
		require.Len(t, backends, 2)
		assert.Equal(t, "arXiv", backends[0].Name())
		assert.Equal(t, "Semantic Scholar", backends[1].Name())
	})

	t.Run("configured order", func(t *testing.T) {
		cfg := types.SearchConfig{
			Backends:              []string{"openalex", "ArXiv"},
			OpenAlexEmail:         "me@example.org",
			SemanticScholarAPIKey: "unused",
		}
		backends, err := NewBackends(cfg, nil)
		require.NoError(t, err)
		require.Len(t, backends, 2)
		oa, ok := backends[0].(*OpenAlexBackend)
		require.True(t, ok)
		assert.Equal(t, "me@example.org", oa.Email)
		assert.Equal(t, "arXiv", backends[1].Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewBackends(types.SearchConfig{Backends: []string{"pubmed"}}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pubmed")
	})
}

func TestGatherKeepsBackendOrderAndDedups(t *testing.T) {
	first := &mockBackend{name: "arXiv", records: []types.PaperRecord{
		{Title: "Attention Is All You Need", Year: "2017", Source: "arXiv"},
		{Title: "Graph Agents", Year: "2021", Source: "arXiv"},
	}}
	second := &mockBackend{name: "Semantic Scholar", records: []types.PaperRecord{
		{Title: "attention is all you need!", Abstract: "Transformers.", URL: "https://s2/1", Source: "Semantic Scholar"},
		{Title: "Toolformer", Year: "2023", Source: "Semantic Scholar"},
	}}

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			g := Gatherer{Concurrency: concurrency}
			res, err := g.Gather(context.Background(), "attention", []Backend{first, second}, testCfg())
			require.NoError(t, err)

			titles := make([]string, len(res.Records))
			for i, r := range res.Records {
				titles[i] = r.Title
			}
			assert.Equal(t, []string{"Attention Is All You Need", "Graph Agents", "Toolformer"}, titles)
			assert.Equal(t, []string{"arXiv", "Semantic Scholar"}, res.Accessed)
			assert.Equal(t, 1, res.DupsRemoved)

			merged := res.Records[0]
			assert.Equal(t, "2017", merged.Year)
			assert.Equal(t, "Transformers.", merged.Abstract, "empty field filled from duplicate")
			assert.Equal(t, "arXiv", merged.Source)
		})
	}
}

func TestGatherFailsOnBackendError(t *testing.T) {
	boom := errors.New("HTTP 503")
	ok := &mockBackend{name: "arXiv", records: []types.PaperRecord{{Title: "A"}}}
	bad := &mockBackend{name: "Semantic Scholar", err: boom}

	_, err := Gatherer{}.Gather(context.Background(), "q", []Backend{ok, bad}, testCfg())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Semantic Scholar search")
}

func TestGatherRejectsEmptyInput(t *testing.T) {
	_, err := Gatherer{}.Gather(context.Background(), "  ", []Backend{&mockBackend{name: "x"}}, testCfg())
	assert.Error(t, err)

	_, err = Gatherer{}.Gather(context.Background(), "q", nil, testCfg())
	assert.Error(t, err)
}

func TestGatherRecordsMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	b := &mockBackend{name: "OpenAlex", records: []types.PaperRecord{{Title: "A"}, {Title: "B"}}}

	_, err := Gatherer{Recorder: rec}.Gather(context.Background(), "q", []Backend{b}, testCfg())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteText(&buf))
	assert.Contains(t, buf.String(), `paper_agent_search_records_total{backend="OpenAlex"} 2`)
}

func TestDeduplicateKeepsUntitledRecords(t *testing.T) {
	in := []types.PaperRecord{{Title: ""}, {Title: ""}, {Title: "X"}}
	out, removed := deduplicate(in)
	assert.Len(t, out, 3)
	assert.Zero(t, removed)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Attention Is All You Need", "attention is all you need"},
		{"  BERT: Pre-training   of Deep  ", "bert pretraining of deep"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestYearOf(t *testing.T) {
	assert.Equal(t, "2017", yearOf("2017-06-12T17:57:34Z"))
	assert.Equal(t, "2020", yearOf("2020"))
	assert.Equal(t, "", yearOf("20"))
	assert.Equal(t, "", yearOf("June 2020"))
}

func TestFormatTable(t *testing.T) {
	res := Result{
		Records: []types.PaperRecord{
			{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani", "Noam Shazeer"}, Year: "2017", Source: "arXiv"},
			{Title: strings.Repeat("Long title ", 10), Authors: []string{"Solo"}, Source: "OpenAlex"},
		},
		Accessed:    []string{"arXiv", "OpenAlex"},
		DupsRemoved: 1,
	}
	var buf bytes.Buffer
	FormatTable(res, &buf)
	out := buf.String()

	assert.Contains(t, out, "Attention Is All You Need")
	assert.Contains(t, out, "Ashish Vaswani et al.")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 results from arXiv, OpenAlex (1 duplicates removed)")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Result{}, &buf)
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(Result{Records: []types.PaperRecord{{Title: "A", Year: "2020"}}}, &buf))
	assert.Contains(t, buf.String(), `"title": "A"`)
	assert.Contains(t, buf.String(), `"year": "2020"`)
}

// --- arXiv ---

const sampleArxivSearchXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models
      are based on recurrent networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <published>2018-10-11T00:50:01Z</published>
    <title>BERT</title>
    <summary>Language representation.</summary>
    <author><name>Jacob Devlin</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/0000.00000v1</id>
    <title>   </title>
  </entry>
</feed>`

func TestArxivBackendSearch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleArxivSearchXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	b := &ArxivBackend{Client: ts.Client()}
	records, err := b.Search(context.Background(), "attention transformers", testCfg())
	require.NoError(t, err)
	require.Len(t, records, 2, "untitled entry skipped")

	q := captured.URL.Query()
	assert.Equal(t, "all:attention transformers", q.Get("search_query"))
	assert.Equal(t, "5", q.Get("max_results"))
	assert.Equal(t, "paper-agent-test/0.1", captured.Header.Get("User-Agent"))

	r := records[0]
	assert.Equal(t, "Attention Is All You Need", r.Title)
	assert.Equal(t, "The dominant sequence transduction models are based on recurrent networks.", r.Abstract)
	assert.Equal(t, "2017", r.Year)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762", r.URL)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, r.Authors)
	assert.Equal(t, "arXiv", r.Source)
}

func TestArxivBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	_, err := (&ArxivBackend{Client: ts.Client()}).Search(context.Background(), "q", testCfg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestArxivBackendEmptyQuery(t *testing.T) {
	_, err := (&ArxivBackend{Client: http.DefaultClient}).Search(context.Background(), "   ", testCfg())
	assert.Error(t, err)
}

func TestAbsURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "http://arxiv.org/abs/2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "http://arxiv.org/abs/2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "http://arxiv.org/abs/2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "http://arxiv.org/abs/hep-th/9901001"},
		{"https://example.org/paper", "https://example.org/paper"},
	}
	for _, tt := range tests {
		if got := absURL(tt.in); got != tt.want {
			t.Errorf("absURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
