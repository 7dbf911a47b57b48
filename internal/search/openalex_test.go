// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{
			name:  "ordered words",
			index: map[string][]int{"We": {0}, "propose": {1}, "a": {2}, "new": {3}, "method": {4}},
			want:  "We propose a new method",
		},
		{
			name:  "repeated word",
			index: map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}},
			want:  "the cat sat on the mat",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

const sampleOpenAlexJSON = `{
  "meta": {"count": 2, "per_page": 5, "page": 1},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "title": "Attention Is All You Need",
      "doi": "https://doi.org/10.5555/3295222.3295349",
      "publication_date": "2017-06-12",
      "publication_year": 2017,
      "authorships": [
        {"author": {"id": "A1", "display_name": "Ashish Vaswani"}},
        {"author": {"id": "A2", "display_name": "Noam Shazeer"}}
      ],
      "abstract_inverted_index": {"We": [0], "propose": [1], "transformers": [2]}
    },
    {
      "id": "https://openalex.org/W3210812345",
      "title": "BERT",
      "doi": null,
      "publication_date": "2018-10-11",
      "authorships": [{"author": {"id": "A3", "display_name": ""}}]
    }
  ]
}`

func withOpenAlexServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	t.Cleanup(func() {
		openAlexSearchBase = old
		ts.Close()
	})
	return ts
}

func TestOpenAlexBackendSearch(t *testing.T) {
	var captured *http.Request
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, sampleOpenAlexJSON)
	})

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.org"}
	records, err := b.Search(context.Background(), "attention", testCfg())
	require.NoError(t, err)
	require.Len(t, records, 2)

	q := captured.URL.Query()
	assert.Equal(t, "attention", q.Get("search"))
	assert.Equal(t, "5", q.Get("per_page"))
	assert.Equal(t, "me@example.org", q.Get("mailto"))

	first := records[0]
	assert.Equal(t, "Attention Is All You Need", first.Title)
	assert.Equal(t, "2017", first.Year)
	assert.Equal(t, "https://doi.org/10.5555/3295222.3295349", first.URL)
	assert.Equal(t, "We propose transformers", first.Abstract)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, "OpenAlex", first.Source)

	second := records[1]
	assert.Equal(t, "2018", second.Year, "year from publication date")
	assert.Equal(t, "https://openalex.org/W3210812345", second.URL, "falls back to OpenAlex ID")
	assert.Empty(t, second.Authors)
}

func TestOpenAlexBackendCapsPerPage(t *testing.T) {
	var perPage string
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		fmt.Fprint(w, `{"results": []}`)
	})

	cfg := testCfg()
	cfg.MaxResults = 500
	_, err := (&OpenAlexBackend{Client: ts.Client()}).Search(context.Background(), "q", cfg)
	require.NoError(t, err)
	assert.Equal(t, "200", perPage)
}

func TestOpenAlexBackendHTTPNon200(t *testing.T) {
	ts := withOpenAlexServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := (&OpenAlexBackend{Client: ts.Client()}).Search(context.Background(), "q", testCfg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestOpenAlexBackendEmptyQuery(t *testing.T) {
	_, err := (&OpenAlexBackend{Client: http.DefaultClient}).Search(context.Background(), " ", testCfg())
	assert.Error(t, err)
}
