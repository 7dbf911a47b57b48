// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-agent/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the database name.
func (b *ArxivBackend) Name() string { return "arXiv" }

// Search queries arXiv by relevance and returns up to cfg.MaxResults records.
func (b *ArxivBackend) Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := collapseSpace(entry.Title)
		if title == "" {
			continue
		}
		r := types.PaperRecord{
			Title:    title,
			Abstract: collapseSpace(entry.Summary),
			Year:     yearOf(entry.Published),
			URL:      absURL(entry.ID),
			Source:   b.Name(),
		}
		for _, a := range entry.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				r.Authors = append(r.Authors, name)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// buildArxivQuery searches all fields for every term of the query.
func buildArxivQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	return "all:" + strings.Join(terms, " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// absURL returns the entry's landing page without the version suffix
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "http://arxiv.org/abs/2301.07041").
func absURL(idURL string) string {
	idURL = strings.TrimSpace(idURL)
	if !strings.Contains(idURL, "/abs/") {
		return idURL
	}
	if vIdx := strings.LastIndex(idURL, "v"); vIdx > strings.Index(idURL, "/abs/") {
		if _, err := strconv.Atoi(idURL[vIdx+1:]); err == nil {
			return idURL[:vIdx]
		}
	}
	return idURL
}

// collapseSpace joins the whitespace-separated fields of s with single spaces.
// Atom titles and summaries are wrapped across lines.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
