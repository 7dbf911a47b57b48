// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs for papers related to the paper being
// written and returns ordered, deduplicated records.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-agent/internal/httputil"
	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// Backend names accepted in configuration.
const (
	BackendArxiv           = "arxiv"
	BackendSemanticScholar = "semantic_scholar"
	BackendOpenAlex        = "openalex"
)

// DefaultBackends is the backend list used when none is configured.
var DefaultBackends = []string{BackendArxiv, BackendSemanticScholar}

const (
	defaultMaxResults = 5
	defaultTimeout    = 30 * time.Second
)

// Backend searches a single academic API. Name returns the human-readable
// database name recorded in databases_accessed.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.PaperRecord, error)
}

// BuildQuery joins the title and keywords into one free-text query.
func BuildQuery(title string, keywords []string) string {
	parts := make([]string, 0, len(keywords)+1)
	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, t)
	}
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

// NewBackends constructs backends from configured names, preserving order.
// An empty list selects DefaultBackends.
func NewBackends(cfg types.SearchConfig, logger *zap.Logger) ([]Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := cfg.Backends
	if len(names) == 0 {
		names = DefaultBackends
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	retry := httputil.RetryPolicy{Logger: logger}

	backends := make([]Backend, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case BackendArxiv:
			backends = append(backends, &ArxivBackend{Client: client})
		case BackendSemanticScholar:
			backends = append(backends, &SemanticScholarBackend{
				Client: client,
				APIKey: cfg.SemanticScholarAPIKey,
				Retry:  retry,
			})
		case BackendOpenAlex:
			backends = append(backends, &OpenAlexBackend{
				Client: client,
				Email:  cfg.OpenAlexEmail,
				Retry:  retry,
			})
		default:
			return nil, fmt.Errorf("unknown search backend %q", name)
		}
	}
	return backends, nil
}

// Result holds gathered records and the databases that served them.
type Result struct {
	Records     []types.PaperRecord
	Accessed    []string
	DupsRemoved int
}

// Gatherer runs a query against several backends.
type Gatherer struct {
	// Concurrency bounds how many backends are queried at once (default 1).
	Concurrency int
	Logger      *zap.Logger
	Recorder    *metrics.Recorder
}

// Gather queries every backend and concatenates their records in backend
// order, dropping later records whose normalized title was already seen.
// Any backend failure fails the whole gather.
func (g Gatherer) Gather(ctx context.Context, query string, backends []Backend, cfg types.SearchConfig) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{}, fmt.Errorf("search query is empty")
	}
	if len(backends) == 0 {
		return Result{}, fmt.Errorf("no search backends configured")
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	limit := g.Concurrency
	if limit <= 0 {
		limit = 1
	}

	perBackend := make([][]types.PaperRecord, len(backends))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, b := range backends {
		eg.Go(func() error {
			start := time.Now()
			records, err := b.Search(egCtx, query, cfg)
			if err != nil {
				return fmt.Errorf("%s search: %w", b.Name(), err)
			}
			logger.Info("search backend returned",
				zap.String("backend", b.Name()),
				zap.Int("records", len(records)),
				zap.Duration("elapsed", time.Since(start)))
			g.Recorder.SearchRecords(b.Name(), len(records))
			perBackend[i] = records
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	var all []types.PaperRecord
	accessed := make([]string, len(backends))
	for i, b := range backends {
		accessed[i] = b.Name()
		all = append(all, perBackend[i]...)
	}
	records, removed := deduplicate(all)
	return Result{Records: records, Accessed: accessed, DupsRemoved: removed}, nil
}

// deduplicate keeps the first record per normalized title, filling its empty
// fields from later duplicates.
func deduplicate(records []types.PaperRecord) ([]types.PaperRecord, int) {
	seen := make(map[string]int)
	deduped := make([]types.PaperRecord, 0, len(records))
	removed := 0
	for _, r := range records {
		key := normalizeTitle(r.Title)
		if key != "" {
			if idx, ok := seen[key]; ok {
				mergeInto(&deduped[idx], r)
				removed++
				continue
			}
			seen[key] = len(deduped)
		}
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src.
func mergeInto(dst *types.PaperRecord, src types.PaperRecord) {
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == "" {
		dst.Year = src.Year
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(res Result, w io.Writer) {
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-3s  %-60s  %-20s  %-4s  %s\n", "#", "Title", "Authors", "Year", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 105))
	for i, r := range res.Records {
		fmt.Fprintf(w, "%-3d  %-60s  %-20s  %-4s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.Year, r.Source)
	}

	fmt.Fprintf(w, "\n%d results from %s", len(res.Records), strings.Join(res.Accessed, ", "))
	if res.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", res.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(res Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// yearOf returns the leading four-digit year of a date string, or "".
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return date[:4]
}
