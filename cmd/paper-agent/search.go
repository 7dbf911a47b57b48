// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-agent/internal/metrics"
	"github.com/pdiddy/paper-agent/internal/search"
	"github.com/pdiddy/paper-agent/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search academic APIs for candidate papers",
	Long: `Search queries the configured academic backends (arXiv, Semantic Scholar,
OpenAlex) the same way the research stage does. Results are deduplicated
across sources by normalized title. No generation credential is needed.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text query")
	searchCmd.Flags().String("keywords", "", "keywords appended to the query (comma-separated)")
	searchCmd.Flags().StringSlice("backend", nil, "backends to query (default from config)")
	searchCmd.Flags().Int("max-results", 0, "records requested per backend (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	keywords, _ := cmd.Flags().GetString("keywords")
	query = search.BuildQuery(query, types.SplitList(keywords))
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("--query or --keywords is required")
	}

	cfg := appConfig.Search
	if names, _ := cmd.Flags().GetStringSlice("backend"); len(names) > 0 {
		cfg.Backends = names
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.MaxResults = n
	}

	backends, err := search.NewBackends(cfg, logger)
	if err != nil {
		return err
	}
	rec := metrics.NewRecorder()
	g := search.Gatherer{Concurrency: cfg.Concurrency, Logger: logger, Recorder: rec}
	res, err := g.Gather(cmd.Context(), query, backends, cfg)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := writeMetrics(path, rec); err != nil {
			return err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(res, cmd.OutOrStdout())
	}
	search.FormatTable(res, cmd.OutOrStdout())
	return nil
}
