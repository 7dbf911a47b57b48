// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/render"
	"github.com/pdiddy/paper-agent/internal/session"
	"github.com/pdiddy/paper-agent/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all four phases and print the paper",
	Long: `Run executes the research, writing, review and finalization phases in
order for the given paper metadata. The session file is written after the
run, including when a phase fails, so later phases can be retried with
"paper-agent phase".`,
	Example: `  paper-agent run --title "Graph Neural Networks" --authors "Ada Lovelace" --keywords "gnn,survey"`,
	RunE: runRun,
}

func init() {
	addMetadataFlags(runCmd)
	runCmd.Flags().String("session", session.DefaultPath, "session file to write")
	runCmd.Flags().String("output", "", "also write the paper as Markdown to this file")
	runCmd.Flags().String("bib", "", "also write the gathered papers as BibTeX to this file")

	rootCmd.AddCommand(runCmd)
}

func addMetadataFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "paper title")
	cmd.Flags().String("authors", "", "authors (comma-separated)")
	cmd.Flags().String("keywords", "", "keywords (comma-separated)")
	cmd.Flags().String("abstract", "", "draft abstract (kept in the session metadata only; not sent to the model)")
	cmd.Flags().String("references", "", "references to cite, comma-separated (kept in the session metadata only; not sent to the model)")
}

// metadataFromFlags builds validated paper metadata from the form flags.
func metadataFromFlags(cmd *cobra.Command) (types.PaperMetadata, error) {
	title, _ := cmd.Flags().GetString("title")
	authors, _ := cmd.Flags().GetString("authors")
	keywords, _ := cmd.Flags().GetString("keywords")
	abstract, _ := cmd.Flags().GetString("abstract")
	refs, _ := cmd.Flags().GetString("references")

	meta := types.PaperMetadata{
		Title:      title,
		Authors:    types.SplitList(authors),
		Abstract:   abstract,
		Keywords:   types.SplitList(keywords),
		References: types.SplitList(refs),
	}.Normalize()
	if err := meta.Validate(); err != nil {
		return meta, err
	}
	return meta, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	meta, err := metadataFromFlags(cmd)
	if err != nil {
		return err
	}
	sessionPath, _ := cmd.Flags().GetString("session")
	output, _ := cmd.Flags().GetString("output")
	bib, _ := cmd.Flags().GetString("bib")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	coord := a.coordinator(meta)
	final, runErr := coord.Execute(cmd.Context())

	sess := session.New(coord.RunID(), meta)
	sess.Record(coord)
	saveErr := session.Save(sessionPath, sess)
	closeErr := a.close()

	if runErr != nil {
		phase := failedPhase(coord.CompletedPhases())
		fmt.Fprintf(os.Stderr, "Phase %s failed; progress saved to %s\n", phase, sessionPath)
		return errors.Join(fmt.Errorf("%s phase: %w", phase, runErr), saveErr, closeErr)
	}
	if saveErr != nil {
		return saveErr
	}
	logger.Info("session saved", zap.String("path", sessionPath))

	if err := render.Paper(cmd.OutOrStdout(), final); err != nil {
		return err
	}
	if err := writeOutputs(final, output, bib); err != nil {
		return err
	}
	return closeErr
}

// writeOutputs writes the optional Markdown and BibTeX files for c.
func writeOutputs(c pipeline.Context, markdownPath, bibPath string) error {
	if markdownPath != "" {
		f, err := os.Create(markdownPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", markdownPath, err)
		}
		if err := render.Markdown(f, c); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", markdownPath)
	}
	if bibPath != "" {
		papers, err := gatheredPapers(c)
		if err != nil {
			return err
		}
		if err := os.WriteFile(bibPath, []byte(render.BibTeX(papers)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", bibPath, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d BibTeX entries to %s\n", len(papers), bibPath)
	}
	return nil
}

func gatheredPapers(c pipeline.Context) ([]types.PaperRecord, error) {
	var papers []types.PaperRecord
	if _, err := c.Decode(pipeline.KeyAcademicPapers, &papers); err != nil {
		return nil, err
	}
	return papers, nil
}
