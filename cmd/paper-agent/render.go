// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-agent/internal/render"
	"github.com/pdiddy/paper-agent/internal/session"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the paper stored in a session file",
	Long: `Render prints the formatted sections of a session as plain text or
Markdown. The gathered papers can also be exported as BibTeX or CSL-YAML.
No credential is needed.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("session", session.DefaultPath, "session file to read")
	renderCmd.Flags().String("format", "text", "output format: text or markdown")
	renderCmd.Flags().String("bib", "", "write the gathered papers as BibTeX to this file")
	renderCmd.Flags().String("csl", "", "write the gathered papers as CSL-YAML to this file")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	sessionPath, _ := cmd.Flags().GetString("session")
	format, _ := cmd.Flags().GetString("format")
	bib, _ := cmd.Flags().GetString("bib")
	cslPath, _ := cmd.Flags().GetString("csl")

	sess, err := session.Load(sessionPath)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "text", "":
		err = render.Paper(w, sess.Context)
	case "markdown", "md":
		err = render.Markdown(w, sess.Context)
	default:
		return fmt.Errorf("unknown format %q: use text or markdown", format)
	}
	if err != nil {
		return err
	}

	if err := writeOutputs(sess.Context, "", bib); err != nil {
		return err
	}
	if cslPath != "" {
		papers, err := gatheredPapers(sess.Context)
		if err != nil {
			return err
		}
		f, err := os.Create(cslPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", cslPath, err)
		}
		if err := render.CSL(f, papers); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d CSL items to %s\n", len(papers), cslPath)
	}
	return nil
}
