// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/internal/session"
)

var phaseCmd = &cobra.Command{
	Use:       "phase <research|writing|review|finalization>",
	Short:     "Run one phase against a session file",
	ValidArgs: []string{"research", "writing", "review", "finalization"},
	Args:      cobra.ExactArgs(1),
	Long: `Phase runs the stages of a single phase against the context stored in
the session file and saves the merged result. When the session file does not
exist a new session is started from the metadata flags.

Phases may be run in any order; running a phase before the ones it normally
follows only logs a warning.`,
	RunE: runPhase,
}

func init() {
	addMetadataFlags(phaseCmd)
	phaseCmd.Flags().String("session", session.DefaultPath, "session file to read and update")

	rootCmd.AddCommand(phaseCmd)
}

func runPhase(cmd *cobra.Command, args []string) error {
	phaseID := pipeline.PhaseID(strings.ToLower(args[0]))
	if _, err := pipeline.LookupPhase(phaseID); err != nil {
		return err
	}
	sessionPath, _ := cmd.Flags().GetString("session")

	sess, err := session.Load(sessionPath)
	switch {
	case errors.Is(err, session.ErrNotFound):
		meta, merr := metadataFromFlags(cmd)
		if merr != nil {
			return fmt.Errorf("no session at %s: %w", sessionPath, merr)
		}
		sess = session.New("", meta)
		fmt.Fprintf(os.Stderr, "Starting new session %s\n", sessionPath)
	case err != nil:
		return err
	}

	if missing := sess.MissingBefore(phaseID); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, p := range missing {
			names[i] = string(p)
		}
		logger.Warn("earlier phases have not completed",
			zap.String("phase", string(phaseID)),
			zap.Strings("missing", names))
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	coord := a.coordinator(sess.Metadata,
		pipeline.WithRunID(sess.RunID),
		pipeline.WithSnapshot(sess.Context, sess.CompletedPhases))
	runErr := coord.RunPhase(cmd.Context(), phaseID)

	sess.Record(coord)
	saveErr := session.Save(sessionPath, sess)
	closeErr := a.close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Phase %s failed; progress saved to %s\n", phaseID, sessionPath)
		return errors.Join(fmt.Errorf("%s phase: %w", phaseID, runErr), saveErr, closeErr)
	}
	if saveErr != nil {
		return saveErr
	}
	fmt.Fprintf(os.Stderr, "Phase %s completed; session saved to %s\n", phaseID, sessionPath)
	return closeErr
}
