// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session stores the pipeline context between command invocations
// so phases can be run one at a time. A session is a single YAML file.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-agent/internal/pipeline"
	"github.com/pdiddy/paper-agent/pkg/types"
)

// DefaultPath is used when no session file is given.
const DefaultPath = "paper-agent-session.yaml"

// ErrNotFound is returned by Load when the session file does not exist.
var ErrNotFound = errors.New("session file not found")

// Session is the persisted state of one paper run.
type Session struct {
	RunID           string                                     `yaml:"run_id"`
	Metadata        types.PaperMetadata                        `yaml:"metadata"`
	CompletedPhases []pipeline.PhaseID                         `yaml:"completed_phases"`
	Statuses        map[pipeline.StageID]pipeline.AgentStatus `yaml:"statuses,omitempty"`
	Context         pipeline.Context                           `yaml:"context"`
	UpdatedAt       time.Time                                  `yaml:"updated_at"`
}

// New starts a session for meta with a freshly initialized context.
func New(runID string, meta types.PaperMetadata) *Session {
	return &Session{
		RunID:           runID,
		Metadata:        meta,
		CompletedPhases: []pipeline.PhaseID{},
		Context:         pipeline.NewContext(meta),
	}
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if s.Context == nil {
		s.Context = pipeline.NewContext(s.Metadata)
	}
	return &s, nil
}

// Save writes s to path, replacing any existing file only once the new
// content is fully written.
func Save(path string, s *Session) error {
	s.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}

// Record copies the coordinator's state into the session.
func (s *Session) Record(c *pipeline.Coordinator) {
	s.RunID = c.RunID()
	s.Context = c.Context()
	s.CompletedPhases = c.CompletedPhases()
	s.Statuses = c.Statuses()
}

// MissingBefore lists the phases that precede id and have not completed.
func (s *Session) MissingBefore(id pipeline.PhaseID) []pipeline.PhaseID {
	done := make(map[pipeline.PhaseID]bool, len(s.CompletedPhases))
	for _, p := range s.CompletedPhases {
		done[p] = true
	}
	var missing []pipeline.PhaseID
	for _, p := range pipeline.Phases() {
		if p.ID == id {
			break
		}
		if !done[p.ID] {
			missing = append(missing, p.ID)
		}
	}
	return missing
}
