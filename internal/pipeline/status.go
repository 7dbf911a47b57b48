// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// AgentStatus is the lifecycle state of a stage agent. It is reported in logs,
// metrics and session files; it never drives control flow.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "idle"
	StatusRunning   AgentStatus = "running"
	StatusCompleted AgentStatus = "completed"
	StatusFailed    AgentStatus = "failed"
)

var allStatuses = []string{
	string(StatusIdle), string(StatusRunning), string(StatusCompleted), string(StatusFailed),
}

// initialStatuses returns every stage marked idle.
func initialStatuses() map[StageID]AgentStatus {
	out := make(map[StageID]AgentStatus)
	for _, id := range Stages() {
		out[id] = StatusIdle
	}
	return out
}
