package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusRunning    RunStatus = "running"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
	RunStatusSuperseded RunStatus = "superseded" // a newer request or a reset replaced it
)

// Run is one audit-log entry for an orchestrator invocation. It never holds
// the AnalysisData itself; that record lives only in the session.
type Run struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	URL          string    `json:"url"`
	Status       RunStatus `json:"status"`
	Scraper      string    `json:"scraper,omitempty"`
	OverallScore float64   `json:"overall_score"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTerminal reports whether the run will not change status again.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusComplete, RunStatusFailed, RunStatusSuperseded:
		return true
	}
	return false
}
