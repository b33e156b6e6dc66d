// Package store persists the analysis run log. It is an audit trail of
// orchestrator invocations; the analysis record itself is never stored.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = eris.New("store: run not found")

// NewRun describes a run about to start.
type NewRun struct {
	SessionID string
	Email     string
	URL       string
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	URL          string          `json:"url,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for the run log.
type Store interface {
	CreateRun(ctx context.Context, run NewRun) (*model.Run, error)
	CompleteRun(ctx context.Context, runID, scraper string, overallScore float64) error
	FailRun(ctx context.Context, runID, scraper, reason string) error
	SupersedeRun(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
