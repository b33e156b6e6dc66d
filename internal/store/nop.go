package store

import (
	"context"

	"github.com/sells-group/seo-dashboard/internal/model"
)

// NopStore discards the run log. Used when store.driver is "none".
type NopStore struct{}

func (NopStore) CreateRun(_ context.Context, in NewRun) (*model.Run, error) {
	return &model.Run{URL: in.URL, SessionID: in.SessionID, Email: in.Email, Status: model.RunStatusRunning}, nil
}

func (NopStore) CompleteRun(context.Context, string, string, float64) error { return nil }
func (NopStore) FailRun(context.Context, string, string, string) error      { return nil }
func (NopStore) SupersedeRun(context.Context, string) error                 { return nil }

func (NopStore) GetRun(context.Context, string) (*model.Run, error) {
	return nil, ErrNotFound
}

func (NopStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }
func (NopStore) Migrate(context.Context) error                           { return nil }
func (NopStore) Close() error                                            { return nil }
