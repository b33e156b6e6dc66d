package pipeline

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/seo-dashboard/internal/generate"
	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/store"
)

// --- Scraper Mock ---

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Name() string           { return "mock" }
func (m *mockScraper) Supports(_ string) bool { return true }

func (m *mockScraper) Scrape(ctx context.Context, url string) (*model.ScrapeResult, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScrapeResult), args.Error(1)
}

// --- Generator Mock ---

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, req generate.Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, run store.NewRun) (*model.Run, error) {
	args := m.Called(ctx, run)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID, scraper string, overallScore float64) error {
	return m.Called(ctx, runID, scraper, overallScore).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID, scraper, reason string) error {
	return m.Called(ctx, runID, scraper, reason).Error(0)
}

func (m *mockStore) SupersedeRun(ctx context.Context, runID string) error {
	return m.Called(ctx, runID).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return m.Called().Error(0) }
