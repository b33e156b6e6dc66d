package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/seo-dashboard/internal/config"
	"github.com/sells-group/seo-dashboard/internal/model"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{
		CheckIntervalSecs:    1,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	checker := NewChecker(NewCollector(&mockStore{}, nil), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- checker.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(&mockStore{}, nil), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})
	assert.Equal(t, defaultCheckInterval, checker.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, checker.Run(ctx))
}

func TestChecker_CheckSendsAlerts(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	cfg := config.MonitoringConfig{
		WebhookURL:          ts.URL,
		LookbackWindowHours: 24,
	}
	collector := NewCollector(&mockStore{}, fakeBreakers{"jina": "open"})
	checker := NewChecker(collector, NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background()))
	assert.Equal(t, int32(1), received.Load())
}

func TestChecker_CheckCollectError(t *testing.T) {
	cfg := config.MonitoringConfig{WebhookURL: "http://127.0.0.1:1", LookbackWindowHours: 24}
	checker := NewChecker(NewCollector(&mockStore{listErr: errors.New("boom")}, nil), NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.Check(context.Background()))
}

func TestChecker_CheckLogsRunCounts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	now := time.Now()
	st := &mockStore{runs: []model.Run{
		{ID: "1", Status: model.RunStatusComplete, Scraper: "firecrawl", OverallScore: 80, CreatedAt: now},
		{ID: "2", Status: model.RunStatusFailed, Error: "scrape: all scrapers failed", CreatedAt: now},
		{ID: "3", Status: model.RunStatusSuperseded, Error: "context canceled", CreatedAt: now},
	}}
	cfg := config.MonitoringConfig{LookbackWindowHours: 24, FailureRateThreshold: 0.9}
	checker := NewChecker(NewCollector(st, nil), NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.Check(context.Background()))

	entries := logs.FilterMessage("monitoring: analysis runs").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["runs_total"])
	assert.Equal(t, int64(1), fields["runs_complete"])
	assert.Equal(t, int64(1), fields["runs_failed"])
	assert.Equal(t, int64(1), fields["runs_superseded"])
	assert.Equal(t, "monitoring.checker", fields["component"])
	assert.NotContains(t, fields, "open_breakers")
}
