// Package monitoring watches the run log and the upstream breakers and posts
// alerts to a webhook when analyses start failing.
package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/store"
)

// maxRuns caps how many runs a single collection reads.
const maxRuns = 10000

// MetricsSnapshot holds a point-in-time view of analysis health.
type MetricsSnapshot struct {
	// Run log metrics (within lookback window).
	RunsTotal      int     `json:"runs_total"`
	RunsComplete   int     `json:"runs_complete"`
	RunsFailed     int     `json:"runs_failed"`
	RunsSuperseded int     `json:"runs_superseded"`
	RunsRunning    int     `json:"runs_running"`
	FailRate       float64 `json:"fail_rate"`
	AvgScore       float64 `json:"avg_score"`

	// Runs per scraper that produced content.
	ByScraper map[string]int `json:"by_scraper,omitempty"`

	// Upstreams whose breaker is not closed.
	OpenBreakers []string `json:"open_breakers,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Finished is the number of runs in a terminal state.
func (s *MetricsSnapshot) Finished() int {
	return s.RunsComplete + s.RunsFailed + s.RunsSuperseded
}

// BreakerStates reports the state name of each upstream breaker.
type BreakerStates interface {
	Snapshot() map[string]string
}

// Collector gathers metrics from the run log and breakers.
type Collector struct {
	store    store.Store
	breakers BreakerStates
	now      func() time.Time
}

// NewCollector creates a new metrics collector. breakers may be nil.
func NewCollector(st store.Store, breakers BreakerStates) *Collector {
	return &Collector{store: st, breakers: breakers, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		ByScraper:     make(map[string]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxRuns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalScore float64
	var scored int
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusSuperseded:
			snap.RunsSuperseded++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}
		if r.Scraper != "" {
			snap.ByScraper[r.Scraper]++
		}
		// A superseded run without an error had completed before it was
		// replaced.
		if r.Status == model.RunStatusComplete || (r.Status == model.RunStatusSuperseded && r.Error == "") {
			totalScore += r.OverallScore
			scored++
		}
	}

	if finished := snap.Finished(); finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if scored > 0 {
		snap.AvgScore = totalScore / float64(scored)
	}

	if c.breakers != nil {
		for name, state := range c.breakers.Snapshot() {
			if state != "closed" {
				snap.OpenBreakers = append(snap.OpenBreakers, name)
			}
		}
		sort.Strings(snap.OpenBreakers)
	}

	return snap, nil
}
