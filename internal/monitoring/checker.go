package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker watches the run log on a timer and posts alerts to the webhook
// when analyses start failing or an upstream breaker opens.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
}

// NewChecker creates a Checker. A non-positive check interval falls back to
// five minutes.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		lookback:  cfg.LookbackWindowHours,
	}
}

// Run checks once per interval until ctx is cancelled. It always returns
// nil so it can sit in an errgroup.
func (c *Checker) Run(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: watching run log",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring: run log watch stopped")
			return nil
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check summarises the run log for the lookback window, logs the counts and
// sends whatever alerts they trigger. It returns the number of alerts sent.
func (c *Checker) Check(ctx context.Context) int {
	log := zap.L().With(zap.String("component", "monitoring.checker"))

	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		log.Error("monitoring: run log unavailable", zap.Error(err))
		return 0
	}
	log.Info("monitoring: analysis runs", snapshotFields(snap)...)

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	if sent < len(alerts) {
		log.Warn("monitoring: some alerts not delivered",
			zap.Int("triggered", len(alerts)),
			zap.Int("sent", sent),
		)
	}
	return sent
}

func snapshotFields(snap *MetricsSnapshot) []zap.Field {
	fields := []zap.Field{
		zap.Int("runs_total", snap.RunsTotal),
		zap.Int("runs_complete", snap.RunsComplete),
		zap.Int("runs_failed", snap.RunsFailed),
		zap.Int("runs_superseded", snap.RunsSuperseded),
		zap.Int("runs_running", snap.RunsRunning),
		zap.Float64("fail_rate", snap.FailRate),
		zap.Float64("avg_score", snap.AvgScore),
	}
	if len(snap.ByScraper) > 0 {
		fields = append(fields, zap.Any("by_scraper", snap.ByScraper))
	}
	if len(snap.OpenBreakers) > 0 {
		fields = append(fields, zap.Strings("open_breakers", snap.OpenBreakers))
	}
	return fields
}
