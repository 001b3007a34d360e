package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/config"
)

const defaultCheckInterval = 5 * time.Minute

// Checker re-evaluates run health on an interval and posts any alerts.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
}

// NewChecker builds a Checker. A non-positive check interval means five minutes.
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

// Run checks run health every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	zap.L().Info("monitoring: run health checker started",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("monitoring: run health checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check collects one snapshot, evaluates it and sends the resulting alerts.
// It returns the alerts raised, or nil when collection fails.
func (c *Checker) Check(ctx context.Context) []Alert {
	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		zap.L().Error("monitoring: collect run health", zap.Error(err))
		return nil
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		zap.L().Debug("monitoring: runs healthy",
			zap.Int("runs", snap.RunsTotal),
			zap.Float64("run_fail_rate", snap.RunFailRate),
		)
		return nil
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	zap.L().Warn("monitoring: run health alerts raised",
		zap.Int("alerts", len(alerts)),
		zap.Int("sent", sent),
	)
	return alerts
}
