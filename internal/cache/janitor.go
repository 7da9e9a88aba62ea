package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
)

const (
	DefaultRetention     = 7 * 24 * time.Hour
	DefaultSweepInterval = time.Hour
)

// Sweeper removes expired and unreadable entries
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (domain.SweepResult, error)
}

// Janitor sweeps the store periodically
type Janitor struct {
	sweeper   Sweeper
	retention time.Duration
	interval  time.Duration
	metrics   Metrics
	logger    *slog.Logger
}

// NewJanitor creates a janitor. Zero durations select the defaults.
func NewJanitor(sweeper Sweeper, retention, interval time.Duration, metrics Metrics, logger *slog.Logger) *Janitor {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		sweeper:   sweeper,
		retention: retention,
		interval:  interval,
		metrics:   metrics,
		logger:    logger.With("component", "janitor"),
	}
}

// SweepOnce runs one sweep. Failures are logged, never returned.
func (j *Janitor) SweepOnce(ctx context.Context) domain.SweepResult {
	res, err := j.sweeper.Sweep(ctx, j.retention)
	if err != nil {
		j.logger.Warn("cache sweep failed", "error", err, "checked", res.Checked)
	}
	if n := res.Removed(); n > 0 {
		j.metrics.Swept(n)
	}
	j.logger.Info("cache sweep finished",
		"checked", res.Checked,
		"expired", res.Expired,
		"unreadable", res.Unreadable,
		"busy", res.Busy,
		"duration", res.Duration,
	)
	return res
}

// Run sweeps once immediately and then on every interval until ctx ends
func (j *Janitor) Run(ctx context.Context) {
	j.SweepOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}
