package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the janitor evicts expired sessions.
const DefaultSweepInterval = time.Minute

// Janitor periodically removes expired sessions from a Store so memory stays
// bounded by the number of live sessions.
type Janitor struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger
	metrics  *Metrics
}

// NewJanitor creates a Janitor. metrics may be nil.
func NewJanitor(store *Store, interval time.Duration, logger *zap.Logger, metrics *Metrics) *Janitor {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{store: store, interval: interval, logger: logger, metrics: metrics}
}

// Run sweeps on every tick until ctx is cancelled. It always returns nil so
// it can run inside an errgroup next to the HTTP server.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("session janitor started", zap.Duration("interval", j.interval))
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// SweepOnce runs a single eviction pass and returns the number removed.
func (j *Janitor) SweepOnce() int {
	n := j.store.Sweep()
	if n > 0 {
		j.logger.Info("evicted expired sessions", zap.Int("count", n), zap.Int("remaining", j.store.Len()))
		j.metrics.sessionsEvicted(n)
	}
	return n
}
