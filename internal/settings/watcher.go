package settings

import (
	"context"
	"log/slog"
	"time"

	"drivermon/internal/logging"
)

// DefaultInterval is the minimum spacing between fingerprint checks.
const DefaultInterval = 5 * time.Second

// Watcher caches a Snapshot and refreshes it from a Source when the store
// fingerprint changes. It is not safe for concurrent use.
type Watcher struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger

	checked     bool
	lastCheck   time.Time
	fingerprint int64
	loaded      bool
	snapshot    Snapshot
}

// NewWatcher creates a watcher. A non-positive interval uses DefaultInterval.
func NewWatcher(source Source, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		source:   source,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "settings"),
		snapshot: Default(),
	}
}

// Snapshot returns the current snapshot without touching the store.
func (w *Watcher) Snapshot() Snapshot {
	return w.snapshot
}

// MaybeReload returns the current snapshot, consulting the store first when
// at least one interval has passed since the previous check. The first call
// always checks.
func (w *Watcher) MaybeReload(ctx context.Context, now time.Time) Snapshot {
	if w.checked && now.Sub(w.lastCheck) < w.interval {
		return w.snapshot
	}
	w.checked = true
	w.lastCheck = now

	fingerprint, err := w.source.LastModified(ctx)
	if err != nil {
		logging.WarnWithContext(w.logger, "settings fingerprint read failed", "settings_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous monitoring settings stay in effect"),
		)
		return w.snapshot
	}
	if w.loaded && fingerprint == w.fingerprint {
		return w.snapshot
	}

	next, err := Load(ctx, w.source)
	if err != nil {
		logging.WarnWithContext(w.logger, "settings reload failed", "settings_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous monitoring settings stay in effect"),
		)
		return w.snapshot
	}

	if !w.loaded || next != w.snapshot {
		w.logger.Info("monitoring settings loaded",
			logging.Bool("safety_checks_enabled", next.SafetyChecksEnabled),
			logging.Bool("monitoring_enabled", next.MonitoringEnabled),
			logging.Duration("awareness_budget", next.AwarenessTimeBudget),
			logging.Int64("fingerprint", fingerprint),
		)
	}
	w.snapshot = next
	w.fingerprint = fingerprint
	w.loaded = true
	return w.snapshot
}
