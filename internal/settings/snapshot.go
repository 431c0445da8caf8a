package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"drivermon/internal/params"
)

// Unlimited is the awareness budget used when the steering monitor timer is
// unset or monitoring is off.
const Unlimited = 24 * time.Hour

// DefaultAwarenessBudget applies before the first successful reload.
const DefaultAwarenessBudget = 70 * time.Second

// Snapshot is an immutable view of the monitoring settings.
type Snapshot struct {
	SafetyChecksEnabled bool
	MonitoringEnabled   bool
	AwarenessTimeBudget time.Duration
}

// Default returns the snapshot used until the store has been read.
func Default() Snapshot {
	return Snapshot{
		SafetyChecksEnabled: true,
		MonitoringEnabled:   true,
		AwarenessTimeBudget: DefaultAwarenessBudget,
	}
}

// Source is the read side of the parameter store.
type Source interface {
	LastModified(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) (string, bool, error)
}

// Load reads a fresh snapshot from source. Lower levels of the hierarchy are
// only read when the level above them is enabled.
func Load(ctx context.Context, source Source) (Snapshot, error) {
	safety, err := readFlag(ctx, source, params.KeySafetyCheckEnabled)
	if err != nil {
		return Snapshot{}, err
	}
	if !safety {
		return Snapshot{AwarenessTimeBudget: Unlimited}, nil
	}

	monitoring, err := readFlag(ctx, source, params.KeyMonitoringEnabled)
	if err != nil {
		return Snapshot{}, err
	}
	if !monitoring {
		return Snapshot{SafetyChecksEnabled: true, AwarenessTimeBudget: Unlimited}, nil
	}

	raw, ok, err := source.Get(ctx, params.KeySteeringMonitorTimer)
	if err != nil {
		return Snapshot{}, err
	}
	budget := Unlimited
	if ok {
		budget = ParseTimer(raw)
	}
	return Snapshot{
		SafetyChecksEnabled: true,
		MonitoringEnabled:   true,
		AwarenessTimeBudget: budget,
	}, nil
}

// ParseFlag reports whether a stored toggle is enabled. Only the literal "0"
// disables.
func ParseFlag(raw string) bool {
	return strings.TrimSpace(raw) != "0"
}

// ParseTimer converts a stored timer in whole minutes into a budget.
// Unparseable or non-positive input yields Unlimited.
func ParseTimer(raw string) time.Duration {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes <= 0 {
		return Unlimited
	}
	budget := time.Duration(minutes) * time.Minute
	if budget > Unlimited {
		return Unlimited
	}
	return budget
}

func readFlag(ctx context.Context, source Source, key string) (bool, error) {
	raw, ok, err := source.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return ParseFlag(raw), nil
}
