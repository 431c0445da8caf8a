package daemon

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"drivermon/internal/calibration"
	"drivermon/internal/engagement"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
	"drivermon/internal/monitor"
	"drivermon/internal/region"
	"drivermon/internal/settings"
)

// Snapshot is the immutable view of the loop published after every
// iteration.
type Snapshot struct {
	Cycles          uint64
	Published       uint64
	PublishFailures uint64
	LastPublished   time.Time
	Settings        settings.Snapshot
	Region          region.Status
	Calibration     calibration.Offset
	State           *messaging.DMonitoringState
	Messages        messaging.Stats
}

// LoopDeps are the collaborators of a Loop.
type LoopDeps struct {
	Aggregator *messaging.Aggregator
	Publisher  messaging.Publisher
	Settings   *settings.Watcher
	Region     *region.Resolver
	Engine     *monitor.DriverStatus
	Policy     monitor.Policy
	Logger     *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Loop runs the monitoring cycle. Only Snapshot may be called from other
// goroutines.
type Loop struct {
	agg       *messaging.Aggregator
	publisher messaging.Publisher
	watcher   *settings.Watcher
	resolver  *region.Resolver
	engine    *monitor.DriverStatus
	policy    monitor.Policy
	logger    *slog.Logger
	now       func() time.Time
	epoch     time.Time

	tracker  calibration.Tracker
	detector engagement.Detector

	lastPoseTime int64
	havePose     bool
	lastEvents   []string
	lastState    *messaging.DMonitoringState

	cycles          uint64
	published       uint64
	publishFailures uint64
	lastPublished   time.Time

	snapshot atomic.Pointer[Snapshot]
}

// NewLoop creates a loop from its collaborators.
func NewLoop(deps LoopDeps) *Loop {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	l := &Loop{
		agg:       deps.Aggregator,
		publisher: deps.Publisher,
		watcher:   deps.Settings,
		resolver:  deps.Region,
		engine:    deps.Engine,
		policy:    deps.Policy,
		logger:    logging.NewComponentLogger(deps.Logger, "loop"),
		now:       now,
		epoch:     now(),
	}
	l.snapshot.Store(&Snapshot{Settings: deps.Settings.Snapshot(), Region: deps.Region.Status()})
	return l
}

// Run iterates until ctx is cancelled or the input source closes.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration. It reports whether a state was published.
func (l *Loop) Step(ctx context.Context) (bool, error) {
	updated, err := l.agg.Update(ctx)
	if err != nil {
		return false, err
	}
	l.cycles++

	snap := l.watcher.MaybeReload(ctx, l.now())
	l.engine.ApplySettings(snap)
	if !snap.SafetyChecksEnabled || !snap.MonitoringEnabled {
		l.resolver.Bypass()
	}

	if updated.Has(messaging.TopicGPSLocation) && !l.resolver.Status().Checked {
		gps := l.agg.GPSLocation()
		l.resolver.Resolve(region.Fix{Latitude: gps.Latitude, Longitude: gps.Longitude, HasFix: gps.HasFix()})
	}

	if updated.Has(messaging.TopicLiveCalibration) {
		lc := l.agg.LiveCalibration()
		if offset, changed := l.tracker.Ingest(calibration.Report{Status: calibration.Status(lc.CalStatus), RPYCalib: lc.RPYCalib}); changed {
			l.logger.Debug("calibration updated",
				logging.Float64("pitch", offset.Pitch),
				logging.Float64("yaw", offset.Yaw),
			)
		}
	}

	car := l.agg.CarState()
	if updated.Has(messaging.TopicCarState) {
		engaged := l.detector.Observe(engagement.State{
			ButtonEvents:    len(car.ButtonEvents),
			CruiseSpeed:     car.CruiseState.Speed,
			SteeringPressed: car.SteeringPressed,
		})
		if engaged {
			l.engine.Update(true, car.CruiseState.Enabled, car.Standstill, 0)
		}
	}

	if updated.Has(messaging.TopicModel) {
		l.engine.SetPolicy(l.agg.Model().Meta.EngagedProb)
	}

	published := false
	if updated.Has(messaging.TopicDriverState) {
		published = l.poseCycle(ctx, car)
	}
	l.storeSnapshot(snap)
	return published, nil
}

func (l *Loop) poseCycle(ctx context.Context, car messaging.CarState) bool {
	ts, _ := l.agg.LogMonoTime(messaging.TopicDriverState)
	elapsed := l.policy.NominalStep
	if l.havePose {
		elapsed = time.Duration(ts - l.lastPoseTime)
		if l.policy.StreamTimeout > 0 && elapsed > l.policy.StreamTimeout {
			logging.WarnWithContext(l.logger, "driver pose stream resumed after gap", "pose_stream_gap",
				logging.Duration("gap", elapsed),
				logging.String(logging.FieldTopic, messaging.TopicDriverState),
				logging.String(logging.FieldImpact, "awareness timing restarts from this observation"),
				logging.String(logging.FieldErrorHint, "check the driver camera model process"),
			)
			elapsed = l.policy.NominalStep
		}
	}
	l.lastPoseTime, l.havePose = ts, true

	ds := l.agg.DriverState()
	l.engine.GetPose(monitor.Observation{
		FaceOrientation:    ds.FaceOrientation,
		FaceOrientationStd: ds.FaceOrientationStd,
		FacePosition:       ds.FacePosition,
		FacePositionStd:    ds.FacePositionStd,
		FaceProb:           ds.FaceProb,
		LeftEyeProb:        ds.LeftEyeProb,
		RightEyeProb:       ds.RightEyeProb,
		LeftBlinkProb:      ds.LeftBlinkProb,
		RightBlinkProb:     ds.RightBlinkProb,
	}, l.tracker.Offset(), l.resolver.Status().IsRHD, car.VEgo, car.CruiseState.Enabled, elapsed)

	var events []monitor.Event
	if l.engine.TooDistracted() {
		events = append(events, monitor.LockoutEvent())
	}
	events = append(events, l.engine.Update(l.detector.Engaged(), car.CruiseState.Enabled, car.Standstill, elapsed)...)

	state := buildState(events, l.engine.Report(), l.resolver.Status())
	l.logEventChanges(state)

	env, err := messaging.NewEnvelope(messaging.TopicDMonitoringState, int64(l.now().Sub(l.epoch)), state)
	if err == nil {
		err = l.publisher.Publish(ctx, env)
	}
	if err != nil {
		l.publishFailures++
		if ctx.Err() == nil {
			logging.WarnWithContext(l.logger, "monitoring state publish failed", "publish_failed",
				logging.Error(err),
				logging.String(logging.FieldTopic, messaging.TopicDMonitoringState),
				logging.String(logging.FieldImpact, "downstream consumers miss this cycle"),
			)
		}
	} else {
		l.published++
		l.lastPublished = l.now()
	}
	l.lastState = &state
	return err == nil
}

func (l *Loop) logEventChanges(state messaging.DMonitoringState) {
	names := eventNames(state.Events)
	if slices.Equal(names, l.lastEvents) {
		return
	}
	l.lastEvents = names
	l.logger.Info("monitoring events changed",
		logging.Any("events", names),
		logging.Float64("awareness", state.AwarenessStatus),
		logging.Int("terminal_alerts", state.TerminalAlertCount),
	)
}

func (l *Loop) storeSnapshot(settingsSnap settings.Snapshot) {
	l.snapshot.Store(&Snapshot{
		Cycles:          l.cycles,
		Published:       l.published,
		PublishFailures: l.publishFailures,
		LastPublished:   l.lastPublished,
		Settings:        settingsSnap,
		Region:          l.resolver.Status(),
		Calibration:     l.tracker.Offset(),
		State:           l.lastState,
		Messages:        l.agg.Stats(),
	})
}

// Snapshot returns the view stored after the most recent iteration.
func (l *Loop) Snapshot() Snapshot {
	return *l.snapshot.Load()
}
