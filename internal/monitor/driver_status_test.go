package monitor

import (
	"math"
	"testing"
	"time"

	"drivermon/internal/calibration"
	"drivermon/internal/config"
	"drivermon/internal/settings"
)

const tick = 100 * time.Millisecond

// lookingAway yields a confident face turned well to the side.
func lookingAway() Observation {
	return Observation{
		FaceOrientation:    []float64{0, 0.8, 0},
		FaceOrientationStd: []float64{0.05, 0.05, 0.05},
		FacePosition:       []float64{0, 0},
		FacePositionStd:    []float64{0.01, 0.01},
		FaceProb:           0.95,
	}
}

// lookingAhead yields a confident face on the natural offsets.
func lookingAhead() Observation {
	yawFocal := math.Atan2(346-213, resizedFocal)
	return Observation{
		FaceOrientation:    []float64{0.02, yawFocal - 0.08, 0},
		FaceOrientationStd: []float64{0.05, 0.05, 0.05},
		FacePosition:       []float64{0, 0},
		FacePositionStd:    []float64{0.01, 0.01},
		FaceProb:           0.95,
	}
}

func noFace() Observation {
	obs := lookingAhead()
	obs.FaceProb = 0.1
	return obs
}

func enabled(budget time.Duration) settings.Snapshot {
	return settings.Snapshot{SafetyChecksEnabled: true, MonitoringEnabled: true, AwarenessTimeBudget: budget}
}

// cycle runs one pose cycle the way the daemon does.
func cycle(d *DriverStatus, obs Observation, engaged, assistActive, standstill bool, speed float64, dt time.Duration) []Event {
	var events []Event
	d.GetPose(obs, calibration.Offset{}, false, speed, assistActive, dt)
	if d.TooDistracted() {
		events = append(events, LockoutEvent())
	}
	return append(events, d.Update(engaged, assistActive, standstill, dt)...)
}

func TestSustainedDistractionEscalatesToLockout(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(60 * time.Second))

	var events []Event
	sawTerminal := false
	for i := 0; i < 650; i++ {
		events = cycle(d, lookingAway(), false, true, false, 20, tick)
		if HasEvent(events, EventDriverDistracted) {
			sawTerminal = true
		}
	}
	report := d.Report()
	if report.TerminalAlertCount < 1 {
		t.Fatalf("expected a terminal alert, got count %d", report.TerminalAlertCount)
	}
	if !sawTerminal {
		t.Fatal("expected driverDistracted alert")
	}
	if !HasEvent(events, EventTooDistracted) {
		t.Fatalf("expected tooDistracted in final events, got %+v", events)
	}
	for _, ev := range events {
		if ev.Name == EventTooDistracted && (len(ev.Types) != 1 || ev.Types[0] != EventNoEntry) {
			t.Fatalf("tooDistracted must be noEntry, got %+v", ev.Types)
		}
	}
	if report.Awareness != 0 {
		t.Fatalf("published awareness should clamp to 0, got %v", report.Awareness)
	}
	if d.Awareness() >= 0 {
		t.Fatalf("raw awareness should sit on the floor, got %v", d.Awareness())
	}
}

func TestAlertsEscalateInOrder(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))

	first := map[string]int{}
	for i := 0; i < 150; i++ {
		for _, ev := range cycle(d, lookingAway(), false, true, false, 0, tick) {
			if _, ok := first[ev.Name]; !ok {
				first[ev.Name] = i
			}
		}
	}
	pre, okPre := first[EventPreDriverDistracted]
	prompt, okPrompt := first[EventPromptDriverDistracted]
	terminal, okTerminal := first[EventDriverDistracted]
	if !okPre || !okPrompt || !okTerminal {
		t.Fatalf("missing alerts: %v", first)
	}
	if !(pre < prompt && prompt < terminal) {
		t.Fatalf("alerts out of order: %v", first)
	}
	// Eleven seconds of active monitoring plus filter warm-up.
	if terminal < 105 || terminal > 120 {
		t.Fatalf("terminal alert at cycle %d, want about 110", terminal)
	}
}

func TestUnseenDriverUsesPassiveBudget(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))

	terminalAt := -1
	for i := 0; i < 700 && terminalAt < 0; i++ {
		if HasEvent(cycle(d, noFace(), false, true, false, 0, tick), EventDriverUnresponsive) {
			terminalAt = i
		}
	}
	if d.Report().ActiveMonitoring {
		t.Fatal("expected passive monitoring without a face")
	}
	if terminalAt < 590 || terminalAt > 610 {
		t.Fatalf("terminal unresponsive alert at cycle %d, want about 600", terminalAt)
	}
}

func TestDecayIsFrameRateIndependent(t *testing.T) {
	run := func(dt time.Duration) time.Duration {
		d := NewDriverStatus(DefaultPolicy())
		d.ApplySettings(enabled(time.Minute))
		var elapsed time.Duration
		for elapsed < time.Minute {
			elapsed += dt
			if HasEvent(cycle(d, lookingAway(), false, true, false, 0, dt), EventDriverDistracted) {
				return elapsed
			}
		}
		t.Fatalf("no terminal alert at dt=%v", dt)
		return 0
	}
	fast := run(50 * time.Millisecond)
	slow := run(200 * time.Millisecond)
	if diff := fast - slow; diff < -500*time.Millisecond || diff > 500*time.Millisecond {
		t.Fatalf("time to alert depends on frame rate: %v vs %v", fast, slow)
	}
}

func TestDecayMonotoneInElapsed(t *testing.T) {
	for _, standstill := range []bool{false, true} {
		base := NewDriverStatus(DefaultPolicy())
		base.ApplySettings(enabled(time.Minute))
		for i := 0; i < 40; i++ {
			cycle(base, lookingAway(), false, true, false, 0, tick)
		}
		for _, dt := range []time.Duration{0, 10 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond} {
			once, twice := *base, *base
			start := base.Awareness()
			once.Update(false, true, standstill, dt)
			twice.Update(false, true, standstill, 2*dt)
			d1 := start - once.Awareness()
			d2 := start - twice.Awareness()
			if d1 < 0 || d2 < d1 {
				t.Fatalf("standstill=%v dt=%v: decay %v then %v for double elapsed", standstill, dt, d1, d2)
			}
		}
	}
}

func TestStandstillDoesNotEscalatePastPrompt(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 300; i++ {
		for _, ev := range cycle(d, lookingAway(), false, true, true, 0, tick) {
			if ev.Name == EventPromptDriverDistracted || ev.Name == EventDriverDistracted {
				t.Fatalf("cycle %d: %s raised at standstill", i, ev.Name)
			}
		}
	}
	if d.Awareness() <= d.thresholdPrompt {
		t.Fatalf("awareness %v fell to prompt threshold %v", d.Awareness(), d.thresholdPrompt)
	}
}

func TestEngagementResetsAwareness(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 50; i++ {
		cycle(d, lookingAway(), false, true, false, 0, tick)
	}
	if d.Awareness() >= 1 {
		t.Fatal("expected decayed awareness")
	}
	if events := d.Update(true, true, false, 0); len(events) != 0 {
		t.Fatalf("engagement should raise no events, got %+v", events)
	}
	r := d.Report()
	if r.Awareness != 1 || r.AwarenessActive != 1 || r.AwarenessPassive != 1 {
		t.Fatalf("expected full awareness after engagement, got %+v", r)
	}
}

func TestTerminalCountersAreSticky(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 150; i++ {
		cycle(d, lookingAway(), false, true, false, 0, tick)
	}
	count := d.Report().TerminalAlertCount
	if count != 1 {
		t.Fatalf("expected one terminal alert, got %d", count)
	}

	// Interaction while red does not restore awareness.
	d.Update(true, true, false, tick)
	if d.Awareness() > 0 {
		t.Fatalf("engagement at red must not restore awareness, got %v", d.Awareness())
	}

	// Disengaging restores awareness but keeps the counters.
	d.Update(false, false, false, tick)
	if r := d.Report(); r.Awareness != 1 || r.TerminalAlertCount != count || r.TerminalTime == 0 {
		t.Fatalf("disengage should keep counters, got %+v", r)
	}
	for i := 0; i < 100; i++ {
		cycle(d, lookingAhead(), false, true, false, 0, tick)
	}
	if d.Report().TerminalAlertCount != count {
		t.Fatal("counters must not decay with attentive driving")
	}

	// Stopping and interacting with assist off clears them.
	d.Update(true, false, true, 0)
	if r := d.Report(); r.TerminalAlertCount != 0 || r.TerminalTime != 0 {
		t.Fatalf("expected counters cleared, got %+v", r)
	}
}

func TestMonitoringDisabledHoldsFullAwareness(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 200; i++ {
		cycle(d, lookingAway(), false, true, false, 0, tick)
	}
	if d.Report().TerminalAlertCount == 0 {
		t.Fatal("expected prior distraction history")
	}

	off := settings.Snapshot{AwarenessTimeBudget: settings.Unlimited}
	for i := 0; i < 500; i++ {
		d.ApplySettings(off)
		events := cycle(d, lookingAway(), false, true, false, 0, tick)
		r := d.Report()
		if len(events) != 0 || r.Awareness != 1 || r.AwarenessActive != 1 || r.AwarenessPassive != 1 ||
			r.TerminalAlertCount != 0 || r.TerminalTime != 0 {
			t.Fatalf("cycle %d: override not applied: events=%+v report=%+v", i, events, r)
		}
	}
	if d.MonitoringEnabled() {
		t.Fatal("expected monitoring disabled")
	}
}

func TestAttentiveDriverRecovers(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 40; i++ {
		cycle(d, lookingAway(), false, true, false, 0, tick)
	}
	low := d.Awareness()
	for i := 0; i < 40; i++ {
		cycle(d, lookingAhead(), false, true, false, 0, tick)
	}
	if d.Awareness() <= low {
		t.Fatalf("expected recovery from %v, got %v", low, d.Awareness())
	}
	if d.Report().IsDistracted {
		t.Fatal("driver looking ahead should not be distracted")
	}
}

func TestPoseOffsetsLearnAtSpeed(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	for i := 0; i < 700; i++ {
		d.GetPose(lookingAhead(), calibration.Offset{}, false, 5, false, tick)
	}
	if r := d.Report(); r.PosePitchValidCount != 0 {
		t.Fatalf("offsets must not learn below calibration speed, got %d", r.PosePitchValidCount)
	}
	for i := 0; i < 700; i++ {
		d.GetPose(lookingAhead(), calibration.Offset{}, false, 20, false, tick)
	}
	r := d.Report()
	if r.PosePitchValidCount != 700 || r.PoseYawValidCount != 700 {
		t.Fatalf("expected 700 samples, got %d/%d", r.PosePitchValidCount, r.PoseYawValidCount)
	}
	if !d.poseCalibrated {
		t.Fatal("expected calibrated pose")
	}
	if math.Abs(r.PoseYawOffset-0.08) > 1e-9 || math.Abs(r.PosePitchOffset-0.02) > 1e-9 {
		t.Fatalf("unexpected learned offsets pitch=%v yaw=%v", r.PosePitchOffset, r.PoseYawOffset)
	}
}

func TestPoseOffsetsSkipDistractedSamplesWhileAssisted(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	for i := 0; i < 20; i++ {
		d.GetPose(lookingAway(), calibration.Offset{}, false, 20, true, tick)
	}
	if n := d.Report().PoseYawValidCount; n != 0 {
		t.Fatalf("expected no samples, got %d", n)
	}
	d.GetPose(lookingAway(), calibration.Offset{}, false, 20, false, tick)
	if n := d.Report().PoseYawValidCount; n != 1 {
		t.Fatalf("expected one sample with assist off, got %d", n)
	}
}

func TestHighStdFallsBackAndWarns(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.ApplySettings(enabled(time.Minute))
	obs := lookingAhead()
	obs.FaceOrientationStd = []float64{0.3, 0.3, 0.3}

	var sawLowAcc bool
	for i := 0; i < 120; i++ {
		if HasEvent(cycle(d, obs, false, true, false, 0, tick), EventDriverMonitorLowAcc) {
			sawLowAcc = true
		}
	}
	r := d.Report()
	if !sawLowAcc {
		t.Fatal("expected driverMonitorLowAcc warning")
	}
	if r.IsLowStd || r.HiStdCount != 120 {
		t.Fatalf("unexpected std state %+v", r)
	}
	if r.ActiveMonitoring {
		t.Fatal("uncertain model should fall back to passive monitoring")
	}

	d.GetPose(lookingAhead(), calibration.Offset{}, false, 0, true, tick)
	if d.Report().HiStdCount != 0 {
		t.Fatal("confident frame should reset the streak")
	}
}

func TestIncompleteObservationIgnored(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	d.GetPose(lookingAway(), calibration.Offset{}, false, 0, true, tick)
	before := d.Report()
	d.GetPose(Observation{FaceProb: 0.1}, calibration.Offset{}, false, 0, true, tick)
	if d.Report() != before {
		t.Fatal("incomplete observation changed state")
	}
}

func TestSetPolicyScalesThresholds(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	tests := []struct {
		prob  float64
		pose  float64
		blink float64
	}{
		{0, 1, 1},
		{0.4, 1, 1},
		{0.8, 0.55 / 0.4, 0.65 / 0.5},
		{1, 0.55 / 0.4, 0.65 / 0.5},
		{-1, 1, 1},
	}
	for _, tt := range tests {
		d.SetPolicy(tt.prob)
		if math.Abs(d.pose.CFactor-tt.pose) > 1e-9 || math.Abs(d.blink.cfactor-tt.blink) > 1e-9 {
			t.Fatalf("SetPolicy(%v): pose=%v blink=%v", tt.prob, d.pose.CFactor, d.blink.cfactor)
		}
	}
}

func TestBlinkCountsAsDistraction(t *testing.T) {
	d := NewDriverStatus(DefaultPolicy())
	obs := lookingAhead()
	obs.LeftEyeProb, obs.RightEyeProb = 0.9, 0.9
	obs.LeftBlinkProb, obs.RightBlinkProb = 0.9, 0.8
	d.GetPose(obs, calibration.Offset{}, false, 0, true, tick)
	if !d.Report().IsDistracted {
		t.Fatal("closed eyes should count as distracted")
	}

	obs.LeftEyeProb, obs.RightEyeProb = 0.1, 0.1
	d.GetPose(obs, calibration.Offset{}, false, 0, true, tick)
	if d.Report().IsDistracted {
		t.Fatal("blink should be ignored when eyes are not found")
	}
}

func TestFaceOrientationRegionFlipsYawCalibration(t *testing.T) {
	angles := []float64{0.1, 0.2, 0.3}
	pos := []float64{0, 0}
	offset := calibration.Offset{Pitch: 0.05, Yaw: 0.04}

	roll, pitchL, yawL := FaceOrientation(angles, pos, offset, false)
	_, pitchR, yawR := FaceOrientation(angles, pos, offset, true)
	if roll != 0.3 {
		t.Fatalf("roll passes through, got %v", roll)
	}
	if pitchL != pitchR {
		t.Fatal("pitch must not depend on region")
	}
	if math.Abs((yawR-yawL)-0.08) > 1e-12 {
		t.Fatalf("expected yaw difference 2*offset, got %v", yawR-yawL)
	}
	if math.Abs(pitchL-(0.1-0.05)) > 1e-12 {
		t.Fatalf("centre pixel pitch should only apply calibration, got %v", pitchL)
	}
}

func TestPolicyOverrides(t *testing.T) {
	p := DefaultPolicy().WithOverrides(config.Monitor{DistractedSeconds: 9, MaxTerminalAlerts: 2})
	if p.DistractedTime != 9*time.Second || p.MaxTerminalAlerts != 2 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.AwarenessTime != 70*time.Second || p.PoseStdThreshold != 0.14 {
		t.Fatal("zero overrides must keep defaults")
	}
}

func TestShortWindowOverridesAreIgnored(t *testing.T) {
	p := DefaultPolicy().WithOverrides(config.Monitor{DistractedSeconds: 3, AwarenessSeconds: 10})
	if p.DistractedTime != 11*time.Second || p.AwarenessTime != 70*time.Second {
		t.Fatalf("windows shorter than the lead time must be ignored: %+v", p)
	}

	d := NewDriverStatus(p)
	d.ApplySettings(enabled(time.Minute))
	for i := 0; i < 50; i++ {
		if events := cycle(d, lookingAhead(), false, true, false, 0, tick); len(events) != 0 {
			t.Fatalf("cycle %d: attentive driver alerted: %v", i, events)
		}
	}
	if d.Awareness() != 1 {
		t.Fatalf("expected full awareness, got %v", d.Awareness())
	}
}

func TestSparsePoseArrivalKeepsTimeToAlert(t *testing.T) {
	for _, dt := range []time.Duration{tick, time.Second, 2 * time.Second, 3 * time.Second} {
		d := NewDriverStatus(DefaultPolicy())
		d.ApplySettings(enabled(time.Minute))
		var elapsed time.Duration
		terminal := false
		for elapsed < 30*time.Second {
			elapsed += dt
			if HasEvent(cycle(d, lookingAway(), false, true, false, 0, dt), EventDriverDistracted) {
				terminal = true
				break
			}
		}
		if !terminal {
			t.Fatalf("dt=%v: no terminal alert within 30s", dt)
		}
		if elapsed < 10*time.Second || elapsed > 13*time.Second {
			t.Fatalf("dt=%v: terminal alert after %v, want about 11s", dt, elapsed)
		}
	}
}
