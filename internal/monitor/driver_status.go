package monitor

import (
	"math"
	"time"

	"drivermon/internal/calibration"
	"drivermon/internal/settings"
)

// awarenessFloor lets awareness dip below zero so a terminal alert is not
// cleared by the first attentive frame.
const awarenessFloor = -0.1

type distraction int

const (
	notDistracted distraction = iota
	badPose
	badBlink
)

// DriverStatus is the awareness state machine. It is owned by a single
// goroutine and is not safe for concurrent use.
type DriverStatus struct {
	policy Policy

	pose           Pose
	blink          blink
	poseCalibrated bool

	awareness        float64
	awarenessActive  float64
	awarenessPassive float64
	awarenessTime    time.Duration

	distracted       bool
	distractedFilter lowPass
	faceDetected     bool

	terminalAlertCount int
	terminalTime       time.Duration

	// rate is the per-second awareness change for the current mode.
	rate       float64
	stepChange float64
	active     bool

	thresholdPre    float64
	thresholdPrompt float64

	hiStds        int
	hiStdDuration time.Duration

	monitoringEnabled bool
}

// NewDriverStatus creates an engine in active mode with full awareness.
func NewDriverStatus(policy Policy) *DriverStatus {
	d := &DriverStatus{
		policy:            policy,
		pose:              newPose(policy.PoseOffsetMaxCount),
		blink:             blink{cfactor: 1},
		awareness:         1,
		awarenessActive:   1,
		awarenessPassive:  1,
		awarenessTime:     policy.AwarenessTime,
		distractedFilter:  lowPass{ts: policy.DistractedFilterTS},
		active:            true,
		monitoringEnabled: true,
	}
	d.setTimers(true)
	return d
}

// ApplySettings threads a settings snapshot into the engine. While
// monitoring is disabled every awareness value is held at 1 and the
// terminal counters at zero.
func (d *DriverStatus) ApplySettings(s settings.Snapshot) {
	d.monitoringEnabled = s.SafetyChecksEnabled && s.MonitoringEnabled
	if s.AwarenessTimeBudget > 0 {
		d.awarenessTime = s.AwarenessTimeBudget
	}
	if !d.monitoringEnabled {
		d.forceAttentive()
	}
}

// SetPolicy re-tunes the distraction thresholds from the driving model's
// engaged probability: low probability is strict, high is slack.
func (d *DriverStatus) SetPolicy(engagedProb float64) {
	ep := math.Max(math.Min(engagedProb, 0.8), 0) / 0.8
	p := d.policy
	knots := []float64{0, 0.5, 1}
	d.pose.CFactor = interp(ep, knots, []float64{p.MetricThresholdStrict, p.MetricThreshold, p.MetricThresholdSlack}) / p.MetricThreshold
	d.blink.cfactor = interp(ep, knots, []float64{p.BlinkThresholdStrict, p.BlinkThreshold, p.BlinkThresholdSlack}) / p.BlinkThreshold
}

// GetPose ingests one pose observation taken elapsed after the previous one.
// Incomplete observations are ignored.
func (d *DriverStatus) GetPose(obs Observation, offset calibration.Offset, isRHD bool, speed float64, assistActive bool, elapsed time.Duration) {
	if !obs.complete() {
		return
	}
	elapsed = max(elapsed, 0)
	p := d.policy

	d.pose.Roll, d.pose.Pitch, d.pose.Yaw = FaceOrientation(obs.FaceOrientation, obs.FacePosition, offset, isRHD)
	d.pose.PitchStd = obs.FaceOrientationStd[0]
	d.pose.YawStd = obs.FaceOrientationStd[1]
	d.pose.LowStd = math.Max(d.pose.PitchStd, d.pose.YawStd) < p.PoseStdThreshold

	d.blink.left = gated(obs.LeftBlinkProb, obs.LeftEyeProb > p.EyeThreshold)
	d.blink.right = gated(obs.RightBlinkProb, obs.RightEyeProb > p.EyeThreshold)
	d.faceDetected = obs.FaceProb > p.FaceThreshold &&
		math.Abs(obs.FacePosition[0]) <= 0.4 && math.Abs(obs.FacePosition[1]) <= 0.45

	d.distracted = d.classify() != notDistracted
	d.distractedFilter.update(boolFloat(d.distracted), elapsed)

	if d.faceDetected && speed > p.PoseCalibMinSpeed && d.pose.LowStd && (!assistActive || !d.distracted) {
		d.pose.PitchOffseter.PushAndUpdate(d.pose.Pitch)
		d.pose.YawOffseter.PushAndUpdate(d.pose.Yaw)
	}
	d.poseCalibrated = d.pose.PitchOffseter.Filtered.N() > p.PoseOffsetMinCount &&
		d.pose.YawOffseter.Filtered.N() > p.PoseOffsetMinCount

	modelUncertain := d.hiStdDuration > p.HiStdFallbackTime
	d.setTimers(d.faceDetected && !modelUncertain)

	switch {
	case d.faceDetected && !d.pose.LowStd:
		d.hiStds++
		d.hiStdDuration += elapsed
	case d.faceDetected:
		d.hiStds = 0
		d.hiStdDuration = 0
	}
}

// TooDistracted reports whether new engagements must be blocked.
func (d *DriverStatus) TooDistracted() bool {
	return d.terminalAlertCount >= d.policy.MaxTerminalAlerts ||
		d.terminalTime >= d.policy.MaxTerminalDuration
}

// LockoutEvent is the event raised while TooDistracted holds.
func LockoutEvent() Event {
	return newEvent(EventTooDistracted, EventNoEntry)
}

// Update advances awareness by elapsed and returns the alerts for this
// cycle. engaged is the driver interaction signal, assistActive whether the
// assistance system is engaged.
func (d *DriverStatus) Update(engaged, assistActive, standstill bool, elapsed time.Duration) []Event {
	if !d.monitoringEnabled {
		d.forceAttentive()
		d.stepChange = 0
		return nil
	}
	elapsed = max(elapsed, 0)
	step := d.rate * elapsed.Seconds()
	d.stepChange = step

	if (engaged && d.awareness > 0) || !assistActive {
		d.awareness, d.awarenessActive, d.awarenessPassive = 1, 1, 1
		if engaged && !assistActive && standstill {
			d.terminalAlertCount = 0
			d.terminalTime = 0
		}
		return nil
	}

	var events []Event
	p := d.policy
	attentive := d.distractedFilter.x < p.AttentiveBelow
	prev := d.awareness

	if d.faceDetected && d.hiStdDuration > p.HiStdTimeout {
		events = append(events, newEvent(EventDriverMonitorLowAcc, EventWarning))
	}

	if attentive && d.faceDetected && d.pose.LowStd && d.awareness > 0 {
		factor := (p.RecoveryFactorMax-p.RecoveryFactorMin)*(1-d.awareness) + p.RecoveryFactorMin
		d.awareness = math.Min(d.awareness+factor*step, 1)
		if d.awareness == 1 {
			d.awarenessPassive = math.Min(d.awarenessPassive+step, 1)
		}
		if d.awareness > d.thresholdPrompt {
			return events
		}
	}

	sustained := d.distractedFilter.x > p.DistractedAbove && d.distracted && d.faceDetected
	if !d.faceDetected || sustained {
		d.awareness = d.decay(step, standstill)
	}

	var alert string
	switch {
	case d.awareness <= 0:
		alert = pick(d.active, EventDriverDistracted, EventDriverUnresponsive)
		d.terminalTime += elapsed
		if prev > 0 {
			d.terminalAlertCount++
		}
	case d.awareness <= d.thresholdPrompt:
		alert = pick(d.active, EventPromptDriverDistracted, EventPromptDriverUnresponsive)
	case d.awareness <= d.thresholdPre:
		alert = pick(d.active, EventPreDriverDistracted, EventPreDriverUnresponsive)
	}
	if alert != "" {
		events = append(events, newEvent(alert, EventWarning))
	}
	return events
}

// decay lowers awareness by step. At standstill it stops just above the
// prompt threshold so a stopped car never escalates to an orange alert.
func (d *DriverStatus) decay(step float64, standstill bool) float64 {
	if standstill {
		if d.awareness <= d.thresholdPrompt {
			return d.awareness
		}
		return math.Max(d.awareness-step, math.Nextafter(d.thresholdPrompt, 1))
	}
	return math.Max(d.awareness-step, awarenessFloor)
}

// setTimers selects the monitoring mode and its rate and thresholds. Once
// awareness is at or below the prompt threshold in active mode the mode is
// frozen so the driver cannot escape an alert by hiding their face.
func (d *DriverStatus) setTimers(activeMonitoring bool) {
	if d.active && d.awareness <= d.thresholdPrompt {
		if activeMonitoring {
			d.rate = 1 / d.activeWindow().Seconds()
		} else {
			d.rate = 0
		}
		return
	}
	if d.awareness <= 0 {
		return
	}

	p := d.policy
	if activeMonitoring {
		if !d.active {
			d.awarenessPassive = d.awareness
			d.awareness = d.awarenessActive
		}
		window := d.activeWindow()
		d.thresholdPre = d.ratio(p.DistractedPreTime, window)
		d.thresholdPrompt = d.ratio(p.DistractedPromptTime, window)
		d.rate = 1 / window.Seconds()
		d.active = true
		return
	}

	if d.active {
		d.awarenessActive = d.awareness
		d.awareness = d.awarenessPassive
	}
	window := d.awarenessTime
	d.thresholdPre = d.ratio(p.AwarenessPreTime, window)
	d.thresholdPrompt = d.ratio(p.AwarenessPromptTime, window)
	d.rate = 1 / window.Seconds()
	d.active = false
}

func (d *DriverStatus) activeWindow() time.Duration {
	return min(d.policy.DistractedTime, d.awarenessTime)
}

func (d *DriverStatus) ratio(part, window time.Duration) float64 {
	return math.Min(part.Seconds()/window.Seconds(), 1)
}

func (d *DriverStatus) classify() distraction {
	p := d.policy
	var pitchErr, yawErr float64
	if d.poseCalibrated {
		pitchErr = d.pose.Pitch - d.pose.PitchOffseter.Filtered.Mean()
		yawErr = d.pose.Yaw - d.pose.YawOffseter.Filtered.Mean()
	} else {
		pitchErr = d.pose.Pitch - p.PitchNaturalOffset
		yawErr = d.pose.Yaw - p.YawNaturalOffset
	}
	if pitchErr > 0 {
		pitchErr = math.Max(pitchErr-p.PitchPosAllowance, 0)
	}
	pitchErr *= p.PitchWeight

	metric := math.Sqrt(yawErr*yawErr + pitchErr*pitchErr)
	switch {
	case metric > p.MetricThreshold*d.pose.CFactor:
		return badPose
	case (d.blink.left+d.blink.right)*0.5 > p.BlinkThreshold*d.blink.cfactor:
		return badBlink
	default:
		return notDistracted
	}
}

func (d *DriverStatus) forceAttentive() {
	d.awareness, d.awarenessActive, d.awarenessPassive = 1, 1, 1
	d.terminalAlertCount = 0
	d.terminalTime = 0
}

func gated(prob float64, open bool) float64 {
	if !open {
		return 0
	}
	return prob
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func pick(active bool, activeName, passiveName string) string {
	if active {
		return activeName
	}
	return passiveName
}
