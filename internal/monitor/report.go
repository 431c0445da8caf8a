package monitor

import "time"

// Report is the engine state published once per pose cycle. Awareness
// values are clamped to [0, 1].
type Report struct {
	FaceDetected        bool
	IsDistracted        bool
	Awareness           float64
	AwarenessActive     float64
	AwarenessPassive    float64
	PosePitchOffset     float64
	PosePitchValidCount int
	PoseYawOffset       float64
	PoseYawValidCount   int
	StepChange          float64
	IsLowStd            bool
	HiStdCount          int
	ActiveMonitoring    bool
	TerminalAlertCount  int
	TerminalTime        time.Duration
}

// Report returns the current published view of the engine.
func (d *DriverStatus) Report() Report {
	return Report{
		FaceDetected:        d.faceDetected,
		IsDistracted:        d.distracted,
		Awareness:           clamp01(d.awareness),
		AwarenessActive:     clamp01(d.awarenessActive),
		AwarenessPassive:    clamp01(d.awarenessPassive),
		PosePitchOffset:     d.pose.PitchOffseter.Filtered.Mean(),
		PosePitchValidCount: d.pose.PitchOffseter.Filtered.N(),
		PoseYawOffset:       d.pose.YawOffseter.Filtered.Mean(),
		PoseYawValidCount:   d.pose.YawOffseter.Filtered.N(),
		StepChange:          d.stepChange,
		IsLowStd:            d.pose.LowStd,
		HiStdCount:          d.hiStds,
		ActiveMonitoring:    d.active,
		TerminalAlertCount:  d.terminalAlertCount,
		TerminalTime:        d.terminalTime,
	}
}

// Awareness returns the raw awareness, which may dip slightly below zero.
func (d *DriverStatus) Awareness() float64 { return d.awareness }

// MonitoringEnabled reports whether the last applied settings enable
// monitoring.
func (d *DriverStatus) MonitoringEnabled() bool { return d.monitoringEnabled }

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
