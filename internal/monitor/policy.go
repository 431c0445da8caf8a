package monitor

import (
	"time"

	"drivermon/internal/config"
)

// Policy holds the tuning constants of the awareness engine.
type Policy struct {
	// AwarenessTime is the passive budget used until settings are applied.
	AwarenessTime        time.Duration
	AwarenessPreTime     time.Duration
	AwarenessPromptTime  time.Duration
	DistractedTime       time.Duration
	DistractedPreTime    time.Duration
	DistractedPromptTime time.Duration

	FaceThreshold float64
	EyeThreshold  float64

	BlinkThreshold       float64
	BlinkThresholdSlack  float64
	BlinkThresholdStrict float64

	PitchWeight           float64
	MetricThreshold       float64
	MetricThresholdSlack  float64
	MetricThresholdStrict float64
	PitchPosAllowance     float64
	PitchNaturalOffset    float64
	YawNaturalOffset      float64

	PoseStdThreshold  float64
	HiStdTimeout      time.Duration
	HiStdFallbackTime time.Duration

	DistractedFilterTS time.Duration
	AttentiveBelow     float64
	DistractedAbove    float64

	PoseCalibMinSpeed  float64
	PoseOffsetMinCount int
	PoseOffsetMaxCount int

	RecoveryFactorMax float64
	RecoveryFactorMin float64

	MaxTerminalAlerts   int
	MaxTerminalDuration time.Duration

	// NominalStep is the elapsed time assumed for an observation with no
	// predecessor. A gap between observations longer than StreamTimeout is
	// treated as a lost stream and restarts at NominalStep.
	NominalStep   time.Duration
	StreamTimeout time.Duration
}

// DefaultPolicy returns the reference tuning.
func DefaultPolicy() Policy {
	return Policy{
		AwarenessTime:        70 * time.Second,
		AwarenessPreTime:     config.AwarenessPreSeconds * time.Second,
		AwarenessPromptTime:  6 * time.Second,
		DistractedTime:       11 * time.Second,
		DistractedPreTime:    config.DistractedPreSeconds * time.Second,
		DistractedPromptTime: 6 * time.Second,

		FaceThreshold: 0.4,
		EyeThreshold:  0.6,

		BlinkThreshold:       0.5,
		BlinkThresholdSlack:  0.65,
		BlinkThresholdStrict: 0.5,

		PitchWeight:           1.35,
		MetricThreshold:       0.4,
		MetricThresholdSlack:  0.55,
		MetricThresholdStrict: 0.4,
		PitchPosAllowance:     0.12,
		PitchNaturalOffset:    0.02,
		YawNaturalOffset:      0.08,

		PoseStdThreshold:  0.14,
		HiStdTimeout:      5 * time.Second,
		HiStdFallbackTime: 10 * time.Second,

		DistractedFilterTS: 250 * time.Millisecond,
		AttentiveBelow:     0.37,
		DistractedAbove:    0.63,

		PoseCalibMinSpeed:  13,
		PoseOffsetMinCount: 600,
		PoseOffsetMaxCount: 3600,

		RecoveryFactorMax: 5,
		RecoveryFactorMin: 1.25,

		MaxTerminalAlerts:   3,
		MaxTerminalDuration: 30 * time.Second,

		NominalStep:   100 * time.Millisecond,
		StreamTimeout: 10 * time.Second,
	}
}

// WithOverrides applies the non-zero values from the [monitor] config section.
// Windows that do not exceed their pre-alert lead time are ignored.
func (p Policy) WithOverrides(m config.Monitor) Policy {
	if d := seconds(m.DistractedSeconds); d > p.DistractedPreTime {
		p.DistractedTime = d
	}
	if d := seconds(m.AwarenessSeconds); d > p.AwarenessPreTime {
		p.AwarenessTime = d
	}
	if m.MaxTerminalAlerts > 0 {
		p.MaxTerminalAlerts = m.MaxTerminalAlerts
	}
	if m.MaxTerminalSeconds > 0 {
		p.MaxTerminalDuration = seconds(m.MaxTerminalSeconds)
	}
	if m.PoseStdThreshold > 0 {
		p.PoseStdThreshold = m.PoseStdThreshold
	}
	if m.PoseCalibMinSpeed > 0 {
		p.PoseCalibMinSpeed = m.PoseCalibMinSpeed
	}
	return p
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
