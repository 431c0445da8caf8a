// Package calibration tracks the device-to-vehicle mounting orientation.
package calibration

// Status mirrors the calibration daemon's state machine.
type Status int

const (
	Uncalibrated Status = iota
	Calibrated
	Invalid
)

func (s Status) String() string {
	switch s {
	case Uncalibrated:
		return "uncalibrated"
	case Calibrated:
		return "calibrated"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Offset is the roll, pitch and yaw of the device relative to the vehicle,
// in radians.
type Offset struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// Report is one calibration message.
type Report struct {
	Status   Status
	RPYCalib []float64
}

// Tracker holds the latest accepted offset. The zero value holds a zero
// offset and is ready to use.
type Tracker struct {
	offset Offset
}

// Offset returns the held offset.
func (t *Tracker) Offset() Offset {
	return t.offset
}

// Ingest accepts report when it is calibrated and carries exactly three
// components. It returns the held offset and whether it changed.
func (t *Tracker) Ingest(report Report) (Offset, bool) {
	if report.Status != Calibrated || len(report.RPYCalib) != 3 {
		return t.offset, false
	}
	next := Offset{Roll: report.RPYCalib[0], Pitch: report.RPYCalib[1], Yaw: report.RPYCalib[2]}
	changed := next != t.offset
	t.offset = next
	return t.offset, changed
}
