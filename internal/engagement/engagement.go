// Package engagement derives the "driver just interacted" signal from
// consecutive vehicle-state reports.
package engagement

// State is the subset of vehicle state the detector reads.
type State struct {
	ButtonEvents    int
	CruiseSpeed     float64
	SteeringPressed bool
}

// Detect reports whether the driver interacted and returns the cruise speed
// to carry into the next call.
func Detect(state State, prevSpeed float64) (bool, float64) {
	engaged := state.ButtonEvents > 0 || state.CruiseSpeed != prevSpeed || state.SteeringPressed
	return engaged, state.CruiseSpeed
}

// Detector carries the previous cruise speed between calls. The zero value
// starts from a speed of zero.
type Detector struct {
	lastSpeed float64
	engaged   bool
}

// Observe runs Detect against the carried speed and remembers the result.
func (d *Detector) Observe(state State) bool {
	d.engaged, d.lastSpeed = Detect(state, d.lastSpeed)
	return d.engaged
}

// Engaged returns the most recent result.
func (d *Detector) Engaged() bool {
	return d.engaged
}

// LastSpeed returns the carried cruise speed.
func (d *Detector) LastSpeed() float64 {
	return d.lastSpeed
}
