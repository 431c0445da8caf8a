package monitor

import (
	"math"

	"drivermon/internal/calibration"
)

// Geometry of the driver camera crop the pose model runs on.
const (
	resizedFocal = 320.0
	cropHeight   = 320.0
	cropWidth    = 160.0
	fullWidth    = 426.0
)

// Observation is one output of the face pose model. Orientation and its
// std are pitch, yaw, roll in the device frame; position is the face centre
// relative to the crop, each axis in [-0.5, 0.5].
type Observation struct {
	FaceOrientation    []float64
	FaceOrientationStd []float64
	FacePosition       []float64
	FacePositionStd    []float64
	FaceProb           float64
	LeftEyeProb        float64
	RightEyeProb       float64
	LeftBlinkProb      float64
	RightBlinkProb     float64
}

func (o Observation) complete() bool {
	return len(o.FaceOrientation) >= 3 && len(o.FaceOrientationStd) >= 2 &&
		len(o.FacePosition) >= 2 && len(o.FacePositionStd) >= 2
}

// Pose is the driver's head orientation in the road frame plus the
// confidence state of the pose model.
type Pose struct {
	Roll, Pitch, Yaw float64
	PitchStd, YawStd float64

	PitchOffseter RunningStatFilter
	YawOffseter   RunningStatFilter

	LowStd  bool
	CFactor float64
}

func newPose(maxTrackable int) Pose {
	return Pose{
		PitchOffseter: NewRunningStatFilter(maxTrackable),
		YawOffseter:   NewRunningStatFilter(maxTrackable),
		LowStd:        true,
		CFactor:       1,
	}
}

type blink struct {
	left, right float64
	cfactor     float64
}

// FaceOrientation converts the model's device-frame angles to the road frame.
// The face position shifts the angles by the ray through that pixel. The
// yaw correction changes sign for right-hand-drive cabins.
func FaceOrientation(angles, position []float64, offset calibration.Offset, isRHD bool) (roll, pitch, yaw float64) {
	pitchNet, yawNet, rollNet := angles[0], angles[1], angles[2]

	pixelX := (position[0]+0.5)*cropWidth - cropWidth + fullWidth
	pixelY := (position[1] + 0.5) * cropHeight
	yawFocal := math.Atan2(pixelX-math.Floor(fullWidth/2), resizedFocal)
	pitchFocal := math.Atan2(pixelY-math.Floor(cropHeight/2), resizedFocal)

	roll = rollNet
	pitch = pitchNet + pitchFocal
	yaw = -yawNet + yawFocal

	pitch -= offset.Pitch
	sign := 1.0
	if isRHD {
		sign = -1.0
	}
	yaw -= offset.Yaw * sign
	return roll, pitch, yaw
}

// interp is piecewise-linear interpolation clamped to the end points.
func interp(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	for i := 1; i < len(xs); i++ {
		if x <= xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}
