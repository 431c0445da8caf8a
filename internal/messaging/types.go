package messaging

// DriverState is the face pose model output.
type DriverState struct {
	FaceOrientation    []float64 `json:"faceOrientation"`
	FaceOrientationStd []float64 `json:"faceOrientationStd"`
	FacePosition       []float64 `json:"facePosition"`
	FacePositionStd    []float64 `json:"facePositionStd"`
	FaceProb           float64   `json:"faceProb"`
	LeftEyeProb        float64   `json:"leftEyeProb"`
	RightEyeProb       float64   `json:"rightEyeProb"`
	LeftBlinkProb      float64   `json:"leftBlinkProb"`
	RightBlinkProb     float64   `json:"rightBlinkProb"`
}

// Calibration status values carried by LiveCalibration.
const (
	CalStatusUncalibrated = 0
	CalStatusCalibrated   = 1
	CalStatusInvalid      = 2
)

// LiveCalibration reports the device mounting orientation.
type LiveCalibration struct {
	CalStatus int       `json:"calStatus"`
	RPYCalib  []float64 `json:"rpyCalib,omitempty"`
}

// ButtonEvent is a steering-wheel or dash button transition.
type ButtonEvent struct {
	Type    string `json:"type"`
	Pressed bool   `json:"pressed"`
}

// CruiseState is the cruise-control part of CarState.
type CruiseState struct {
	Enabled bool    `json:"enabled"`
	Speed   float64 `json:"speed"`
}

// CarState is the vehicle state.
type CarState struct {
	VEgo            float64       `json:"vEgo"`
	CruiseState     CruiseState   `json:"cruiseState"`
	ButtonEvents    []ButtonEvent `json:"buttonEvents,omitempty"`
	SteeringPressed bool          `json:"steeringPressed"`
	Standstill      bool          `json:"standstill"`
}

// ModelMeta is the metadata block of the driving model.
type ModelMeta struct {
	EngagedProb float64 `json:"engagedProb"`
}

// ModelData is the driving model output. Only the metadata is consumed.
type ModelData struct {
	Meta ModelMeta `json:"meta"`
}

// GPSLocation is a geographic fix. Bit 0 of Flags marks a valid fix.
type GPSLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Flags     int     `json:"flags"`
}

// HasFix reports whether the receiver had a position fix.
func (g GPSLocation) HasFix() bool {
	return g.Flags&1 == 1
}

// Event is a monitoring event in the published state.
type Event struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// DMonitoringState is the state published once per pose cycle.
type DMonitoringState struct {
	Events              []Event `json:"events"`
	FaceDetected        bool    `json:"faceDetected"`
	IsDistracted        bool    `json:"isDistracted"`
	AwarenessStatus     float64 `json:"awarenessStatus"`
	IsRHD               bool    `json:"isRHD"`
	RHDChecked          bool    `json:"rhdChecked"`
	PosePitchOffset     float64 `json:"posePitchOffset"`
	PosePitchValidCount int     `json:"posePitchValidCount"`
	PoseYawOffset       float64 `json:"poseYawOffset"`
	PoseYawValidCount   int     `json:"poseYawValidCount"`
	StepChange          float64 `json:"stepChange"`
	AwarenessActive     float64 `json:"awarenessActive"`
	AwarenessPassive    float64 `json:"awarenessPassive"`
	IsLowStd            bool    `json:"isLowStd"`
	HiStdCount          int     `json:"hiStdCount"`
	TerminalAlertCount  int     `json:"terminalAlertCount"`
	TerminalTimeSeconds float64 `json:"terminalTimeSeconds"`
}
