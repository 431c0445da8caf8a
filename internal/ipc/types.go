package ipc

import (
	"time"

	"drivermon/internal/messaging"
)

// StartRequest resumes monitoring.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest pauses monitoring.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Settings mirrors the effective monitoring settings.
type Settings struct {
	SafetyChecksEnabled bool    `json:"safety_checks_enabled"`
	MonitoringEnabled   bool    `json:"monitoring_enabled"`
	BudgetSeconds       float64 `json:"budget_seconds"`
}

// Region mirrors the resolved traffic side.
type Region struct {
	IsRHD   bool `json:"is_rhd"`
	Checked bool `json:"checked"`
}

// Calibration mirrors the applied mounting offset.
type Calibration struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// StatusResponse represents combined daemon and monitoring status.
type StatusResponse struct {
	Running         bool                        `json:"running"`
	PID             int                         `json:"pid"`
	StartedAt       time.Time                   `json:"started_at"`
	LockPath        string                      `json:"lock_path"`
	ParamsDBPath    string                      `json:"params_db_path"`
	BusURL          string                      `json:"bus_url"`
	BusConnected    bool                        `json:"bus_connected"`
	LoopError       string                      `json:"loop_error"`
	Cycles          uint64                      `json:"cycles"`
	Published       uint64                      `json:"published"`
	PublishFailures uint64                      `json:"publish_failures"`
	LastPublished   time.Time                   `json:"last_published"`
	Settings        Settings                    `json:"settings"`
	Region          Region                      `json:"region"`
	Calibration     Calibration                 `json:"calibration"`
	Received        map[string]uint64           `json:"received"`
	Dropped         map[string]uint64           `json:"dropped"`
	State           *messaging.DMonitoringState `json:"state,omitempty"`
}
