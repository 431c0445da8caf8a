package params

// Store keys consumed by the monitor. Names match existing device stores.
const (
	KeyIsRHD                = "IsRHD"
	KeySafetyCheckEnabled   = "DragonEnableDriverSafetyCheck"
	KeyMonitoringEnabled    = "DragonEnableDriverMonitoring"
	KeySteeringMonitorTimer = "DragonSteeringMonitorTimer"
)

// KnownKeys lists the keys drivermon reads, in display order.
func KnownKeys() []string {
	return []string{
		KeySafetyCheckEnabled,
		KeyMonitoringEnabled,
		KeySteeringMonitorTimer,
		KeyIsRHD,
	}
}
