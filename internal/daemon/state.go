package daemon

import (
	"drivermon/internal/messaging"
	"drivermon/internal/monitor"
	"drivermon/internal/region"
)

// buildState assembles the published message for one pose cycle.
func buildState(events []monitor.Event, report monitor.Report, rs region.Status) messaging.DMonitoringState {
	out := make([]messaging.Event, 0, len(events))
	for _, ev := range events {
		types := make([]string, 0, len(ev.Types))
		for _, t := range ev.Types {
			types = append(types, string(t))
		}
		out = append(out, messaging.Event{Name: ev.Name, Types: types})
	}
	return messaging.DMonitoringState{
		Events:              out,
		FaceDetected:        report.FaceDetected,
		IsDistracted:        report.IsDistracted,
		AwarenessStatus:     report.Awareness,
		IsRHD:               rs.IsRHD,
		RHDChecked:          rs.Checked,
		PosePitchOffset:     report.PosePitchOffset,
		PosePitchValidCount: report.PosePitchValidCount,
		PoseYawOffset:       report.PoseYawOffset,
		PoseYawValidCount:   report.PoseYawValidCount,
		StepChange:          report.StepChange,
		AwarenessActive:     report.AwarenessActive,
		AwarenessPassive:    report.AwarenessPassive,
		IsLowStd:            report.IsLowStd,
		HiStdCount:          report.HiStdCount,
		TerminalAlertCount:  report.TerminalAlertCount,
		TerminalTimeSeconds: report.TerminalTime.Seconds(),
	}
}

func eventNames(events []messaging.Event) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	return names
}
