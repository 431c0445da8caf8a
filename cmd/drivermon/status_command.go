package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"drivermon/internal/ipc"
	"drivermon/internal/messaging"
	"drivermon/internal/monitor"
	"drivermon/internal/settings"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and monitoring status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(statusLines(status, colorize), "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func statusLines(status *ipc.StatusResponse, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
	}
	if status.BusConnected {
		lines = append(lines, renderStatusLine("Bus", statusOK, "connected to "+status.BusURL, colorize))
	} else {
		lines = append(lines, renderStatusLine("Bus", statusWarn, "not connected to "+status.BusURL, colorize))
	}
	if status.LoopError != "" {
		lines = append(lines, renderStatusLine("Loop", statusError, status.LoopError, colorize))
	}
	lines = append(lines, renderStatusLine("Cycles", statusInfo,
		fmt.Sprintf("%d (%d published, %d failed)", status.Cycles, status.Published, status.PublishFailures), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Settings", colorize)...)
	lines = append(lines, settingsLines(status.Settings, colorize)...)
	lines = append(lines, regionLine(status.Region, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Monitoring", colorize)...)
	lines = append(lines, monitoringLines(status.State, colorize)...)

	if table := streamTable(status); table != "" {
		lines = append(lines, "", table)
	}
	return lines
}

func settingsLines(s ipc.Settings, colorize bool) []string {
	lines := make([]string, 0, 3)
	safetyKind := statusOK
	if !s.SafetyChecksEnabled {
		safetyKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Safety checks", safetyKind, enabledLabel(s.SafetyChecksEnabled), colorize))
	monitorKind := statusOK
	if !s.MonitoringEnabled {
		monitorKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Driver monitoring", monitorKind, enabledLabel(s.MonitoringEnabled), colorize))
	lines = append(lines, renderStatusLine("Awareness budget", statusInfo, budgetLabel(s.BudgetSeconds), colorize))
	return lines
}

func regionLine(r ipc.Region, colorize bool) string {
	if !r.Checked {
		return renderStatusLine("Region", statusInfo, "unresolved (waiting for a GPS fix)", colorize)
	}
	return renderStatusLine("Region", statusOK, trafficSide(r.IsRHD), colorize)
}

func monitoringLines(state *messaging.DMonitoringState, colorize bool) []string {
	if state == nil {
		return []string{renderStatusLine("State", statusInfo, "no state published yet", colorize)}
	}
	lines := []string{
		renderStatusLine("Awareness", awarenessKind(state.AwarenessStatus),
			fmt.Sprintf("%.2f (active %.2f, passive %.2f)", state.AwarenessStatus, state.AwarenessActive, state.AwarenessPassive), colorize),
		renderStatusLine("Face detected", statusInfo, yesNo(state.FaceDetected), colorize),
		renderStatusLine("Distracted", statusInfo, yesNo(state.IsDistracted), colorize),
		renderStatusLine("Terminal alerts", terminalKind(state), fmt.Sprintf("%d (%.1fs)", state.TerminalAlertCount, state.TerminalTimeSeconds), colorize),
	}
	if len(state.Events) == 0 {
		lines = append(lines, renderStatusLine("Events", statusOK, "none", colorize))
		return lines
	}
	labels := make([]string, 0, len(state.Events))
	kind := statusWarn
	for _, ev := range state.Events {
		labels = append(labels, eventLabel(ev.Name))
		if ev.Name == monitor.EventTooDistracted {
			kind = statusError
		}
	}
	lines = append(lines, renderStatusLine("Events", kind, strings.Join(labels, ", "), colorize))
	return lines
}

func streamTable(status *ipc.StatusResponse) string {
	if len(status.Received) == 0 && len(status.Dropped) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(messaging.InboundTopics()))
	for _, topic := range messaging.InboundTopics() {
		rows = append(rows, []string{
			topic,
			strconv.FormatUint(status.Received[topic], 10),
			strconv.FormatUint(status.Dropped[topic], 10),
		})
	}
	return renderTable([]string{"Topic", "Received", "Dropped"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}

func awarenessKind(awareness float64) statusKind {
	switch {
	case awareness <= 0:
		return statusError
	case awareness < 1:
		return statusWarn
	default:
		return statusOK
	}
}

func terminalKind(state *messaging.DMonitoringState) statusKind {
	if state.TerminalAlertCount > 0 {
		return statusWarn
	}
	return statusInfo
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func budgetLabel(seconds float64) string {
	if seconds >= settings.Unlimited.Seconds() {
		return "unlimited"
	}
	return fmt.Sprintf("%.0f min", seconds/60)
}

func trafficSide(isRHD bool) string {
	if isRHD {
		return "right-hand drive"
	}
	return "left-hand drive"
}
