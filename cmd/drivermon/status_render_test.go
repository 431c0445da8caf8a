package main

import (
	"bytes"
	"strings"
	"testing"

	"drivermon/internal/ipc"
	"drivermon/internal/messaging"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	line := renderStatusLine("Bus", statusOK, "connected", false)
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("unexpected ANSI codes: %q", line)
	}
	if !strings.Contains(line, "Bus:") || !strings.Contains(line, "[OK] connected") {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	line := renderStatusLine("Loop", statusError, "stopped", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red line, got %q", line)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers must not be colorized")
	}
}

func TestEventLabel(t *testing.T) {
	tests := map[string]string{
		"tooDistracted":          "Too Distracted",
		"promptDriverDistracted": "Prompt Driver Distracted",
		"driverMonitorLowAcc":    "Driver Monitor Low Acc",
		"":                       "",
	}
	for in, want := range tests {
		if got := eventLabel(in); got != want {
			t.Fatalf("eventLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMonitoringLinesFlagLockout(t *testing.T) {
	state := &messaging.DMonitoringState{
		AwarenessStatus:    0,
		TerminalAlertCount: 1,
		Events: []messaging.Event{
			{Name: "tooDistracted", Types: []string{"noEntry"}},
			{Name: "driverDistracted", Types: []string{"warning"}},
		},
	}
	lines := strings.Join(monitoringLines(state, false), "\n")
	if !strings.Contains(lines, "[ERROR] Too Distracted, Driver Distracted") {
		t.Fatalf("unexpected events line:\n%s", lines)
	}
	if !strings.Contains(lines, "Awareness:") || !strings.Contains(lines, "[ERROR] 0.00") {
		t.Fatalf("expected depleted awareness to render as error:\n%s", lines)
	}
}

func TestBudgetLabel(t *testing.T) {
	if got := budgetLabel(86400); got != "unlimited" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := budgetLabel(180); got != "3 min" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestStatusLinesWithoutState(t *testing.T) {
	lines := strings.Join(statusLines(&ipc.StatusResponse{BusURL: "ws://bridge"}, false), "\n")
	for _, want := range []string{"stopped", "not connected to ws://bridge", "no state published yet", "unresolved"} {
		if !strings.Contains(lines, want) {
			t.Fatalf("expected %q in:\n%s", want, lines)
		}
	}
}
