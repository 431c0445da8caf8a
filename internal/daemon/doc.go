// Package daemon coordinates the long-running drivermon process.
//
// The Loop is the single goroutine that owns every piece of monitoring
// state: each iteration blocks in the stream aggregator, refreshes settings,
// resolves the region, tracks calibration and driver interaction, advances
// the awareness engine and, on pose cycles, publishes one dMonitoringState.
// The Daemon wraps the loop and the bus transport into a lifecycle with
// flock-based locking to prevent multiple instances, and exposes an
// immutable status view for the control socket.
//
// Keep orchestration here: the monitoring semantics live in the monitor,
// settings, region, calibration and engagement packages.
package daemon
