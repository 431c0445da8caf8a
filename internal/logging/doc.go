// Package logging assembles structured slog loggers and formatting helpers used
// across drivermon.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and stamps every record of a daemon run with its session ID. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
