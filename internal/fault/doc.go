// Package fault defines the sentinel error markers drivermon uses to classify
// failures.
//
// Components wrap low-level errors with one of the exported markers via Wrap so
// callers can decide with errors.Is whether a failure is a malformed input, a
// configuration problem, a store failure, or something transient. None of the
// markers are fatal on their own; the monitoring loop treats every per-cycle
// failure as recoverable.
package fault
