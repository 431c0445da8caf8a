// Package preflight runs the environment checks behind `drivermon check`.
//
// Each check returns a Result rather than an error so the CLI can render a
// full report even when several prerequisites are missing.
package preflight
