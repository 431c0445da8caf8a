// Package main hosts the drivermon CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground, queries it over
// the control socket, edits the parameter store the daemon hot-reloads, and
// scaffolds configuration. Monitoring logic stays in the internal packages;
// commands here only resolve configuration and render results.
package main
