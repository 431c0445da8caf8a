// Package config loads, normalizes, and validates drivermon process
// configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DRIVERMON_BUS_URL. The Config type centralizes the knobs the daemon and CLI
// need: data and log directories, the message-bus endpoint, the parameter
// reload cadence, the region dataset override, and monitoring policy
// overrides.
//
// Runtime safety toggles are not part of this file; they live in the
// parameter store and are hot-reloaded by package settings.
package config
