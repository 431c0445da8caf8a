// Package params persists drivermon's runtime parameters in SQLite.
//
// Parameters are opaque string values keyed by name. Every write bumps a
// store-wide generation counter which readers use as a cheap modification
// fingerprint: callers compare LastModified against the value they saw last
// and only re-read keys when it moved. PutNonBlocking performs writes on a
// detached goroutine for callers on a realtime path; Close waits for those
// writes before releasing the database.
package params
