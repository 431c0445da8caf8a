// Package messaging defines the bus envelope, the typed payload of every
// topic drivermon consumes or produces, and the Aggregator that merges the
// inbound streams into one consistent snapshot per loop iteration.
//
// Payloads are validated against embedded JSON schemas before they are
// decoded into Go structs, so the monitoring core never sees a malformed
// shape. Envelopes that fail validation, arrive for an unknown topic, or
// carry a timestamp older than the one already held for their topic are
// dropped and counted.
package messaging
