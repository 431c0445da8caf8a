// Package bus connects drivermon to the vehicle message bus over a
// websocket bridge.
//
// The Client dials the bridge, announces its subscription with a per-session
// client identifier and then streams JSON envelopes. It reconnects after
// failures until its context is cancelled. Inbound envelopes are queued on a
// bounded channel; when the consumer falls behind the oldest queued envelope
// is discarded so the monitor always works on fresh data.
package bus
