// Package ipc exposes the daemon over a JSON-RPC Unix socket and ships the
// matching client used by the CLI.
//
// It owns the socket lifecycle and the request/response DTOs. Responses
// carry plain values copied out of the daemon status so the wire format does
// not change when internal types do.
package ipc
