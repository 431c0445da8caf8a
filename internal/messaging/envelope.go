package messaging

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame carried by the bus. LogMonoTime is a monotonic
// timestamp in nanoseconds assigned by the producer.
type Envelope struct {
	Topic       string          `json:"topic"`
	LogMonoTime int64           `json:"logMonoTime"`
	Valid       bool            `json:"valid"`
	Data        json.RawMessage `json:"data"`
}

// NewEnvelope marshals payload into a valid envelope for topic.
func NewEnvelope(topic string, logMonoTime int64, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return Envelope{Topic: topic, LogMonoTime: logMonoTime, Valid: true, Data: data}, nil
}
