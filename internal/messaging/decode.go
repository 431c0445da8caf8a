package messaging

import (
	"encoding/json"
	"fmt"

	"drivermon/internal/fault"
)

// Decode validates env's payload against its topic schema and decodes it
// into the topic's Go type. The returned value is one of DriverState,
// LiveCalibration, CarState, ModelData, GPSLocation or DMonitoringState.
func (v *Validator) Decode(env Envelope) (any, error) {
	if len(env.Data) == 0 {
		return nil, fault.Wrap(fault.ErrValidation, "messaging", "decode", env.Topic+": empty payload", nil)
	}
	if err := v.Validate(env.Topic, env.Data); err != nil {
		return nil, fault.Wrap(fault.ErrValidation, "messaging", "decode", env.Topic, err)
	}

	var (
		out any
		err error
	)
	switch env.Topic {
	case TopicDriverState:
		out, err = decodeAs[DriverState](env.Data)
	case TopicLiveCalibration:
		out, err = decodeAs[LiveCalibration](env.Data)
	case TopicCarState:
		out, err = decodeAs[CarState](env.Data)
	case TopicModel:
		out, err = decodeAs[ModelData](env.Data)
	case TopicGPSLocation:
		out, err = decodeAs[GPSLocation](env.Data)
	case TopicDMonitoringState:
		out, err = decodeAs[DMonitoringState](env.Data)
	default:
		err = fmt.Errorf("unknown topic")
	}
	if err != nil {
		return nil, fault.Wrap(fault.ErrValidation, "messaging", "decode", env.Topic, err)
	}
	return out, nil
}

func decodeAs[T any](raw []byte) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}
