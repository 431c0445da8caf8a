package messaging

import (
	"context"
	"log/slog"
	"sync"

	"drivermon/internal/fault"
	"drivermon/internal/logging"
)

// Source delivers inbound envelopes. The channel is closed when the source
// shuts down.
type Source interface {
	Envelopes() <-chan Envelope
}

// Publisher sends outbound envelopes.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Drop reasons counted by the Aggregator.
const (
	DropInvalid    = "invalid"
	DropOutOfOrder = "out_of_order"
	DropUnknown    = "unknown_topic"
)

// Aggregator merges the inbound streams into the latest value per topic.
// Update is called from a single goroutine; Stats may be read from any.
type Aggregator struct {
	source    Source
	validator *Validator
	logger    *slog.Logger
	topics    map[string]struct{}

	driverState     DriverState
	liveCalibration LiveCalibration
	carState        CarState
	model           ModelData
	gpsLocation     GPSLocation

	logMonoTime map[string]int64
	valid       map[string]bool

	mu       sync.Mutex
	received map[string]uint64
	dropped  map[string]uint64
}

// NewAggregator subscribes to topics on source. Before any message arrives
// each topic holds a conservative default: no calibration, vehicle at
// standstill with cruise disabled.
func NewAggregator(source Source, validator *Validator, topics []string, logger *slog.Logger) *Aggregator {
	a := &Aggregator{
		source:          source,
		validator:       validator,
		logger:          logging.NewComponentLogger(logger, "aggregator"),
		topics:          make(map[string]struct{}, len(topics)),
		liveCalibration: LiveCalibration{CalStatus: CalStatusInvalid},
		carState:        CarState{Standstill: true},
		logMonoTime:     make(map[string]int64),
		valid:           make(map[string]bool),
		received:        make(map[string]uint64),
		dropped:         make(map[string]uint64),
	}
	for _, topic := range topics {
		a.topics[topic] = struct{}{}
	}
	return a
}

// Update blocks until at least one subscribed topic has a new accepted
// message, then drains whatever else is already queued without blocking.
// It returns the set of topics updated by this call.
func (a *Aggregator) Update(ctx context.Context) (TopicSet, error) {
	updated := TopicSet{}
	envelopes := a.source.Envelopes()

	for len(updated) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-envelopes:
			if !ok {
				return nil, fault.Wrap(fault.ErrTransport, "aggregator", "update", "source closed", nil)
			}
			a.accept(env, updated)
		}
	}

	for {
		select {
		case env, ok := <-envelopes:
			if !ok {
				return updated, nil
			}
			a.accept(env, updated)
		default:
			return updated, nil
		}
	}
}

func (a *Aggregator) accept(env Envelope, updated TopicSet) {
	if _, ok := a.topics[env.Topic]; !ok {
		a.drop(env, DropUnknown, nil)
		return
	}
	if last, ok := a.logMonoTime[env.Topic]; ok && env.LogMonoTime <= last {
		a.drop(env, DropOutOfOrder, nil)
		return
	}
	payload, err := a.validator.Decode(env)
	if err != nil {
		a.drop(env, DropInvalid, err)
		return
	}

	switch v := payload.(type) {
	case DriverState:
		a.driverState = v
	case LiveCalibration:
		a.liveCalibration = v
	case CarState:
		a.carState = v
	case ModelData:
		a.model = v
	case GPSLocation:
		a.gpsLocation = v
	default:
		a.drop(env, DropUnknown, nil)
		return
	}
	a.logMonoTime[env.Topic] = env.LogMonoTime
	a.valid[env.Topic] = env.Valid
	updated.add(env.Topic)

	a.mu.Lock()
	a.received[env.Topic]++
	a.mu.Unlock()
}

func (a *Aggregator) drop(env Envelope, reason string, err error) {
	a.mu.Lock()
	a.dropped[reason]++
	a.mu.Unlock()

	attrs := []logging.Attr{
		logging.String(logging.FieldTopic, env.Topic),
		logging.String("reason", reason),
		logging.Int64("log_mono_time", env.LogMonoTime),
	}
	if err != nil {
		logging.WarnWithContext(a.logger, "inbound message dropped", "message_dropped",
			append(attrs,
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the producer's payload against the topic schema"),
				logging.String(logging.FieldImpact, "the previous value for this topic stays in effect"),
			)...)
		return
	}
	a.logger.Debug("inbound message dropped", logging.Args(attrs...)...)
}

// DriverState returns the latest face pose output.
func (a *Aggregator) DriverState() DriverState { return a.driverState }

// LiveCalibration returns the latest calibration report.
func (a *Aggregator) LiveCalibration() LiveCalibration { return a.liveCalibration }

// CarState returns the latest vehicle state.
func (a *Aggregator) CarState() CarState { return a.carState }

// Model returns the latest driving model metadata.
func (a *Aggregator) Model() ModelData { return a.model }

// GPSLocation returns the latest geographic fix.
func (a *Aggregator) GPSLocation() GPSLocation { return a.gpsLocation }

// LogMonoTime returns the timestamp of the latest accepted message on topic.
func (a *Aggregator) LogMonoTime(topic string) (int64, bool) {
	ts, ok := a.logMonoTime[topic]
	return ts, ok
}

// Valid reports the producer's validity flag on the latest message for topic.
func (a *Aggregator) Valid(topic string) bool {
	return a.valid[topic]
}

// Stats is a copy of the aggregator's counters.
type Stats struct {
	Received map[string]uint64 `json:"received"`
	Dropped  map[string]uint64 `json:"dropped"`
}

// Stats returns a snapshot of the received and dropped counters.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		Received: make(map[string]uint64, len(a.received)),
		Dropped:  make(map[string]uint64, len(a.dropped)),
	}
	for k, v := range a.received {
		s.Received[k] = v
	}
	for k, v := range a.dropped {
		s.Dropped[k] = v
	}
	return s
}
