package messaging

// Bus topics.
const (
	TopicDriverState      = "driverState"
	TopicLiveCalibration  = "liveCalibration"
	TopicCarState         = "carState"
	TopicModel            = "model"
	TopicGPSLocation      = "gpsLocation"
	TopicDMonitoringState = "dMonitoringState"
)

// InboundTopics lists the topics the monitor subscribes to.
func InboundTopics() []string {
	return []string{
		TopicDriverState,
		TopicLiveCalibration,
		TopicCarState,
		TopicModel,
		TopicGPSLocation,
	}
}

// TopicSet is the set of topics updated during one aggregation call.
type TopicSet map[string]struct{}

// Has reports whether topic is in the set.
func (s TopicSet) Has(topic string) bool {
	_, ok := s[topic]
	return ok
}

func (s TopicSet) add(topic string) {
	s[topic] = struct{}{}
}
