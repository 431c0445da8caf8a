package monitor

// EventType tells downstream consumers how to act on an event.
type EventType string

const (
	EventWarning EventType = "warning"
	EventNoEntry EventType = "noEntry"
)

// Event names.
const (
	EventTooDistracted            = "tooDistracted"
	EventDriverMonitorLowAcc      = "driverMonitorLowAcc"
	EventPreDriverDistracted      = "preDriverDistracted"
	EventPromptDriverDistracted   = "promptDriverDistracted"
	EventDriverDistracted         = "driverDistracted"
	EventPreDriverUnresponsive    = "preDriverUnresponsive"
	EventPromptDriverUnresponsive = "promptDriverUnresponsive"
	EventDriverUnresponsive       = "driverUnresponsive"
)

// Event is one alert raised during a cycle.
type Event struct {
	Name  string      `json:"name"`
	Types []EventType `json:"types"`
}

func newEvent(name string, types ...EventType) Event {
	return Event{Name: name, Types: types}
}

// HasEvent reports whether events contains name.
func HasEvent(events []Event, name string) bool {
	for _, ev := range events {
		if ev.Name == name {
			return true
		}
	}
	return false
}
