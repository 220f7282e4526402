package events

import "time"

// Dashboard event types. They become NATS subjects "dashboard.<type>".
const (
	DashboardSessionCreated = "SESSION_CREATED"
	DashboardEventApplied   = "EVENT_APPLIED"
	DashboardFetchFailed    = "FETCH_FAILED"
	DashboardStaleDiscarded = "STALE_DISCARDED"
)

// Event defines the contract for all dashboard events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "EVENT_APPLIED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the only Event implementation; payloads are free-form maps.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New stamps a BaseEvent with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
