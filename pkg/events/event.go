package events

import "time"

// Event is anything the curation backend announces on the bus: record
// edits, moderation decisions, collection counters and account blocks.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Envelope is the concrete event carried over NATS and the local dispatcher.
type Envelope struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an envelope with the current time.
func New(eventType string, data map[string]interface{}) Envelope {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Envelope{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e Envelope) EventType() string               { return e.Type }
func (e Envelope) Payload() map[string]interface{} { return e.Data }
func (e Envelope) Timestamp() time.Time            { return e.OccurredAt }

// Field reads a string entry of the payload. Missing or non-string values
// come back empty.
func Field(evt Event, key string) string {
	v, _ := evt.Payload()[key].(string)
	return v
}
