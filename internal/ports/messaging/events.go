package messaging

import "time"

// EventType tells consumers how to decode a message body.
type EventType string

const (
	EventBreakStarted EventType = "BREAK_STARTED"
	EventBreakEnded   EventType = "BREAK_ENDED"
)

// Envelope holds the fields every event body carries.
type Envelope struct {
	EventID string    `json:"eventId"`
	Type    EventType `json:"type"`
	UserID  string    `json:"userId"`
}

// BreakStartedEvent is the JSON payload sent when a user goes on break.
type BreakStartedEvent struct {
	Envelope
	UserName  string    `json:"userName"`
	StartedAt time.Time `json:"startedAt"`
}

// BreakEndedEvent is the JSON payload sent when a user comes back from a break.
type BreakEndedEvent struct {
	Envelope
	UserName        string    `json:"userName"`
	Email           string    `json:"email"`
	Date            string    `json:"date"`
	Start           string    `json:"start"`
	End             string    `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	Recorded        bool      `json:"recorded"`
	EndedAt         time.Time `json:"endedAt"`
}
