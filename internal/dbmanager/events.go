package dbmanager

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies what an Event reports on.
type EventKind string

const (
	EventConnectionChanged       EventKind = "ConnectionChanged"
	EventInitializationCompleted EventKind = "InitializationCompleted"
	EventResetCompleted          EventKind = "ResetCompleted"
	EventDemoDataLoaded          EventKind = "DemoDataLoaded"
)

// Event is the outcome of a connection transition or an administrative action.
// Only the most recent event is retained.
type Event struct {
	ID      string    `json:"id"`
	Kind    EventKind `json:"kind"`
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

func newEvent(kind EventKind, success bool, message string) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Success: success,
		Message: message,
		At:      time.Now().UTC(),
	}
}
