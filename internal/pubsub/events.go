// Package pubsub provides a generic publish/subscribe event system.
//
// Graphs publish their finished change descriptions, the catalog publishes
// stored-graph lifecycle events and the logger publishes its entries.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened to the payload.
type EventType string

const (
	// Catalog lifecycle
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"

	// ChangedEvent carries the change description of a finished graph edit.
	ChangedEvent EventType = "changed"
	// LoggedEvent carries one log entry.
	LoggedEvent EventType = "logged"
)

// Event is a published payload. Seq numbers the events of one broker from 1,
// so a subscriber can tell when it missed some.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
