package pubsub

import (
	"context"
	"time"
)

// Next waits for the next event on ch. It reports false when ctx is done or ch
// is closed.
func Next[T any](ctx context.Context, ch <-chan Event[T]) (Event[T], bool) {
	select {
	case <-ctx.Done():
		return Event[T]{}, false
	case event, ok := <-ch:
		return event, ok
	}
}

// Drain returns the events already buffered on ch without blocking.
func Drain[T any](ch <-chan Event[T]) []Event[T] {
	var out []Event[T]
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
}

// Recorder is a synchronous Publisher keeping every event in memory, for tests
// and one-shot commands that inspect what a graph published.
type Recorder[T any] struct {
	Events []Event[T]
}

// Publish appends the event.
func (r *Recorder[T]) Publish(eventType EventType, payload T) {
	r.Events = append(r.Events, Event[T]{
		Type:      eventType,
		Payload:   payload,
		Seq:       uint64(len(r.Events) + 1),
		Timestamp: time.Now(),
	})
}

// Payloads returns the recorded payloads in order.
func (r *Recorder[T]) Payloads() []T {
	out := make([]T, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Payload
	}
	return out
}

var _ Publisher[int] = (*Recorder[int])(nil)
