// Package events carries domain events between modules without direct
// coupling. The conversation pipeline publishes; listeners subscribe by
// event name.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. The name doubles as the
// subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Bus publishes events to registered handlers. Publish dispatches
// asynchronously and never blocks the turn that emitted the event;
// PublishSync waits and surfaces the first handler error.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

// Handler processes events of a single type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// BaseEvent supplies the timestamp every concrete event embeds.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}
