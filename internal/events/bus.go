package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Subscribers are invoked asynchronously.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PlaybackStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	// The generic Publish needs the concrete type
	switch e := ev.(type) {
	case PlaybackStartedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackCommandEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackFinishedEvent:
		event.Publish(b.dispatcher, e)
	case PlaybackClosedEvent:
		event.Publish(b.dispatcher, e)
	case PlayerStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e PlaybackFinishedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PlaybackStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackCommandEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlaybackClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlayerStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
