package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(FrameDecodedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Type switch calls the generic Publish with the concrete type.
	switch e := ev.(type) {
	case SubjectDiscoveredEvent:
		event.Publish(b.dispatcher, e)
	case FrameDecodedEvent:
		event.Publish(b.dispatcher, e)
	case DecodeErrorEvent:
		event.Publish(b.dispatcher, e)
	case ListenerStateEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type determines which events it receives. Returns an unsubscribe
// function.
// Usage: unsub := bus.Subscribe(func(e FrameDecodedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(SubjectDiscoveredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameDecodedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DecodeErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ListenerStateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unknown handler type gets a no-op unsubscribe.
		return func() {}
	}
}

// SubscribeToChannel bridges callback-based subscriptions to channels, which
// the SSE endpoints' select loops need.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if the channel is full (non-blocking).
		}
	})
}
