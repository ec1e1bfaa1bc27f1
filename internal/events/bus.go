package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives published events
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus dispatches events to subscribers in subscription order
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   int
	log      zerolog.Logger
}

// NewBus creates an empty bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscription),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers h for eventType and returns a function that removes it
func (b *Bus) Subscribe(eventType EventType, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit runs every handler subscribed to e.Type before returning.
// A panicking handler is logged and does not stop the others.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[e.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(s, e)
	}
}

func (b *Bus) dispatch(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(e.Type)).
				Msg("Event handler panicked")
		}
	}()
	s.handler(e)
}

// SubscriberCount returns the number of handlers for eventType
func (b *Bus) SubscriberCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
