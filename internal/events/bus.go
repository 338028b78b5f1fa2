package events

import (
	"sync"
	"time"

	"keel/pkg/logging"
)

const defaultSubscriberBuffer = 100

// Sink receives milestones. Dispatch must not block the caller for long;
// delivery is fire-and-forget.
type Sink interface {
	Dispatch(kind Kind, payload any)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(kind Kind, payload any)

// Dispatch calls f.
func (f SinkFunc) Dispatch(kind Kind, payload any) {
	f(kind, payload)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Kind, any) {})

// Bus fans events out to buffered subscriber channels. A subscriber that
// cannot keep up misses events rather than stalling the dispatcher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
	now         func() time.Time
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Subscribe returns a channel receiving every event dispatched from now on.
// A non-positive buffer selects the default size.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe closes and forgets ch.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s == ch {
			close(s)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Dispatch publishes an event to every subscriber.
func (b *Bus) Dispatch(kind Kind, payload any) {
	event := Event{Kind: kind, Timestamp: b.now(), Payload: payload}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subscribers {
		select {
		case s <- event:
		default:
			logging.Debug("Events", "Subscriber blocked, dropping %s event", kind)
		}
	}
}

// Close closes every subscriber channel. Later dispatches are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subscribers {
		close(s)
	}
	b.subscribers = nil
}
