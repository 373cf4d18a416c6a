package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Handler func(Event)

// Bus fans events out to subscribers, in-process and at-most-once.
// Delivery is synchronous; events for one call reach each subscriber in
// emission order. A panicking subscriber is logged and isolated, it never
// propagates back to the emitter.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler

	ordMu  sync.Mutex
	orders map[string]*sync.Mutex
}

func NewBus() *Bus {
	return &Bus{orders: make(map[string]*sync.Mutex)}
}

// Subscribe registers a handler for every event kind. Subscribers pick the
// kinds they care about with a type switch.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers e to every subscriber. Emissions for the same call are
// serialized; unrelated calls do not contend.
func (b *Bus) Publish(e Event) {
	ord := b.order(string(e.Call()))
	ord.Lock()
	defer ord.Unlock()

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("module", "app.events").
				Str("event", e.Name()).
				Str("call_id", string(e.Call())).
				Interface("panic", r).
				Msg("subscriber panicked, isolating")
		}
	}()
	h(e)
}

// Forget drops the per-call ordering lock once a call is torn down.
func (b *Bus) Forget(callID string) {
	b.ordMu.Lock()
	defer b.ordMu.Unlock()
	delete(b.orders, callID)
}

func (b *Bus) order(callID string) *sync.Mutex {
	b.ordMu.Lock()
	defer b.ordMu.Unlock()
	if m, ok := b.orders[callID]; ok {
		return m
	}
	m := &sync.Mutex{}
	b.orders[callID] = m
	return m
}
