// Package eventbus provides a small named-event publish/subscribe utility.
// Systems use it to broadcast gameplay events without holding references to
// every interested peer.
package eventbus

import (
	"sync"
)

// Handler receives a published event payload.
type Handler func(payload any)

// PanicHandler is called when a handler panics during Publish.
type PanicHandler func(event string, panicValue any)

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscription)

// Once removes the subscription after its first delivery.
func Once() SubscribeOption {
	return func(s *subscription) {
		s.once = true
	}
}

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Bus dispatches named events to subscribed handlers. Delivery is
// synchronous and in subscription order. Safe for concurrent use.
type Bus struct {
	mu           sync.RWMutex
	nextID       uint64
	handlers     map[string][]*subscription
	panicHandler PanicHandler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string][]*subscription)}
}

// SetPanicHandler installs a callback for handler panics. Without one,
// panics propagate to the publisher.
func (b *Bus) SetPanicHandler(ph PanicHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panicHandler = ph
}

// Subscribe registers a handler for the named event and returns a function
// that removes the subscription.
func (b *Bus) Subscribe(event string, handler Handler, opts ...SubscribeOption) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	for _, opt := range opts {
		opt(sub)
	}
	b.handlers[event] = append(b.handlers[event], sub)

	id := sub.id
	return func() { b.unsubscribe(event, id) }
}

func (b *Bus) unsubscribe(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[event]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[event]) == 0 {
		delete(b.handlers, event)
	}
}

// Publish delivers the payload to every handler subscribed to the event,
// in subscription order. Once-handlers are removed before delivery so they
// cannot fire twice even if they publish recursively.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	subs := b.handlers[event]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)

	remaining := subs[:0:0]
	for _, sub := range subs {
		if !sub.once {
			remaining = append(remaining, sub)
		}
	}
	if len(remaining) == 0 {
		delete(b.handlers, event)
	} else {
		b.handlers[event] = remaining
	}
	ph := b.panicHandler
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.deliver(event, sub, payload, ph)
	}
}

func (b *Bus) deliver(event string, sub *subscription, payload any, ph PanicHandler) {
	if ph != nil {
		defer func() {
			if r := recover(); r != nil {
				ph(event, r)
			}
		}()
	}
	sub.handler(payload)
}

// SubscriberCount returns the number of handlers for the named event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
