package events

import "sync"

// Event is a payload-free "re-derive your cart now" signal. Scope names the
// cart owner so a badge listener can ignore other actors' carts.
type Event struct {
	Scope string `json:"scope"`
}

// Publisher is what mutating services depend on; the concrete Broadcaster
// (or a bridge wrapping it) satisfies it.
type Publisher interface {
	Publish(event Event)
}

const subscriberBuffer = 8

// Broadcaster is an in-process publish/subscribe hub for cart-changed
// events. It is advisory: delivery is at-most-once and a slow subscriber
// loses events rather than blocking the mutation path. Listeners recover by
// re-deriving state on the next event they do receive.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a listener and returns its channel plus a cancel
// function. Cancel is idempotent and safe to call after Close.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++

	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. Full
// subscriber buffers are skipped.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
