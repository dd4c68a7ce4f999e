package events

import "sync"

// Observer is called with each delivered event.
type Observer func(Event)

// Subscription is an active observer registration.
type Subscription struct {
	id   uint64
	name string
	bus  *Bus
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.unsubscribe(s.id, s.name)
	}
}

// Bus delivers typed events to registered observers. Delivery is synchronous
// on the publisher's goroutine and happens outside the bus lock, so
// observers may subscribe or unsubscribe from within a callback.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	global map[uint64]Observer
	byName map[string]map[uint64]Observer
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		global: make(map[uint64]Observer),
		byName: make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for every event.
func (b *Bus) Subscribe(observer Observer) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.global[b.nextID] = observer
	return &Subscription{id: b.nextID, bus: b}
}

// SubscribeNamed registers an observer for events with the given name only.
func (b *Bus) SubscribeNamed(name string, observer Observer) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.byName[name] == nil {
		b.byName[name] = make(map[uint64]Observer)
	}
	b.byName[name][b.nextID] = observer
	return &Subscription{id: b.nextID, name: name, bus: b}
}

// Publish delivers event to all matching observers. Publishing on a closed
// bus is a no-op.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	observers := make([]Observer, 0, len(b.global))
	for _, obs := range b.global {
		observers = append(observers, obs)
	}
	for _, obs := range b.byName[event.Name()] {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs(event)
	}
}

// Close drops all subscriptions and makes further publishes no-ops. Safe to
// call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.global = make(map[uint64]Observer)
	b.byName = make(map[string]map[uint64]Observer)
	b.mu.Unlock()
}

func (b *Bus) unsubscribe(id uint64, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name == "" {
		delete(b.global, id)
		return
	}
	if observers, ok := b.byName[name]; ok {
		delete(observers, id)
		if len(observers) == 0 {
			delete(b.byName, name)
		}
	}
}
