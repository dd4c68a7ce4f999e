package events

import (
	"sync"
	"testing"

	"embershell/internal/engine"
)

func TestBusDeliversToGlobalObservers(t *testing.T) {
	bus := NewBus()
	var received []Event
	bus.Subscribe(func(e Event) { received = append(received, e) })

	bus.Publish(TabCreated{SurfaceID: "s1"})
	bus.Publish(ConfigReloaded{})

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Name() != "surface:tab-created" {
		t.Fatalf("unexpected first event %q", received[0].Name())
	}
}

func TestBusNamedSubscriptionFilters(t *testing.T) {
	bus := NewBus()
	var zoomEvents int
	bus.SubscribeNamed(SplitZoomToggled{}.Name(), func(e Event) { zoomEvents++ })

	bus.Publish(SplitZoomToggled{SurfaceID: "s1"})
	bus.Publish(TabCreated{SurfaceID: "s1"})
	bus.Publish(SplitZoomToggled{SurfaceID: "s2"})

	if zoomEvents != 2 {
		t.Fatalf("expected 2 zoom events, got %d", zoomEvents)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	count := 0
	sub := bus.Subscribe(func(Event) { count++ })

	bus.Publish(QuitRequested{})
	sub.Unsubscribe()
	sub.Unsubscribe() // second call must be harmless
	bus.Publish(QuitRequested{})

	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestBusPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Subscribe(func(Event) { count++ })

	bus.Close()
	bus.Publish(QuitRequested{})
	bus.Close() // idempotent

	if count != 0 {
		t.Fatalf("expected no deliveries after close, got %d", count)
	}
}

func TestBusObserverMayUnsubscribeDuringDelivery(t *testing.T) {
	bus := NewBus()
	var sub *Subscription
	calls := 0
	sub = bus.Subscribe(func(Event) {
		calls++
		sub.Unsubscribe()
	})

	bus.Publish(QuitRequested{})
	bus.Publish(QuitRequested{})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestBusConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	received := 0
	bus.Subscribe(func(Event) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	const goroutines = 8
	const iterations = 100
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				bus.Publish(SplitCreated{SurfaceID: "s", Direction: engine.SplitRight})
				sub := bus.SubscribeNamed("surface:tab-created", func(Event) {})
				sub.Unsubscribe()
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if received != goroutines*iterations {
		t.Fatalf("expected %d deliveries, got %d", goroutines*iterations, received)
	}
}

func TestEventNamesAreStable(t *testing.T) {
	cases := map[string]Event{
		"surface:split-created":       SplitCreated{},
		"surface:tab-created":         TabCreated{},
		"surface:window-created":      WindowCreated{},
		"surface:closed":              SurfaceClosed{},
		"surface:focus-split":         SplitFocusRequested{},
		"surface:zoom-toggled":        SplitZoomToggled{},
		"surface:tab-navigated":       TabNavigated{},
		"surface:fullscreen-toggled":  FullscreenToggled{},
		"surface:title-changed":       TitleChanged{},
		"surface:mouse-shape":         MouseShapeChanged{},
		"surface:mouse-visibility":    MouseVisibilityChanged{},
		"surface:initial-window-size": InitialWindowSize{},
		"config:reloaded":             ConfigReloaded{},
		"app:quit":                    QuitRequested{},
		"app:action-rejected":         ActionRejected{},
	}
	for want, event := range cases {
		if got := event.Name(); got != want {
			t.Errorf("%T.Name() = %q, want %q", event, got, want)
		}
	}
}
