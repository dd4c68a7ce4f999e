package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"embershell/internal/engine/enginetest"
	"embershell/internal/events"
)

var errNoLayoutService = errors.New("layout service unavailable")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWakeupOnlyEnqueuesUntilOwnerLoopRuns(t *testing.T) {
	rt := enginetest.NewRuntime()
	s := newReadySession(t, rt)
	inst := rt.Instance()

	// Wakeups arriving off the owner loop must not tick directly.
	var callers sync.WaitGroup
	for i := 0; i < 4; i++ {
		callers.Add(1)
		go func() {
			defer callers.Done()
			s.requestTick()
		}()
	}
	callers.Wait()
	if got := inst.Ticks(); got != 0 {
		t.Fatalf("wakeup ticked directly off the owner loop, %d ticks", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(loopDone)
	}()

	waitFor(t, "owner loop to drain the wakeup", func() bool { return inst.Ticks() >= 1 })
	// Coalescing: a burst of wakeups collapses into at most one pending tick.
	if got := inst.Ticks(); got > 2 {
		t.Fatalf("wakeup burst was not coalesced, %d ticks", got)
	}

	cancel()
	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("owner loop did not stop on context cancellation")
	}
}

func TestExitRequestedTickPublishesQuit(t *testing.T) {
	rt := enginetest.NewRuntime()
	quit := make(chan struct{})
	s, err := New(Options{Runtime: rt, RequestQuit: func() { close(quit) }})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(s.Shutdown)

	var seen []events.Event
	var seenMu sync.Mutex
	s.Bus().SubscribeNamed(events.QuitRequested{}.Name(), func(e events.Event) {
		seenMu.Lock()
		seen = append(seen, e)
		seenMu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	rt.Instance().ExitOnTick = true
	s.requestTick()

	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit callback was not invoked")
	}
	seenMu.Lock()
	n := len(seen)
	seenMu.Unlock()
	if n != 1 {
		t.Fatalf("expected 1 quit event, got %d", n)
	}
}

func TestRunStopsOnShutdown(t *testing.T) {
	rt := enginetest.NewRuntime()
	s, _ := New(Options{Runtime: rt})
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	loopDone := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(loopDone)
	}()

	s.Shutdown()
	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("owner loop did not stop on shutdown")
	}
}

type fakeLayoutNotifier struct {
	mu       sync.Mutex
	onChange func()
	cancels  int
	failSub  bool
}

func (n *fakeLayoutNotifier) Subscribe(onChange func()) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSub {
		return nil, errNoLayoutService
	}
	n.onChange = onChange
	return func() {
		n.mu.Lock()
		n.cancels++
		n.mu.Unlock()
	}, nil
}

func (n *fakeLayoutNotifier) fire() {
	n.mu.Lock()
	onChange := n.onChange
	n.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

func (n *fakeLayoutNotifier) cancelCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cancels
}

func TestLayoutNotifierWiredThroughSession(t *testing.T) {
	rt := enginetest.NewRuntime()
	notifier := &fakeLayoutNotifier{}
	s, err := New(Options{Runtime: rt, KeyboardLayout: notifier})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	notifier.fire()
	if got := rt.Instance().KeyboardCalls; got != 1 {
		t.Fatalf("expected 1 forwarded layout change, got %d", got)
	}

	s.Shutdown()
	if notifier.cancelCount() != 1 {
		t.Fatal("layout subscription was not cancelled on shutdown")
	}
}

func TestLayoutSubscriptionFailureIsNonFatal(t *testing.T) {
	rt := enginetest.NewRuntime()
	notifier := &fakeLayoutNotifier{failSub: true}
	s, err := New(Options{Runtime: rt, KeyboardLayout: notifier})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize must tolerate layout subscription failure: %v", err)
	}
	t.Cleanup(s.Shutdown)

	if got := s.Readiness(); got != ReadinessReady {
		t.Fatalf("readiness = %v, want ready", got)
	}
}
