package engine

import (
	"sync"
	"testing"
)

func TestRegistryResolveRoundTrip(t *testing.T) {
	reg := NewRegistry()
	owner := &struct{ name string }{name: "surface"}

	token := reg.Register(owner)
	if token == 0 {
		t.Fatal("token 0 must never be issued")
	}

	resolved, ok := reg.Resolve(token)
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if resolved != owner {
		t.Fatal("resolved owner is not the registered object")
	}

	reg.Deregister(token)
	if _, ok := reg.Resolve(token); ok {
		t.Fatal("deregistered token must not resolve")
	}
}

func TestRegistryZeroTokenNeverResolves(t *testing.T) {
	reg := NewRegistry()
	reg.Register("anything")
	if _, ok := reg.Resolve(0); ok {
		t.Fatal("token 0 resolved")
	}
}

func TestRegistryTokensAreNotReused(t *testing.T) {
	reg := NewRegistry()
	first := reg.Register("a")
	reg.Deregister(first)
	second := reg.Register("b")
	if second == first {
		t.Fatalf("token %d was reused after deregistration", first)
	}
}

func TestRegistryDeregisterUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Deregister(42) // must not panic
	if reg.Len() != 0 {
		t.Fatal("registry should be empty")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				token := reg.Register(j)
				if _, ok := reg.Resolve(token); !ok {
					t.Error("freshly registered token failed to resolve")
					return
				}
				if j%2 == 0 {
					reg.Deregister(token)
				}
			}
		}()
	}
	wg.Wait()

	want := goroutines * perGoroutine / 2
	if got := reg.Len(); got != want {
		t.Fatalf("expected %d live registrations, got %d", want, got)
	}
}
