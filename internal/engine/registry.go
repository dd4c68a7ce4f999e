package engine

import "sync"

// Registry maps stable integer tokens to host-owned objects so that engine
// callbacks never carry raw pointers across the boundary. Tokens are issued
// once and never reused within a process; token 0 is never issued, so a zero
// token always fails to resolve.
type Registry struct {
	mu     sync.RWMutex
	next   uint64
	owners map[uint64]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint64]any)}
}

// Register stores owner and returns its token.
func (r *Registry) Register(owner any) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	token := r.next
	r.owners[token] = owner
	return token
}

// Resolve returns the owner registered under token, or ok=false when the
// token is unknown or already deregistered.
func (r *Registry) Resolve(token uint64) (owner any, ok bool) {
	r.mu.RLock()
	owner, ok = r.owners[token]
	r.mu.RUnlock()
	return owner, ok
}

// Deregister removes the token. Removing an unknown token is a no-op.
func (r *Registry) Deregister(token uint64) {
	r.mu.Lock()
	delete(r.owners, token)
	r.mu.Unlock()
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
