package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps terminal session identifiers to their cart. Exactly one cart
// exists per session; sessions are created on demand and dropped explicitly
// when a terminal closes.
type Registry struct {
	Now func() time.Time

	mu    sync.Mutex
	carts map[string]*Cart
}

// NewRegistry constructs an empty session registry.
func NewRegistry(now func() time.Time) *Registry {
	return &Registry{Now: now, carts: make(map[string]*Cart)}
}

// Open creates a new session with a fresh cart and returns the session id.
func (r *Registry) Open() (string, *Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessionID := uuid.NewString()
	c := New(r.Now)
	r.carts[sessionID] = c
	return sessionID, c
}

// Get returns the cart for a session, if it exists.
func (r *Registry) Get(sessionID string) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[sessionID]
	return c, ok
}

// Close drops the session and its cart.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
}

// Len reports the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
