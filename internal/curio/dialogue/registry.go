package dialogue

import (
	"sort"
	"sync"
	"time"
)

// DefaultRetention is how long an inactive controller is kept in memory.
const DefaultRetention = time.Hour

// Key identifies the conversation of one sender in one room.
func Key(roomID, senderID string) string {
	return roomID + ":" + senderID
}

// Factory builds the controller of a new conversation.
type Factory func(key string) *Controller

// Registry holds one Controller per conversation key.
// It is safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	factory     Factory
	retention   time.Duration
}

// NewRegistry returns an empty registry. retention ≤ 0 selects
// DefaultRetention.
func NewRegistry(factory Factory, retention time.Duration) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		controllers: make(map[string]*Controller),
		factory:     factory,
		retention:   retention,
	}
}

// Get returns the controller of roomID/senderID, creating it if needed.
func (r *Registry) Get(roomID, senderID string) *Controller {
	return r.GetKey(Key(roomID, senderID))
}

// GetKey returns the controller for key, creating it if needed.
func (r *Registry) GetKey(key string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[key]; ok {
		return c
	}
	c := r.factory(key)
	r.controllers[key] = c
	return c
}

// Lookup returns the controller for key without creating one.
func (r *Registry) Lookup(key string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[key]
	return c, ok
}

// Keys returns the keys of all live conversations, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.controllers))
	for k := range r.controllers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of live conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Sweep drops controllers inactive for longer than the retention period.
// Controllers with a generation outstanding are kept. It returns the number
// of controllers removed.
//
// Controller state is read without holding the registry lock, so a
// controller busy with a turn never blocks Get for other conversations.
func (r *Registry) Sweep(now time.Time) int {
	idle := make(map[string]*Controller)
	for k, c := range r.snapshot() {
		if c.Generating() || now.Sub(c.LastActivity()) <= r.retention {
			continue
		}
		idle[k] = c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for k, c := range idle {
		if r.controllers[k] != c {
			continue
		}
		delete(r.controllers, k)
		removed++
	}
	return removed
}

// Wait blocks until every controller's outstanding generation has finished.
func (r *Registry) Wait() {
	for _, c := range r.snapshot() {
		c.Wait()
	}
}

// snapshot copies the controller map.
func (r *Registry) snapshot() map[string]*Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs := make(map[string]*Controller, len(r.controllers))
	for k, c := range r.controllers {
		cs[k] = c
	}
	return cs
}
