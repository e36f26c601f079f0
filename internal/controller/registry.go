package controller

import (
	"sync"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Registry maps each armed direction to its State. It is shared between the
// tick loop, which creates and removes entries, and the device manager, which
// binds peripherals and delivers telemetry.
type Registry struct {
	mu     sync.RWMutex
	states map[domain.Direction]*State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[domain.Direction]*State)}
}

// Create returns the state for dir, creating it if needed.
func (r *Registry) Create(dir domain.Direction) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[dir]; ok {
		return s
	}
	s := NewState(dir)
	r.states[dir] = s
	return s
}

// Remove drops the state for dir. Removing an absent direction is a no-op.
func (r *Registry) Remove(dir domain.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, dir)
}

// Get returns the state for dir.
func (r *Registry) Get(dir domain.Direction) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[dir]
	return s, ok
}

// Bind attaches a peripheral to the state for dir. It returns false when the
// direction is not armed.
func (r *Registry) Bind(dir domain.Direction, addr domain.Address, kind domain.DeviceKind) bool {
	s, ok := r.Get(dir)
	if !ok {
		return false
	}
	s.Bind(addr, kind)
	return true
}

// Update stores a telemetry reading for dir. It returns false when the
// direction is not armed, in which case the reading is discarded.
func (r *Registry) Update(dir domain.Direction, kind domain.DeviceKind, value int) bool {
	s, ok := r.Get(dir)
	if !ok {
		return false
	}
	s.SetReading(kind, value)
	return true
}

// Active returns the armed states ordered up, down, left, right.
func (r *Registry) Active() []*State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*State, 0, len(r.states))
	for _, dir := range domain.Directions {
		if s, ok := r.states[dir]; ok {
			out = append(out, s)
		}
	}
	return out
}
