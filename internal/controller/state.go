package controller

import (
	"sync"

	"github.com/bft-labs/lifepad/internal/domain"
)

// State is the behavioural accumulator for one armed direction.
type State struct {
	mu sync.Mutex

	direction domain.Direction
	address   domain.Address
	kind      domain.DeviceKind

	counter int
	slide   int
	trigger int
}

// Snapshot is a copy of a State taken under its lock.
type Snapshot struct {
	Direction domain.Direction
	Address   domain.Address
	Kind      domain.DeviceKind
	Counter   int
	Slide     int
	Trigger   int
}

// NewState creates an unbound state for dir.
func NewState(dir domain.Direction) *State {
	return &State{direction: dir}
}

// Direction returns the direction this state belongs to.
func (s *State) Direction() domain.Direction {
	return s.direction
}

// Bind attaches a connected peripheral to the state.
func (s *State) Bind(addr domain.Address, kind domain.DeviceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = addr
	s.kind = kind
}

// Unbind detaches the peripheral. Accumulated readings are kept.
func (s *State) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = ""
	s.kind = domain.KindNone
}

// SetReading stores a decoded telemetry value in the field that matches kind.
// Readings for KindNone are ignored.
func (s *State) SetReading(kind domain.DeviceKind, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.KindRotator:
		s.counter = value
	case domain.KindSlider:
		s.slide = value
	case domain.KindSpawner:
		s.trigger = value
	}
}

// ConsumeTrigger reports whether the spawner trigger fired (1 or 255) and, if
// so, resets it to zero.
func (s *State) ConsumeTrigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trigger == 1 || s.trigger == 255 {
		s.trigger = 0
		return true
	}
	return false
}

// Snapshot returns a consistent copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Direction: s.direction,
		Address:   s.address,
		Kind:      s.kind,
		Counter:   s.counter,
		Slide:     s.slide,
		Trigger:   s.trigger,
	}
}
