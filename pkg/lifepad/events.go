package lifepad

import (
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/lifepad/internal/app"
	"github.com/bft-labs/lifepad/internal/domain"
)

// State is the run state of an Engine.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent reports an engine run-state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// ConnectionEvent reports a connection task state change. Direction and
// Kind are lower-case names such as "left" and "slider"; Previous and
// Current are task state names such as "Connected".
type ConnectionEvent struct {
	TaskID    uuid.UUID
	Address   string
	Direction string
	Kind      string
	Previous  string
	Current   string
	Retries   int
	Err       error
	At        time.Time
}

// GenerationEvent is emitted after every automaton step.
type GenerationEvent struct {
	Generation uint64
	Alive      int
	Unowned    int
	// ByKind counts live owned cells per controller kind name.
	ByKind map[string]int
}

// EventHandler receives engine events. Events are delivered synchronously
// from engine goroutines; implementations must return quickly. Generation
// events arrive at the automaton step rate.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnConnectionChange(event ConnectionEvent)
	OnGeneration(event GenerationEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)     {}
func (BaseEventHandler) OnConnectionChange(ConnectionEvent) {}
func (BaseEventHandler) OnGeneration(GenerationEvent)       {}

// eventEmitterWrapper adapts the handlers to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handlers []EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	ev := StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	}
	for _, h := range e.handlers {
		h.OnStateChange(ev)
	}
}

func (e *eventEmitterWrapper) OnConnectionChange(ce app.ConnectionEvent) {
	if len(e.handlers) == 0 {
		return
	}
	ev := ConnectionEvent{
		TaskID:    ce.TaskID,
		Address:   ce.Address.String(),
		Direction: ce.Direction.String(),
		Kind:      ce.Kind.String(),
		Previous:  ce.Previous.String(),
		Current:   ce.Current.String(),
		Retries:   ce.Retries,
		Err:       ce.Err,
		At:        ce.At,
	}
	for _, h := range e.handlers {
		h.OnConnectionChange(ev)
	}
}

func (e *eventEmitterWrapper) OnGeneration(generation uint64, pop domain.Population) {
	if len(e.handlers) == 0 {
		return
	}
	byKind := make(map[string]int, len(pop.ByKind))
	for k, n := range pop.ByKind {
		byKind[k.String()] = n
	}
	ev := GenerationEvent{
		Generation: generation,
		Alive:      pop.Alive,
		Unowned:    pop.Unowned,
		ByKind:     byKind,
	}
	for _, h := range e.handlers {
		h.OnGeneration(ev)
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
