package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/pkg/log"
)

// ShutdownTimeout bounds how long Stop waits for the run to wind down.
const ShutdownTimeout = 10 * time.Second

// historySize is the number of transitions kept by a Lifecycle.
const historySize = 32

// State is the run state of the engine.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{"Stopped", "Starting", "Running", "Stopping", "Crashed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// successors lists the legal next states. A crashed engine may be started
// again or stopped to release its plugins.
var successors = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting, StateStopping},
}

// Transition is one recorded state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// EventEmitter is called after every state change.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle is the engine's run-state machine. It also owns the cancel
// function of the current run and tracks the goroutines serving it.
type Lifecycle struct {
	logger  log.Logger
	emitter EventEmitter

	mu      sync.RWMutex
	state   State
	since   time.Time
	history []Transition
	cancel  context.CancelFunc

	workers sync.WaitGroup
}

// NewLifecycle creates a lifecycle in StateStopped.
func NewLifecycle(logger log.Logger, emitter EventEmitter) *Lifecycle {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Lifecycle{
		logger:  logger,
		emitter: emitter,
		state:   StateStopped,
		since:   time.Now(),
	}
}

func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Since returns when the current state was entered.
func (l *Lifecycle) Since() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.since
}

// History returns the most recent transitions, oldest first.
func (l *Lifecycle) History() []Transition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.history)
}

// TransitionTo moves to next. An illegal move leaves the state unchanged and
// returns ErrNotRunning when the engine is not running, ErrAlreadyRunning
// otherwise.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if !slices.Contains(successors[prev], next) {
		l.mu.Unlock()
		if prev == StateStopped || (prev == StateCrashed && next != StateStarting) {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}

	now := time.Now()
	l.state = next
	l.since = now
	if len(l.history) == historySize {
		l.history = slices.Delete(l.history, 0, 1)
	}
	l.history = append(l.history, Transition{From: prev, To: next, Reason: reason, At: now})
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}
	l.logger.Info("state transition",
		log.Stringer("from", prev),
		log.Stringer("to", next),
		log.String("reason", reason),
	)
	return nil
}

// CanStart reports whether a new run may begin.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop has anything to do.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateStarting || s == StateRunning || s == StateCrashed
}

// SetCancel stores the cancel function of the current run.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel cancels the current run, if any.
func (l *Lifecycle) Cancel() {
	l.mu.RLock()
	cancel := l.cancel
	l.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Go runs fn in a goroutine that Wait accounts for.
func (l *Lifecycle) Go(fn func()) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		fn()
	}()
}

// Wait blocks until every goroutine started with Go has returned, or
// returns ErrShutdownTimeout after timeout.
func (l *Lifecycle) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("shutdown timeout, forcing exit", log.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}
