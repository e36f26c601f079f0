package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/lifepad/internal/domain"
)

// TaskState is the state of a connection task.
type TaskState int

const (
	// TaskDiscovering is the state of a task whose address was just picked
	// from a scan and that has not started connecting yet.
	TaskDiscovering TaskState = iota
	TaskConnecting
	TaskConnected
	TaskRetrying
	TaskCancelled
	TaskFailed
)

// String returns a human-readable representation of the task state.
func (s TaskState) String() string {
	switch s {
	case TaskDiscovering:
		return "Discovering"
	case TaskConnecting:
		return "Connecting"
	case TaskConnected:
		return "Connected"
	case TaskRetrying:
		return "Retrying"
	case TaskCancelled:
		return "Cancelled"
	case TaskFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state ends the task.
func (s TaskState) Terminal() bool {
	return s == TaskCancelled || s == TaskFailed
}

// connectionTask is the background unit managing one peripheral.
// Mutable fields are guarded by the owning DeviceManager's mutex.
type connectionTask struct {
	id        uuid.UUID
	address   domain.Address
	direction domain.Direction
	kind      domain.DeviceKind
	started   time.Time

	cancel context.CancelFunc
	done   chan struct{}

	state   TaskState
	retries int
}

func newConnectionTask(addr domain.Address, dir domain.Direction, kind domain.DeviceKind, cancel context.CancelFunc) *connectionTask {
	return &connectionTask{
		id:        uuid.New(),
		address:   addr,
		direction: dir,
		kind:      kind,
		started:   time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     TaskDiscovering,
	}
}

// TaskInfo is a point-in-time view of a connection task.
type TaskInfo struct {
	ID        uuid.UUID
	Address   domain.Address
	Direction domain.Direction
	Kind      domain.DeviceKind
	State     TaskState
	Retries   int
	Started   time.Time
}

func (t *connectionTask) info() TaskInfo {
	return TaskInfo{
		ID:        t.id,
		Address:   t.address,
		Direction: t.direction,
		Kind:      t.kind,
		State:     t.state,
		Retries:   t.retries,
		Started:   t.started,
	}
}

// ConnectionEvent describes a connection task state change.
type ConnectionEvent struct {
	TaskID    uuid.UUID
	Address   domain.Address
	Direction domain.Direction
	Kind      domain.DeviceKind
	Previous  TaskState
	Current   TaskState
	Retries   int
	Err       error
	At        time.Time
}

// ConnectionEmitter is called on every connection task state change.
// It is invoked from background goroutines and must not block.
type ConnectionEmitter interface {
	OnConnectionChange(ev ConnectionEvent)
}
