package domain

import (
	"fmt"
	"strings"
)

// DeviceKind is the behaviour class of a wireless controller.
// The zero value KindNone marks "no kind" and is used for unowned cells.
type DeviceKind int

const (
	KindNone DeviceKind = iota
	KindRotator
	KindSlider
	KindSpawner
)

// String returns a human-readable name for the kind.
func (k DeviceKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRotator:
		return "rotator"
	case KindSlider:
		return "slider"
	case KindSpawner:
		return "spawner"
	default:
		return "unknown"
	}
}

// ParseDeviceKind converts a name such as "slider" to a DeviceKind.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rotator":
		return KindRotator, nil
	case "slider":
		return KindSlider, nil
	case "spawner":
		return KindSpawner, nil
	default:
		return KindNone, fmt.Errorf("unknown device kind %q", s)
	}
}

// Owner tags a live cell with the controller kind that last made it alive
// and the direction that controller was armed on.
type Owner struct {
	Kind DeviceKind
	Side Direction
}

// NoOwner is the owner of dead cells and of cells born from automaton rules.
var NoOwner = Owner{}

// IsSet reports whether the owner carries a kind.
func (o Owner) IsSet() bool {
	return o.Kind != KindNone
}
