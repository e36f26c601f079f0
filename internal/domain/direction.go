package domain

import (
	"fmt"
	"strings"
)

// Direction is one of the four logical control slots.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in a stable order. Loops that must be
// deterministic (effects, status output) iterate this slice.
var Directions = [...]Direction{Up, Down, Left, Right}

// String returns the lower-case name of the direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Horizontal reports whether the direction sits on the left/right axis.
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// ParseDirection converts a name such as "left" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// ButtonState is one sampled snapshot of the four direction buttons.
type ButtonState struct {
	Pressed [4]bool

	// Quit is set when the input boundary asks the process to exit.
	Quit bool
}

// IsPressed reports whether the button for d is held.
func (b ButtonState) IsPressed(d Direction) bool {
	if !d.Valid() {
		return false
	}
	return b.Pressed[d]
}

// With returns a copy of b with the button for d set to pressed.
func (b ButtonState) With(d Direction, pressed bool) ButtonState {
	if d.Valid() {
		b.Pressed[d] = pressed
	}
	return b
}
