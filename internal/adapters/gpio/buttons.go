// Package gpio reads the direction buttons from a Linux GPIO character
// device using github.com/warthog618/go-gpiocdev.
package gpio

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Default wiring: BCM offsets on gpiochip0 for up, down, left, right.
const DefaultChip = "gpiochip0"

// DefaultPins maps each direction to its line offset.
var DefaultPins = [4]int{
	domain.Up:    26,
	domain.Down:  6,
	domain.Left:  19,
	domain.Right: 13,
}

// lineReader is the subset of *gpiocdev.Lines the button source uses.
type lineReader interface {
	Values(values []int) error
	Close() error
}

// Buttons samples four active-low buttons with pull-ups enabled.
type Buttons struct {
	lines  lineReader
	values []int
}

// Open requests the four lines as inputs with pull-ups.
func Open(chip string, pins [4]int) (*Buttons, error) {
	if chip == "" {
		chip = DefaultChip
	}
	lines, err := gpiocdev.RequestLines(chip, pins[:],
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithConsumer("lifepad"),
	)
	if err != nil {
		return nil, fmt.Errorf("request gpio lines on %s: %w", chip, err)
	}
	return newButtons(lines), nil
}

func newButtons(lines lineReader) *Buttons {
	return &Buttons{lines: lines, values: make([]int, 4)}
}

// Read samples the lines. A low level means pressed.
func (b *Buttons) Read(ctx context.Context) (domain.ButtonState, error) {
	var state domain.ButtonState
	if err := b.lines.Values(b.values); err != nil {
		return state, fmt.Errorf("read gpio lines: %w", err)
	}
	for _, dir := range domain.Directions {
		state.Pressed[dir] = b.values[dir] == 0
	}
	return state, nil
}

// Close releases the lines.
func (b *Buttons) Close() error {
	return b.lines.Close()
}
