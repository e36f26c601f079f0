// Package script replays a timed sequence of button presses. It drives the
// simulator and end-to-end tests where no physical buttons exist.
package script

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Step changes the button state at an offset from the first Read.
type Step struct {
	At      time.Duration `yaml:"at"`
	Press   []string      `yaml:"press,omitempty"`
	Release []string      `yaml:"release,omitempty"`
	Quit    bool          `yaml:"quit,omitempty"`
}

type action struct {
	at      time.Duration
	press   []domain.Direction
	release []domain.Direction
	quit    bool
}

// Buttons is a ButtonSource backed by a script.
type Buttons struct {
	mu      sync.Mutex
	actions []action
	next    int
	state   domain.ButtonState
	start   time.Time
	now     func() time.Time
}

// New validates steps and orders them by offset.
func New(steps []Step) (*Buttons, error) {
	actions := make([]action, 0, len(steps))
	for i, s := range steps {
		if s.At < 0 {
			return nil, fmt.Errorf("step %d: negative offset %s", i, s.At)
		}
		a := action{at: s.At, quit: s.Quit}
		var err error
		if a.press, err = parseDirections(s.Press); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if a.release, err = parseDirections(s.Release); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	sort.SliceStable(actions, func(i, j int) bool { return actions[i].at < actions[j].at })
	return &Buttons{actions: actions, now: time.Now}, nil
}

func parseDirections(names []string) ([]domain.Direction, error) {
	dirs := make([]domain.Direction, 0, len(names))
	for _, n := range names {
		d, err := domain.ParseDirection(n)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// Parse decodes a YAML list of steps.
func Parse(data []byte) (*Buttons, error) {
	var steps []Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("parsing button script: %w", err)
	}
	return New(steps)
}

// Load reads a script file.
func Load(path string) (*Buttons, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading button script: %w", err)
	}
	return Parse(data)
}

// Read applies every step that is due and returns the resulting state. The
// clock starts on the first call.
func (b *Buttons) Read(ctx context.Context) (domain.ButtonState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.start.IsZero() {
		b.start = now
	}
	elapsed := now.Sub(b.start)
	for b.next < len(b.actions) && b.actions[b.next].at <= elapsed {
		a := b.actions[b.next]
		for _, d := range a.press {
			b.state = b.state.With(d, true)
		}
		for _, d := range a.release {
			b.state = b.state.With(d, false)
		}
		if a.quit {
			b.state.Quit = true
		}
		b.next++
	}
	return b.state, nil
}

// Done reports whether every step has been applied.
func (b *Buttons) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next == len(b.actions)
}
