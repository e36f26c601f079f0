package lifepad

import (
	"math/rand"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/internal/ports"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Re-exported types so callers can supply adapters without importing
// internal packages.
type (
	// Radio discovers and connects peripherals.
	Radio = ports.Radio
	// Session is a live peripheral link.
	Session = ports.Session
	// ButtonSource samples the direction buttons.
	ButtonSource = ports.ButtonSource
	// FrameSink presents the grid.
	FrameSink = ports.FrameSink

	Grid        = domain.Grid
	ButtonState = domain.ButtonState
	Address     = domain.Address

	// PeripheralStore holds the active peripheral table.
	PeripheralStore = peripheral.Store
)

// Option configures optional behavior of an Engine.
type Option func(*options)

type options struct {
	logger       log.Logger
	radio        ports.Radio
	buttons      ports.ButtonSource
	sink         ports.FrameSink
	peripherals  *peripheral.Store
	eventHandler EventHandler
	plugins      []Plugin
	rng          *rand.Rand
}

// WithLogger sets the logger. If not provided, nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRadio sets the radio used for discovery and connections. Required.
func WithRadio(radio Radio) Option {
	return func(o *options) {
		o.radio = radio
	}
}

// WithButtons sets the button source. Required.
func WithButtons(buttons ButtonSource) Option {
	return func(o *options) {
		o.buttons = buttons
	}
}

// WithFrameSink sets the display. Without one the engine runs headless.
func WithFrameSink(sink FrameSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithPeripherals sets the peripheral table store. Defaults to the
// built-in table.
func WithPeripherals(store *PeripheralStore) Option {
	return func(o *options) {
		o.peripherals = store
	}
}

// WithEventHandler sets a handler for engine events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithRand sets the random source used by spawners.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}
