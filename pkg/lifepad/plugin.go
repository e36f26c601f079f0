package lifepad

import (
	"context"

	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/pkg/log"
)

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	// ID is the engine ID from Config.
	ID string

	// Peripherals is the live peripheral table. Plugins may swap it.
	Peripherals *peripheral.Store

	Logger log.Logger
}

// Plugin extends an Engine. Plugins are initialized in registration order
// when the engine starts and shut down in reverse order when it stops.
// A plugin that also implements EventHandler receives every engine event.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, cfg PluginConfig) error
	Shutdown(ctx context.Context) error
}

// BasePlugin implements Plugin with no-ops.
type BasePlugin struct{}

func (BasePlugin) Name() string                                         { return "base" }
func (BasePlugin) Initialize(ctx context.Context, cfg PluginConfig) error { return nil }
func (BasePlugin) Shutdown(ctx context.Context) error                     { return nil }
