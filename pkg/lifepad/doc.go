// Package lifepad provides an embeddable engine for a four-button cellular
// automaton display driven by wireless controllers.
//
// Each of the four direction buttons arms a slot. While a slot is held, the
// engine discovers an unassigned controller from a fixed peripheral table,
// connects to it, and feeds its telemetry into the grid: rotators sweep a
// line that kills cells, sliders fill a row or column, and spawners drop
// random clusters. The grid keeps evolving under Conway's rules.
//
// # Basic Usage
//
//	engine, err := lifepad.New(lifepad.Config{},
//	    lifepad.WithRadio(radio),
//	    lifepad.WithButtons(buttons),
//	    lifepad.WithFrameSink(display),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := engine.Start(ctx); err != nil {
//	    return err
//	}
//	<-engine.Done()
//	_ = engine.Stop()
//
// # Configuration
//
// All [Config] fields have defaults set via [Config.SetDefaults]. The
// defaults match the original hardware: a 16x18 grid, 60 frames per second
// and an automaton step every 10ms.
//
// # Event Handling
//
// Implement [EventHandler], or embed [BaseEventHandler], and pass it via
// [WithEventHandler] to observe run-state changes, connection task changes
// and automaton generations. Events are delivered synchronously.
//
// # Plugins
//
// Plugins registered with [WithPlugin] are initialized on Start in order and
// shut down on Stop in reverse order. A plugin that also implements
// [EventHandler] receives every event:
//
//	import "github.com/bft-labs/lifepad/plugins/journal"
//	import "github.com/bft-labs/lifepad/plugins/tablewatcher"
//
//	engine, err := lifepad.New(cfg,
//	    journal.WithJournal(journal.Config{Path: "lifepad.db"}),
//	    tablewatcher.WithTableWatcher(tablewatcher.Config{Path: "peripherals.yaml"}),
//	)
//
// # Lifecycle States
//
// An Engine is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. Use [Engine.Status] to query it.
package lifepad
