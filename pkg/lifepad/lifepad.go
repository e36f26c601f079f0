package lifepad

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/lifepad/internal/app"
	"github.com/bft-labs/lifepad/internal/controller"
	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Errors returned by Engine methods.
var (
	ErrAlreadyRunning    = domain.ErrAlreadyRunning
	ErrNotRunning        = domain.ErrNotRunning
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrShutdownRequested = domain.ErrShutdownRequested
)

// Engine runs the display: the foreground tick loop and the background
// device manager. Use New to create one, then Start.
type Engine struct {
	config      Config
	opts        options
	lifecycle   *app.Lifecycle
	logger      log.Logger
	emitter     *eventEmitterWrapper
	effects     *controller.Effects
	peripherals *peripheral.Store
	plugins     []Plugin

	mu      sync.RWMutex
	manager *app.DeviceManager
	done    chan struct{}
	err     error
}

// New creates an Engine in StateStopped. A radio and a button source are
// required.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.radio == nil {
		return nil, fmt.Errorf("%w: a radio is required", domain.ErrInvalidConfig)
	}
	if o.buttons == nil {
		return nil, fmt.Errorf("%w: a button source is required", domain.ErrInvalidConfig)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}
	if o.peripherals == nil {
		o.peripherals = peripheral.NewStore(nil)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	emitter := &eventEmitterWrapper{}
	if o.eventHandler != nil {
		emitter.handlers = append(emitter.handlers, o.eventHandler)
	}
	for _, p := range o.plugins {
		if h, ok := p.(EventHandler); ok {
			emitter.handlers = append(emitter.handlers, h)
		}
	}

	return &Engine{
		config:      cfg,
		opts:        o,
		lifecycle:   app.NewLifecycle(o.logger, emitter),
		logger:      o.logger,
		emitter:     emitter,
		effects:     controller.NewEffects(cfg.ClusterSize, cfg.SpawnDensity, o.rng),
		peripherals: o.peripherals,
		plugins:     o.plugins,
		done:        make(chan struct{}),
	}, nil
}

// Start initializes plugins and starts the engine in the background. The
// provided context bounds the whole run.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := e.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.lifecycle.SetCancel(cancel)

	for i, p := range e.plugins {
		pluginCfg := PluginConfig{
			ID:          e.config.ID,
			Peripherals: e.peripherals,
			Logger:      e.logger.With(log.String("plugin", p.Name())),
		}
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			e.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			e.shutdownPlugins(e.plugins[:i])
			_ = e.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		e.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	registry := controller.NewRegistry()
	manager := app.NewDeviceManager(runCtx, e.config.managerConfig(), e.opts.radio,
		e.peripherals, registry, e.logger, e.emitter)
	scheduler := app.NewScheduler(e.config.schedulerConfig(), e.opts.buttons, e.opts.sink,
		manager, registry, e.effects, e.logger, e.emitter)

	done := make(chan struct{})
	e.manager = manager
	e.done = done
	e.err = nil

	e.lifecycle.Go(func() {
		defer close(done)

		if err := e.lifecycle.TransitionTo(app.StateRunning, "engine starting"); err != nil {
			e.logger.Error("failed to transition to running", log.Err(err))
			_ = manager.Close(context.Background())
			return
		}

		err := e.run(runCtx, scheduler, manager)

		e.mu.Lock()
		e.err = err
		e.mu.Unlock()

		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, domain.ErrShutdownRequested):
			e.logger.Info("shutdown requested from input")
		default:
			e.logger.Error("engine error", log.Err(err))
			_ = e.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	})

	return nil
}

// run supervises the scheduler and the manager. When either ends, the other
// is cancelled.
func (e *Engine) run(ctx context.Context, scheduler *app.Scheduler, manager *app.DeviceManager) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		return manager.Close(closeCtx)
	})
	return g.Wait()
}

// Stop cancels the run, waits for background work to exit and shuts down
// plugins in reverse order. Returns ErrShutdownTimeout if background work
// did not exit in time.
func (e *Engine) Stop() error {
	e.mu.Lock()

	if !e.lifecycle.CanStop() {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := e.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		e.mu.Unlock()
		return err
	}
	e.lifecycle.Cancel()
	e.mu.Unlock()

	err := e.lifecycle.Wait(app.ShutdownTimeout)

	e.shutdownPlugins(e.plugins)

	if err != nil {
		_ = e.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = e.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

func (e *Engine) shutdownPlugins(plugins []Plugin) {
	ctx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			e.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			e.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Status returns the current run state.
func (e *Engine) Status() State {
	return convertState(e.lifecycle.State())
}

// Transition is one recorded engine state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// History returns the most recent state changes, oldest first.
func (e *Engine) History() []Transition {
	hist := e.lifecycle.History()
	out := make([]Transition, len(hist))
	for i, t := range hist {
		out[i] = Transition{From: convertState(t.From), To: convertState(t.To), Reason: t.Reason, At: t.At}
	}
	return out
}

// Done is closed when the current run ends, either through Stop or on its
// own after a quit request or an error.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.done
}

// Err returns why the last run ended: nil after Stop, ErrShutdownRequested
// after a quit from the input, or the error that crashed the engine.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if errors.Is(e.err, context.Canceled) {
		return nil
	}
	return e.err
}

// Connection describes one connection task.
type Connection struct {
	TaskID    string
	Address   string
	Direction string
	Kind      string
	State     string
	Retries   int
	Since     time.Time
}

// Connections lists the current connection tasks. It is empty before the
// first Start.
func (e *Engine) Connections() []Connection {
	e.mu.RLock()
	manager := e.manager
	e.mu.RUnlock()
	if manager == nil {
		return nil
	}
	snap := manager.Snapshot()
	out := make([]Connection, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		out = append(out, Connection{
			TaskID:    t.ID.String(),
			Address:   t.Address.String(),
			Direction: t.Direction.String(),
			Kind:      t.Kind.String(),
			State:     t.State.String(),
			Retries:   t.Retries,
			Since:     t.Started,
		})
	}
	return out
}

// Peripherals returns the peripheral table store.
func (e *Engine) Peripherals() *PeripheralStore {
	return e.peripherals
}
