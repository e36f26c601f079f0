package app

import (
	"context"
	"time"

	"github.com/bft-labs/lifepad/internal/controller"
	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/ports"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Default scheduler intervals.
const (
	DefaultFrameInterval = time.Second / 60
	DefaultStepInterval  = 10 * time.Millisecond
)

// SchedulerConfig contains the grid size and loop cadences.
type SchedulerConfig struct {
	Rows          int
	Cols          int
	FrameInterval time.Duration
	StepInterval  time.Duration
}

// SetDefaults fills zero fields with their defaults.
func (c *SchedulerConfig) SetDefaults() {
	if c.Rows == 0 {
		c.Rows = 16
	}
	if c.Cols == 0 {
		c.Cols = 18
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = DefaultFrameInterval
	}
	if c.StepInterval == 0 {
		c.StepInterval = DefaultStepInterval
	}
}

// SlotManager is the part of the device manager the scheduler drives.
// Both calls must return without waiting on the radio.
type SlotManager interface {
	AssignDirection(dir domain.Direction)
	Release(dir domain.Direction)
}

// GenerationEmitter is called after every automaton step.
type GenerationEmitter interface {
	OnGeneration(generation uint64, population domain.Population)
}

// Scheduler is the foreground loop. It owns the grid.
type Scheduler struct {
	cfg      SchedulerConfig
	buttons  ports.ButtonSource
	sink     ports.FrameSink
	slots    SlotManager
	registry *controller.Registry
	effects  *controller.Effects
	logger   log.Logger
	emitter  GenerationEmitter

	grid       *domain.Grid
	prev       domain.ButtonState
	lastStep   time.Time
	generation uint64
}

// NewScheduler creates a scheduler with an all-dead grid.
func NewScheduler(
	cfg SchedulerConfig,
	buttons ports.ButtonSource,
	sink ports.FrameSink,
	slots SlotManager,
	registry *controller.Registry,
	effects *controller.Effects,
	logger log.Logger,
	emitter GenerationEmitter,
) *Scheduler {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Scheduler{
		cfg:      cfg,
		buttons:  buttons,
		sink:     sink,
		slots:    slots,
		registry: registry,
		effects:  effects,
		logger:   logger,
		emitter:  emitter,
		grid:     domain.NewGrid(cfg.Rows, cfg.Cols),
	}
}

// Grid returns the current grid. It must only be called from the goroutine
// running the scheduler.
func (s *Scheduler) Grid() *domain.Grid {
	return s.grid
}

// Generation returns the number of automaton steps taken.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// Run ticks every FrameInterval until ctx is done or a quit is requested.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	s.lastStep = time.Now()
	s.logger.Info("scheduler started",
		log.Int("rows", s.cfg.Rows),
		log.Int("cols", s.cfg.Cols),
		log.Duration("frame_interval", s.cfg.FrameInterval),
		log.Duration("step_interval", s.cfg.StepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.Tick(ctx, now); err != nil {
				return err
			}
		}
	}
}

// Tick runs one iteration: input, assignment requests, effects, automaton
// step when due, presentation.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	state, err := s.buttons.Read(ctx)
	if err != nil {
		s.logger.Warn("button read failed", log.Err(err))
		state = s.prev
	}
	if state.Quit {
		return domain.ErrShutdownRequested
	}

	for _, dir := range domain.Directions {
		pressed, was := state.IsPressed(dir), s.prev.IsPressed(dir)
		switch {
		case pressed && !was:
			s.registry.Create(dir)
			s.slots.AssignDirection(dir)
		case !pressed && was:
			s.registry.Remove(dir)
			s.slots.Release(dir)
		}
	}
	s.prev = state

	s.effects.ApplyAll(s.grid, s.registry.Active())

	if now.Sub(s.lastStep) >= s.cfg.StepInterval {
		s.grid = domain.Step(s.grid)
		s.lastStep = now
		s.generation++
		if s.emitter != nil {
			s.emitter.OnGeneration(s.generation, s.grid.Population())
		}
	}

	if s.sink != nil {
		if err := s.sink.Present(ctx, s.grid); err != nil {
			s.logger.Warn("present failed", log.Err(err))
		}
	}
	return nil
}
