// Package journal records every connection task state change in a SQLite
// database so past sessions can be inspected with `lifepad journal`.
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Config holds configuration options for the journal plugin.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// QueueSize bounds events waiting to be written. Events beyond it are
	// dropped. Default: 256
	QueueSize int

	// CheckInterval is how often the entry count is checked.
	// Default: 1 hour
	CheckInterval time.Duration

	// HighWatermark is the entry count above which old entries are pruned.
	// Default: 100000
	HighWatermark int64

	// LowWatermark is the entry count kept after pruning.
	// Default: 75000
	LowWatermark int64
}

// Plugin appends connection events to a Store from a single writer
// goroutine.
type Plugin struct {
	lifepad.BaseEventHandler

	cfg Config

	mu      sync.RWMutex
	store   *Store
	queue   chan Entry
	display string
	logger  log.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a journal plugin.
func New(cfg Config) *Plugin {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = 100000
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark > cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark * 3 / 4
	}
	return &Plugin{cfg: cfg, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "journal"
}

// Initialize opens the database and starts the writer.
func (p *Plugin) Initialize(ctx context.Context, cfg lifepad.PluginConfig) error {
	store, err := Open(p.cfg.Path)
	if err != nil {
		return err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	pruneCtx, cancel := context.WithCancel(context.Background())
	queue := make(chan Entry, p.cfg.QueueSize)
	p.mu.Lock()
	p.store = store
	p.queue = queue
	p.display = cfg.ID
	p.logger = logger
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(2)
	go p.writeLoop(store, queue)
	go p.pruneLoop(pruneCtx, store)

	logger.Info("connection journal opened", log.String("path", p.cfg.Path))
	return nil
}

// Shutdown drains queued events and closes the database.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	store, queue, cancel := p.store, p.queue, p.cancel
	p.store, p.queue, p.cancel = nil, nil, nil
	p.mu.Unlock()

	if queue == nil {
		return nil
	}
	cancel()
	close(queue)
	p.wg.Wait()
	return store.Close()
}

func (p *Plugin) writeLoop(store *Store, queue <-chan Entry) {
	defer p.wg.Done()
	for e := range queue {
		if _, err := store.Append(context.Background(), e); err != nil {
			p.logger.Warn("journal write failed", log.Err(err))
		}
	}
}

func (p *Plugin) pruneLoop(ctx context.Context, store *Store) {
	defer p.wg.Done()

	p.pruneOnce(ctx, store)

	ticker := time.NewTicker(p.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pruneOnce(ctx, store)
		}
	}
}

func (p *Plugin) pruneOnce(ctx context.Context, store *Store) {
	n, err := store.Count(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("journal size check failed", log.Err(err))
		}
		return
	}
	if n <= p.cfg.HighWatermark {
		return
	}
	removed, err := store.Prune(ctx, p.cfg.LowWatermark)
	if err != nil {
		p.logger.Error("journal prune failed", log.Err(err))
		return
	}
	p.logger.Info("journal pruned", log.Int64("removed", removed), log.Int64("kept", p.cfg.LowWatermark))
}

// OnConnectionChange queues the event for writing.
func (p *Plugin) OnConnectionChange(event lifepad.ConnectionEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.queue == nil {
		return
	}

	e := Entry{
		Display:   p.display,
		TaskID:    event.TaskID,
		Address:   event.Address,
		Direction: event.Direction,
		Kind:      event.Kind,
		Previous:  event.Previous,
		Current:   event.Current,
		Retries:   event.Retries,
		At:        event.At,
	}
	if event.Err != nil {
		e.Error = event.Err.Error()
	}
	select {
	case p.queue <- e:
	default:
		p.logger.Warn("journal queue full, event dropped",
			log.String("address", event.Address),
			log.String("state", event.Current))
	}
}

var (
	_ lifepad.Plugin       = (*Plugin)(nil)
	_ lifepad.EventHandler = (*Plugin)(nil)
)
