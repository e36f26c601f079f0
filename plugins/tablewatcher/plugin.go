// Package tablewatcher reloads the peripheral table when its file changes.
// A file that fails to parse or validate is logged and the previous table
// stays active.
package tablewatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/lifepad/internal/peripheral"
	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Plugin watches the peripheral table file.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration

	store    *peripheral.Store
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloaded chan struct{}
}

// Config holds configuration options for the table watcher plugin.
type Config struct {
	// Path is the YAML peripheral table to watch.
	Path string

	// DebounceDelay is the delay after the last change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// New creates a table watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		reloaded:      make(chan struct{}, 1),
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "tablewatcher"
}

// Initialize loads the table once and starts watching it.
func (p *Plugin) Initialize(ctx context.Context, cfg lifepad.PluginConfig) error {
	p.mu.Lock()
	p.store = cfg.Peripherals
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" || p.store == nil {
		p.logger.Warn("table watcher disabled: no table path configured")
		return nil
	}

	p.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("table watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloaded receives a value after each reload attempt.
func (p *Plugin) Reloaded() <-chan struct{} {
	return p.reloaded
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("table watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) scheduleReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	if err := p.store.Reload(p.path); err != nil {
		p.logger.Error("peripheral table rejected, keeping previous table",
			log.String("path", p.path),
			log.Err(err))
	} else {
		p.logger.Info("peripheral table loaded",
			log.String("path", p.path),
			log.Uint64("version", p.store.Version()))
	}
	select {
	case p.reloaded <- struct{}{}:
	default:
	}
}

var _ lifepad.Plugin = (*Plugin)(nil)
