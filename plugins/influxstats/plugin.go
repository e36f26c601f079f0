// Package influxstats writes automaton statistics to InfluxDB: a
// "generation" point every N generations with live cell counts per owner
// kind, and a "connection" point per connection task change.
package influxstats

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

const (
	defaultPingTimeout = 5 * time.Second

	millisecondsPerSecond = 1000
)

// Config holds configuration options for the statistics plugin.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// Every writes one generation point per this many generations.
	// Default: 100 (one second at the default step interval)
	Every uint64

	// BatchSize and FlushInterval (seconds) tune the async writer.
	// Defaults: 100 and 10
	BatchSize     uint
	FlushInterval uint
}

// pointWriter is the part of api.WriteAPI the plugin uses.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Plugin records engine statistics.
type Plugin struct {
	lifepad.BaseEventHandler

	cfg  Config
	dial func(ctx context.Context, cfg Config, logger log.Logger) (pointWriter, func(), error)

	mu     sync.RWMutex
	writer pointWriter
	close  func()
	id     string
	logger log.Logger
}

// New creates a statistics plugin.
func New(cfg Config) *Plugin {
	if cfg.Every == 0 {
		cfg.Every = 100
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 10
	}
	return &Plugin{cfg: cfg, dial: dial, logger: log.NewNoopLogger()}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "influxstats"
}

func dial(ctx context.Context, cfg Config, logger log.Logger) (pointWriter, func(), error) {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(cfg.BatchSize).
			SetFlushInterval(cfg.FlushInterval*millisecondsPerSecond),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("influxdb ping %s: %w", cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, nil, fmt.Errorf("influxdb %s: server not healthy", cfg.URL)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("influxdb write failed", log.Err(err))
		}
	}()

	return writeAPI, func() {
		writeAPI.Flush()
		client.Close()
	}, nil
}

// Initialize connects to InfluxDB.
func (p *Plugin) Initialize(ctx context.Context, cfg lifepad.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	writer, closeFn, err := p.dial(ctx, p.cfg, logger)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.writer = writer
	p.close = closeFn
	p.id = cfg.ID
	p.logger = logger
	p.mu.Unlock()

	logger.Info("influx statistics enabled",
		log.String("bucket", p.cfg.Bucket),
		log.Uint64("every", p.cfg.Every))
	return nil
}

// Shutdown flushes pending points and closes the client.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	closeFn := p.close
	p.writer = nil
	p.close = nil
	p.mu.Unlock()

	if closeFn != nil {
		closeFn()
	}
	return nil
}

// OnGeneration writes a generation point every Every generations.
func (p *Plugin) OnGeneration(event lifepad.GenerationEvent) {
	if event.Generation%p.cfg.Every != 0 {
		return
	}
	p.mu.RLock()
	writer, id := p.writer, p.id
	p.mu.RUnlock()
	if writer == nil {
		return
	}

	fields := map[string]interface{}{
		"generation": event.Generation,
		"alive":      event.Alive,
		"unowned":    event.Unowned,
	}
	for _, kind := range []string{"rotator", "slider", "spawner"} {
		fields[kind] = event.ByKind[kind]
	}
	writer.WritePoint(write.NewPoint("generation", map[string]string{"display": id}, fields, time.Now()))
}

// OnConnectionChange writes a connection point.
func (p *Plugin) OnConnectionChange(event lifepad.ConnectionEvent) {
	p.mu.RLock()
	writer, id := p.writer, p.id
	p.mu.RUnlock()
	if writer == nil {
		return
	}

	writer.WritePoint(write.NewPoint("connection",
		map[string]string{
			"display":   id,
			"direction": event.Direction,
			"kind":      event.Kind,
			"state":     event.Current,
		},
		map[string]interface{}{
			"address": event.Address,
			"retries": event.Retries,
		},
		event.At,
	))
}

var (
	_ lifepad.Plugin       = (*Plugin)(nil)
	_ lifepad.EventHandler = (*Plugin)(nil)
)
