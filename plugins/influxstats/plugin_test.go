package influxstats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/pkg/lifepad"
	"github.com/bft-labs/lifepad/pkg/log"
)

type fakeWriter struct {
	mu      sync.Mutex
	lines   []string
	flushed bool
}

func (w *fakeWriter) WritePoint(p *write.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, write.PointToLineProtocol(p, time.Second))
}

func (w *fakeWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushed = true
}

func newTestPlugin(t *testing.T, cfg Config) (*Plugin, *fakeWriter) {
	t.Helper()
	w := &fakeWriter{}
	p := New(cfg)
	p.dial = func(ctx context.Context, cfg Config, logger log.Logger) (pointWriter, func(), error) {
		return w, w.Flush, nil
	}
	require.NoError(t, p.Initialize(context.Background(), lifepad.PluginConfig{ID: "hall"}))
	return p, w
}

func TestPlugin_WritesEveryNthGeneration(t *testing.T) {
	p, w := newTestPlugin(t, Config{Every: 10})

	for gen := uint64(1); gen <= 25; gen++ {
		p.OnGeneration(lifepad.GenerationEvent{
			Generation: gen,
			Alive:      40,
			Unowned:    12,
			ByKind:     map[string]int{"slider": 18, "spawner": 10},
		})
	}

	require.Len(t, w.lines, 2)
	line := w.lines[0]
	assert.Contains(t, line, "generation,display=hall ")
	assert.Contains(t, line, "alive=40i")
	assert.Contains(t, line, "unowned=12i")
	assert.Contains(t, line, "slider=18i")
	assert.Contains(t, line, "rotator=0i")
	assert.Contains(t, line, "generation=10u")
}

func TestPlugin_WritesConnections(t *testing.T) {
	p, w := newTestPlugin(t, Config{})

	p.OnConnectionChange(lifepad.ConnectionEvent{
		Address:   "F0:9E:9E:B3:F8:A6",
		Direction: "up",
		Kind:      "rotator",
		Current:   "Connected",
		At:        time.Unix(1700000000, 0),
	})

	require.Len(t, w.lines, 1)
	assert.Equal(t,
		"connection,direction=up,display=hall,kind=rotator,state=Connected address=\"F0:9E:9E:B3:F8:A6\",retries=0i 1700000000\n",
		w.lines[0])
}

func TestPlugin_ShutdownFlushesAndStops(t *testing.T) {
	p, w := newTestPlugin(t, Config{Every: 1})

	require.NoError(t, p.Shutdown(context.Background()))
	assert.True(t, w.flushed)

	p.OnGeneration(lifepad.GenerationEvent{Generation: 1})
	assert.Empty(t, w.lines)
}

func TestPlugin_DialFailure(t *testing.T) {
	p := New(Config{URL: "http://influx:8086"})
	p.dial = func(ctx context.Context, cfg Config, logger log.Logger) (pointWriter, func(), error) {
		return nil, nil, errors.New("connection refused")
	}

	err := p.Initialize(context.Background(), lifepad.PluginConfig{})

	assert.Error(t, err)
	p.OnGeneration(lifepad.GenerationEvent{Generation: 100})
}
