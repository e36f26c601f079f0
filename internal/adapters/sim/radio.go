// Package sim provides an in-memory radio whose peripherals emit synthetic
// telemetry. It backs --simulate runs and end-to-end tests.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/ports"
)

// Default simulation timings.
const (
	DefaultScanDuration      = 200 * time.Millisecond
	DefaultTelemetryInterval = 100 * time.Millisecond
)

// Peripheral is one simulated controller.
type Peripheral struct {
	Address domain.Address
	Kind    domain.DeviceKind
}

// FromTable lists one simulated peripheral per table entry, kinds in
// rotator, slider, spawner order.
func FromTable(t *domain.PeripheralTable) []Peripheral {
	var out []Peripheral
	for _, kind := range []domain.DeviceKind{domain.KindRotator, domain.KindSlider, domain.KindSpawner} {
		for _, addr := range t.Addresses(kind) {
			out = append(out, Peripheral{Address: addr, Kind: kind})
		}
	}
	return out
}

// Option configures a Radio.
type Option func(*Radio)

// WithScanDuration sets how long a scan takes, bounded by the scan timeout.
func WithScanDuration(d time.Duration) Option {
	return func(r *Radio) { r.scanDuration = d }
}

// WithTelemetryInterval sets how often connected peripherals notify.
func WithTelemetryInterval(d time.Duration) Option {
	return func(r *Radio) { r.interval = d }
}

// Radio implements ports.Radio in memory.
type Radio struct {
	scanDuration time.Duration
	interval     time.Duration

	mu          sync.Mutex
	peripherals []Peripheral
	scanning    bool
	failures    map[domain.Address]int
	sessions    map[domain.Address]*Session
}

// New creates a radio with the given visible peripherals.
func New(peripherals []Peripheral, opts ...Option) *Radio {
	r := &Radio{
		scanDuration: DefaultScanDuration,
		interval:     DefaultTelemetryInterval,
		peripherals:  append([]Peripheral(nil), peripherals...),
		failures:     make(map[domain.Address]int),
		sessions:     make(map[domain.Address]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FailConnects makes the next n connection attempts to addr fail.
func (r *Radio) FailConnects(addr domain.Address, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[addr] = n
}

// DropLink marks the open session to addr as disconnected.
func (r *Radio) DropLink(addr domain.Address) {
	r.mu.Lock()
	s := r.sessions[addr]
	r.mu.Unlock()
	if s != nil {
		s.drop()
	}
}

// Scan reports every simulated peripheral after the scan duration. A second
// scan while one is running fails with domain.ErrScanConflict.
func (r *Radio) Scan(ctx context.Context, timeout time.Duration) ([]domain.Address, error) {
	r.mu.Lock()
	if r.scanning {
		r.mu.Unlock()
		return nil, fmt.Errorf("sim: %w", domain.ErrScanConflict)
	}
	r.scanning = true
	addrs := make([]domain.Address, 0, len(r.peripherals))
	for _, p := range r.peripherals {
		addrs = append(addrs, p.Address)
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.scanning = false
		r.mu.Unlock()
	}()

	timer := time.NewTimer(min(r.scanDuration, timeout))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return addrs, nil
	}
}

// Connect opens a session to a simulated peripheral.
func (r *Radio) Connect(ctx context.Context, addr domain.Address) (ports.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := r.failures[addr]; n > 0 {
		r.failures[addr] = n - 1
		return nil, fmt.Errorf("sim: connect %s: device not responding", addr)
	}

	var kind domain.DeviceKind
	for _, p := range r.peripherals {
		if p.Address == addr {
			kind = p.Kind
		}
	}
	if kind == domain.KindNone {
		return nil, fmt.Errorf("sim: connect %s: not in range", addr)
	}

	s := &Session{
		addr:      addr,
		kind:      kind,
		interval:  r.interval,
		connected: true,
		stop:      make(chan struct{}),
	}
	r.sessions[addr] = s
	return s, nil
}

// Session is a simulated link. Once subscribed it notifies at a fixed
// interval.
type Session struct {
	addr     domain.Address
	kind     domain.DeviceKind
	interval time.Duration

	mu         sync.Mutex
	connected  bool
	subscribed bool
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// Subscribe starts the telemetry generator.
func (s *Session) Subscribe(handler func(payload []byte)) error {
	if handler == nil {
		return errors.New("sim: nil handler")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return fmt.Errorf("sim: subscribe %s: not connected", s.addr)
	}
	if s.subscribed {
		return fmt.Errorf("sim: subscribe %s: already subscribed", s.addr)
	}
	s.subscribed = true

	s.wg.Add(1)
	go s.emit(handler)
	return nil
}

func (s *Session) emit(handler func([]byte)) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			handler(Sample(s.kind, n))
		}
	}
}

// Sample returns the n-th telemetry payload of a peripheral of kind.
// Rotators send a single counter byte, sliders sweep 0..255 and back as
// zero-padded decimal text, spawners send 255 every tenth sample.
func Sample(kind domain.DeviceKind, n int) []byte {
	switch kind {
	case domain.KindRotator:
		return []byte{byte(n % 36)}
	case domain.KindSlider:
		v := (n * 8) % 510
		if v > 255 {
			v = 510 - v
		}
		return []byte(fmt.Sprintf("%03d", v))
	case domain.KindSpawner:
		if n%10 == 9 {
			return []byte{255}
		}
		return []byte{0}
	default:
		return nil
	}
}

// Connected reports whether the link is up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Disconnect stops telemetry and closes the link.
func (s *Session) Disconnect() error {
	s.drop()
	s.wg.Wait()
	return nil
}

func (s *Session) drop() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.stop) })
}
