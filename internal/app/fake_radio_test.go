package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/ports"
)

// fakeRadio is an in-memory radio that records concurrency and call counts.
type fakeRadio struct {
	mu sync.Mutex

	visible    []domain.Address
	scanDelay  time.Duration
	scanErrs   []error
	connectErr error

	disconnectDelay time.Duration
	disconnectErr   error
	onDisconnect    func(domain.Address)

	scans         int
	scanning      int
	maxConcurrent int

	connects  map[domain.Address]int
	active    map[domain.Address]int
	maxActive map[domain.Address]int
	sessions  map[domain.Address][]*fakeSession
}

func newFakeRadio(visible ...domain.Address) *fakeRadio {
	return &fakeRadio{
		visible:   visible,
		connects:  make(map[domain.Address]int),
		active:    make(map[domain.Address]int),
		maxActive: make(map[domain.Address]int),
		sessions:  make(map[domain.Address][]*fakeSession),
	}
}

func (r *fakeRadio) Scan(ctx context.Context, timeout time.Duration) ([]domain.Address, error) {
	r.mu.Lock()
	r.scans++
	r.scanning++
	if r.scanning > r.maxConcurrent {
		r.maxConcurrent = r.scanning
	}
	var err error
	if len(r.scanErrs) > 0 {
		err = r.scanErrs[0]
		r.scanErrs = r.scanErrs[1:]
	}
	visible := append([]domain.Address(nil), r.visible...)
	delay := r.scanDelay
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.scanning--
		r.mu.Unlock()
	}()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return visible, nil
}

func (r *fakeRadio) Connect(ctx context.Context, addr domain.Address) (ports.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connects[addr]++
	if r.connectErr != nil {
		return nil, r.connectErr
	}

	s := &fakeSession{radio: r, addr: addr, connected: true}
	r.sessions[addr] = append(r.sessions[addr], s)
	r.active[addr]++
	if r.active[addr] > r.maxActive[addr] {
		r.maxActive[addr] = r.active[addr]
	}
	return s, nil
}

func (r *fakeRadio) Scans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

func (r *fakeRadio) MaxConcurrentScans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxConcurrent
}

func (r *fakeRadio) Connects(addr domain.Address) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects[addr]
}

func (r *fakeRadio) MaxActive(addr domain.Address) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive[addr]
}

// Session returns the most recent session for addr.
func (r *fakeRadio) Session(addr domain.Address) *fakeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.sessions[addr]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

type fakeSession struct {
	radio *fakeRadio
	addr  domain.Address

	mu           sync.Mutex
	connected    bool
	disconnected bool
	handler      func([]byte)
}

func (s *fakeSession) Subscribe(handler func(payload []byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handler == nil {
		return errors.New("nil handler")
	}
	s.handler = handler
	return nil
}

func (s *fakeSession) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && !s.disconnected
}

func (s *fakeSession) Disconnect() error {
	s.radio.mu.Lock()
	delay := s.radio.disconnectDelay
	hook := s.radio.onDisconnect
	fail := s.radio.disconnectErr
	s.radio.mu.Unlock()
	if hook != nil {
		hook(s.addr)
	}
	time.Sleep(delay)

	s.mu.Lock()
	already := s.disconnected
	s.disconnected = true
	s.mu.Unlock()

	if !already {
		s.radio.mu.Lock()
		s.radio.active[s.addr]--
		s.radio.mu.Unlock()
	}
	return fail
}

// Notify delivers a payload as if the peripheral emitted it.
func (s *fakeSession) Notify(payload []byte) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

// Drop simulates a link loss.
func (s *fakeSession) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *fakeSession) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// eventRecorder records connection events.
type eventRecorder struct {
	mu     sync.Mutex
	events []ConnectionEvent
}

func (e *eventRecorder) OnConnectionChange(ev ConnectionEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventRecorder) Events() []ConnectionEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ConnectionEvent(nil), e.events...)
}

func (e *eventRecorder) Has(addr domain.Address, state TaskState) bool {
	for _, ev := range e.Events() {
		if ev.Address == addr && ev.Current == state {
			return true
		}
	}
	return false
}

// swappableTable is a TableSource whose table can be replaced by a test.
type swappableTable struct {
	mu sync.Mutex
	t  *domain.PeripheralTable
}

func (s *swappableTable) Table() *domain.PeripheralTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

func (s *swappableTable) Set(t *domain.PeripheralTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = t
}
