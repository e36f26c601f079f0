// Package ble implements the radio port on top of tinygo.org/x/bluetooth.
// On Linux this talks to BlueZ over D-Bus.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/ports"
	"github.com/bft-labs/lifepad/pkg/log"
)

// Radio is a BLE central. Addresses must have been seen by a Scan before
// they can be connected.
type Radio struct {
	adapter *bluetooth.Adapter
	char    bluetooth.UUID
	logger  log.Logger

	mu       sync.Mutex
	seen     map[domain.Address]bluetooth.Address
	sessions map[domain.Address]*Session
}

// New enables adapter and returns a radio that subscribes to characteristic
// on every connected peripheral.
func New(adapter *bluetooth.Adapter, characteristic uuid.UUID, logger log.Logger) (*Radio, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable bluetooth adapter: %w", err)
	}
	char, err := bluetooth.ParseUUID(characteristic.String())
	if err != nil {
		return nil, fmt.Errorf("characteristic %s: %w", characteristic, err)
	}

	r := &Radio{
		adapter:  adapter,
		char:     char,
		logger:   logger,
		seen:     make(map[domain.Address]bluetooth.Address),
		sessions: make(map[domain.Address]*Session),
	}
	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		r.onLinkChange(domain.NormalizeAddress(device.Address.String()), connected)
	})
	return r, nil
}

// Scan runs a discovery for timeout and returns every address seen, in the
// order first reported.
func (r *Radio) Scan(ctx context.Context, timeout time.Duration) ([]domain.Address, error) {
	var (
		mu    sync.Mutex
		order []domain.Address
		found = make(map[domain.Address]bluetooth.Address)
	)

	stop := time.AfterFunc(timeout, func() { _ = r.adapter.StopScan() })
	defer stop.Stop()

	watch := make(chan struct{})
	defer close(watch)
	go func() {
		select {
		case <-ctx.Done():
			_ = r.adapter.StopScan()
		case <-watch:
		}
	}()

	err := r.adapter.Scan(func(_ *bluetooth.Adapter, res bluetooth.ScanResult) {
		addr := domain.NormalizeAddress(res.Address.String())
		mu.Lock()
		defer mu.Unlock()
		if _, ok := found[addr]; !ok {
			found[addr] = res.Address
			order = append(order, addr)
		}
	})
	if err != nil {
		return nil, classifyScanError(err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	r.mu.Lock()
	for addr, bt := range found {
		r.seen[addr] = bt
	}
	r.mu.Unlock()

	r.logger.Debug("scan complete", log.Int("visible", len(order)))
	return order, nil
}

// classifyScanError maps a busy adapter to domain.ErrScanConflict.
func classifyScanError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "InProgress") || strings.Contains(msg, "already scanning") {
		return fmt.Errorf("ble scan: %w: %w", domain.ErrScanConflict, err)
	}
	return fmt.Errorf("ble scan: %w", err)
}

// Connect connects to addr and locates the telemetry characteristic.
func (r *Radio) Connect(ctx context.Context, addr domain.Address) (ports.Session, error) {
	r.mu.Lock()
	bt, ok := r.seen[addr]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ble connect %s: address not seen in a scan", addr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	device, err := r.adapter.Connect(bt, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("ble connect %s: %w", addr, err)
	}
	if err := ctx.Err(); err != nil {
		_ = device.Disconnect()
		return nil, err
	}

	services, err := device.DiscoverServices(nil)
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("ble discover services %s: %w", addr, err)
	}

	var char *bluetooth.DeviceCharacteristic
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{r.char})
		if err != nil || len(chars) == 0 {
			continue
		}
		c := chars[0]
		char = &c
		break
	}
	if char == nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("ble connect %s: characteristic %s not found", addr, r.char)
	}

	s := &Session{
		addr:       addr,
		enable:     char.EnableNotifications,
		disconnect: device.Disconnect,
	}
	s.connected.Store(true)

	r.mu.Lock()
	r.sessions[addr] = s
	r.mu.Unlock()

	r.logger.Debug("ble connected", log.String("address", addr.String()))
	return s, nil
}

func (r *Radio) onLinkChange(addr domain.Address, connected bool) {
	r.mu.Lock()
	s := r.sessions[addr]
	if !connected {
		delete(r.sessions, addr)
	}
	r.mu.Unlock()

	if s != nil && !connected {
		s.connected.Store(false)
		r.logger.Info("ble link lost", log.String("address", addr.String()))
	}
}

// Session is a connected BLE peripheral.
type Session struct {
	addr       domain.Address
	enable     func(func([]byte)) error
	disconnect func() error

	connected atomic.Bool
	once      sync.Once
	err       error
}

// Subscribe enables notifications on the telemetry characteristic.
func (s *Session) Subscribe(handler func(payload []byte)) error {
	if handler == nil {
		return errors.New("ble: nil notification handler")
	}
	if err := s.enable(handler); err != nil {
		return fmt.Errorf("ble enable notifications %s: %w", s.addr, err)
	}
	return nil
}

// Connected reports whether BlueZ still reports the link as up.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Disconnect closes the link once. Later calls return the first result.
func (s *Session) Disconnect() error {
	s.once.Do(func() {
		s.connected.Store(false)
		s.err = s.disconnect()
	})
	return s.err
}
