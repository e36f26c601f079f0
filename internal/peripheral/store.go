package peripheral

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Store holds the active configuration. Readers never block; Swap replaces
// the configuration atomically.
type Store struct {
	cur     atomic.Pointer[Config]
	version atomic.Uint64
}

// NewStore creates a store holding cfg, or the built-in table when cfg is nil.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = Default()
	}
	s := &Store{}
	s.cur.Store(cfg)
	return s
}

// Config returns the active configuration.
func (s *Store) Config() *Config {
	return s.cur.Load()
}

// Table returns the active peripheral table.
func (s *Store) Table() *domain.PeripheralTable {
	return s.cur.Load().Table
}

// Characteristic returns the active notify characteristic.
func (s *Store) Characteristic() uuid.UUID {
	return s.cur.Load().Characteristic
}

// Swap installs cfg and returns the new version number. A nil cfg is ignored.
func (s *Store) Swap(cfg *Config) uint64 {
	if cfg == nil {
		return s.version.Load()
	}
	s.cur.Store(cfg)
	return s.version.Add(1)
}

// Version returns how many times the configuration was swapped.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Reload loads path and swaps it in. On error the active table is kept.
func (s *Store) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	s.Swap(cfg)
	return nil
}
