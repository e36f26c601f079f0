package domain

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// Address is a normalised peripheral address (upper-case MAC, colon separated).
type Address string

// ParseAddress validates and normalises a MAC address string.
func ParseAddress(s string) (Address, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("parse address %q: not a 48-bit MAC", s)
	}
	return Address(strings.ToUpper(hw.String())), nil
}

// NormalizeAddress upper-cases an address reported by a radio stack so it can
// be compared against table entries. Unparseable input is returned upper-cased.
func NormalizeAddress(s string) Address {
	if a, err := ParseAddress(s); err == nil {
		return a
	}
	return Address(strings.ToUpper(strings.TrimSpace(s)))
}

// String returns the address text.
func (a Address) String() string { return string(a) }

// PeripheralTable is the static partition of known addresses into device kinds.
// It is immutable after construction.
type PeripheralTable struct {
	kinds map[Address]DeviceKind
}

// NewPeripheralTable builds a table from per-kind address lists. It fails if
// an address is malformed or appears under more than one kind.
func NewPeripheralTable(byKind map[DeviceKind][]string) (*PeripheralTable, error) {
	t := &PeripheralTable{kinds: make(map[Address]DeviceKind)}
	for _, kind := range []DeviceKind{KindRotator, KindSlider, KindSpawner} {
		for _, raw := range byKind[kind] {
			addr, err := ParseAddress(raw)
			if err != nil {
				return nil, err
			}
			if prev, ok := t.kinds[addr]; ok && prev != kind {
				return nil, fmt.Errorf("address %s listed as both %s and %s", addr, prev, kind)
			}
			t.kinds[addr] = kind
		}
	}
	for kind := range byKind {
		if kind != KindRotator && kind != KindSlider && kind != KindSpawner {
			return nil, fmt.Errorf("table entry for invalid kind %d", kind)
		}
	}
	return t, nil
}

// Kind returns the kind for addr. ok is false for unknown peripherals.
func (t *PeripheralTable) Kind(addr Address) (kind DeviceKind, ok bool) {
	if t == nil {
		return KindNone, false
	}
	kind, ok = t.kinds[addr]
	return kind, ok
}

// Known reports whether addr is part of the table.
func (t *PeripheralTable) Known(addr Address) bool {
	_, ok := t.Kind(addr)
	return ok
}

// Len returns the number of known addresses.
func (t *PeripheralTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.kinds)
}

// Addresses returns the known addresses of one kind, sorted.
func (t *PeripheralTable) Addresses(kind DeviceKind) []Address {
	var out []Address
	if t == nil {
		return out
	}
	for a, k := range t.kinds {
		if k == kind {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
