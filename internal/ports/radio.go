package ports

import (
	"context"
	"time"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Radio is the discovery and connection primitive of a wireless stack.
//
// Implementations may only support one Scan at a time. A concurrent scan
// must fail with an error wrapping domain.ErrScanConflict.
type Radio interface {
	// Scan lists visible peripheral addresses, in the order the stack reported
	// them, scanning for at most timeout.
	Scan(ctx context.Context, timeout time.Duration) ([]domain.Address, error)

	// Connect opens a session to a previously scanned peripheral.
	Connect(ctx context.Context, addr domain.Address) (Session, error)
}

// Session is a live link to one peripheral.
type Session interface {
	// Subscribe registers handler for telemetry notifications. The handler is
	// called from a radio goroutine with the raw payload bytes.
	Subscribe(handler func(payload []byte)) error

	// Connected reports whether the transport still considers the link up.
	Connected() bool

	// Disconnect closes the link. It is safe to call more than once.
	Disconnect() error
}
