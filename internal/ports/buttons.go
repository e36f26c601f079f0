package ports

import (
	"context"

	"github.com/bft-labs/lifepad/internal/domain"
)

// ButtonSource samples the direction buttons.
type ButtonSource interface {
	// Read returns the current button snapshot. It is called once per tick
	// from the foreground loop and must not block for longer than a sample.
	Read(ctx context.Context) (domain.ButtonState, error)
}
