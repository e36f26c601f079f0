package ports

import (
	"context"

	"github.com/bft-labs/lifepad/internal/domain"
)

// FrameSink pushes a grid to a display.
type FrameSink interface {
	// Present draws g. The grid must not be retained after Present returns.
	Present(ctx context.Context, g *domain.Grid) error
}
