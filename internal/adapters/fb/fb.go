// Package fb presents the grid on a Linux framebuffer device such as the
// SPI panel exposed as /dev/fb1.
package fb

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/bft-labs/lifepad/internal/domain"
	"github.com/bft-labs/lifepad/internal/render"
)

// Defaults for the 320x240 panel.
const (
	DefaultDevice   = "/dev/fb1"
	DefaultWidth    = 320
	DefaultHeight   = 240
	DefaultCellSize = 15
)

// Config describes the framebuffer geometry. Pixels are 32 bits, stored
// as blue, green, red, alpha.
type Config struct {
	Device   string
	Width    int
	Height   int
	CellSize int
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.CellSize == 0 {
		c.CellSize = DefaultCellSize
	}
}

type writerAtCloser interface {
	io.WriterAt
	io.Closer
}

// Sink draws frames into a framebuffer device.
type Sink struct {
	dev   writerAtCloser
	frame *image.RGBA
	buf   []byte
	cell  int
}

// Open opens the framebuffer device for writing.
func Open(cfg Config) (*Sink, error) {
	cfg.SetDefaults()
	f, err := os.OpenFile(cfg.Device, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer %s: %w", cfg.Device, err)
	}
	return newSink(f, cfg), nil
}

func newSink(dev writerAtCloser, cfg Config) *Sink {
	return &Sink{
		dev:   dev,
		frame: image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		buf:   make([]byte, cfg.Width*cfg.Height*4),
		cell:  cfg.CellSize,
	}
}

// Present renders g and writes the whole frame at offset zero.
func (s *Sink) Present(ctx context.Context, g *domain.Grid) error {
	render.Draw(s.frame, g, s.cell)
	pix := s.frame.Pix
	for i := 0; i < len(pix); i += 4 {
		s.buf[i] = pix[i+2]
		s.buf[i+1] = pix[i+1]
		s.buf[i+2] = pix[i]
		s.buf[i+3] = pix[i+3]
	}
	if _, err := s.dev.WriteAt(s.buf, 0); err != nil {
		return fmt.Errorf("write framebuffer: %w", err)
	}
	return nil
}

// Close blanks the display and closes the device.
func (s *Sink) Close() error {
	clear(s.buf)
	_, werr := s.dev.WriteAt(s.buf, 0)
	if err := s.dev.Close(); err != nil {
		return err
	}
	return werr
}
