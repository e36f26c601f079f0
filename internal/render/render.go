// Package render turns a grid into pixels or text. It is shared by the
// framebuffer and terminal sinks.
package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Palette colours.
var (
	Background = color.RGBA{A: 0xff}
	Unowned    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	// kindColors is indexed by DeviceKind.
	kindColors = [...]color.RGBA{
		domain.KindRotator: {R: 0xff, G: 0xd7, A: 0xff},
		domain.KindSlider:  {G: 0x80, B: 0xff, A: 0xff},
		domain.KindSpawner: {R: 0xff, B: 0xa0, A: 0xff},
	}
)

// CellColor returns the display colour of a cell. Owned cells take the
// colour of the controller kind that owns them.
func CellColor(c domain.Cell) color.RGBA {
	if !c.Alive {
		return Background
	}
	k := c.Owner.Kind
	if c.Owner.IsSet() && k > domain.KindNone && int(k) < len(kindColors) {
		return kindColors[k]
	}
	return Unowned
}

// Draw paints g into dst with square cells of cellSize pixels anchored at the
// top-left corner. Pixels outside the grid are set to Background.
func Draw(dst *image.RGBA, g *domain.Grid, cellSize int) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := Background
			if cellSize > 0 {
				c = CellColor(g.At((y-b.Min.Y)/cellSize, (x-b.Min.X)/cellSize))
			}
			dst.SetRGBA(x, y, c)
		}
	}
}

// Rune returns the text glyph of a cell: '.' dead, '#' unowned, and the
// initial of the owning side, upper case for sliders and lower case for
// spawners.
func Rune(c domain.Cell) rune {
	if !c.Alive {
		return '.'
	}
	if !c.Owner.IsSet() {
		return '#'
	}
	r := rune(strings.ToUpper(c.Owner.Side.String())[0])
	if c.Owner.Kind == domain.KindSpawner {
		r += 'a' - 'A'
	}
	return r
}

// Text renders g one line per row.
func Text(g *domain.Grid) string {
	var sb strings.Builder
	sb.Grow((g.Cols() + 1) * g.Rows())
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			sb.WriteRune(Rune(g.At(r, c)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
