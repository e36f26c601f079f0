package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrid_OutOfBoundsIsIgnored(t *testing.T) {
	g := NewGrid(3, 3)

	g.Spawn(-1, 0, NoOwner)
	g.Spawn(3, 3, NoOwner)
	g.Kill(10, 10)

	assert.Equal(t, 0, g.Population().Alive)
	assert.False(t, g.Alive(-1, -1))
}

func TestGrid_KillClearsOwner(t *testing.T) {
	g := NewGrid(2, 2)
	g.Spawn(1, 1, Owner{Kind: KindSlider, Side: Right})

	g.Kill(1, 1)

	assert.Equal(t, Cell{}, g.At(1, 1))
	assert.True(t, g.Consistent())
}

func TestGrid_Population(t *testing.T) {
	g := NewGrid(3, 3)
	g.Spawn(0, 0, Owner{Kind: KindSlider, Side: Left})
	g.Spawn(0, 1, Owner{Kind: KindSlider, Side: Right})
	g.Spawn(1, 1, Owner{Kind: KindSpawner, Side: Up})
	g.Spawn(2, 2, NoOwner)

	p := g.Population()

	assert.Equal(t, 4, p.Alive)
	assert.Equal(t, 1, p.Unowned)
	assert.Equal(t, 2, p.ByKind[KindSlider])
	assert.Equal(t, 1, p.ByKind[KindSpawner])
}

func TestNewGrid_NegativeDimensions(t *testing.T) {
	g := NewGrid(-2, 5)

	assert.Equal(t, 0, g.Rows())
	assert.Equal(t, 5, g.Cols())
	assert.Equal(t, 0, g.Population().Alive)
}
