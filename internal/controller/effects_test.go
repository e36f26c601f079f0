package controller

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lifepad/internal/domain"
)

func fullGrid(rows, cols int) *domain.Grid {
	g := domain.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Spawn(r, c, domain.Owner{Kind: domain.KindSlider, Side: domain.Up})
		}
	}
	return g
}

func TestSweep_NinetyDegrees(t *testing.T) {
	g := fullGrid(16, 18)

	points := Sweep(g, 9)

	require.NotEmpty(t, points)
	assert.Equal(t, Point{X: 9, Y: 8}, points[0])
	assert.Equal(t, Point{X: 9, Y: 16}, points[len(points)-1])
	for row := 8; row < 16; row++ {
		assert.Equal(t, domain.Cell{}, g.At(row, 9), "row %d on the sweep should be dead", row)
	}
	assert.True(t, g.Alive(7, 9), "cells above the centre are untouched")
	assert.True(t, g.Alive(8, 10), "cells beside the line are untouched")
	assert.Equal(t, 16*18-8, g.Population().Alive)
	assert.True(t, g.Consistent())
}

func TestSweep_AngleWraps(t *testing.T) {
	a := fullGrid(16, 18)
	b := fullGrid(16, 18)

	Sweep(a, 3)
	Sweep(b, 39)

	assert.Equal(t, a, b)
}

func TestSweep_ZeroDegrees(t *testing.T) {
	g := fullGrid(16, 18)

	points := Sweep(g, 0)

	assert.Len(t, points, 9)
	for col := 9; col <= 17; col++ {
		assert.False(t, g.Alive(8, col))
	}
}

func TestSlide(t *testing.T) {
	tests := []struct {
		name  string
		dir   domain.Direction
		slide int
		row   int
		col   int
	}{
		{"left full scale fills last row", domain.Left, 255, 15, -1},
		{"right zero fills first row", domain.Right, 0, 0, -1},
		{"up mid scale fills a column", domain.Up, 128, -1, 8},
		{"down clamps above range", domain.Down, 400, -1, 17},
		{"left clamps below range", domain.Left, -20, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGrid(16, 18)
			Slide(g, tt.dir, tt.slide)

			want := domain.Owner{Kind: domain.KindSlider, Side: tt.dir}
			if tt.row >= 0 {
				for col := 0; col < 18; col++ {
					assert.Equal(t, want, g.At(tt.row, col).Owner)
				}
				assert.Equal(t, 18, g.Population().Alive)
			} else {
				for row := 0; row < 16; row++ {
					assert.Equal(t, want, g.At(row, tt.col).Owner)
				}
				assert.Equal(t, 16, g.Population().Alive)
			}
		})
	}
}

func TestSlideIndex(t *testing.T) {
	assert.Equal(t, 15, SlideIndex(255, 16))
	assert.Equal(t, 0, SlideIndex(0, 16))
	assert.Equal(t, 7, SlideIndex(127, 16))
	assert.Equal(t, 0, SlideIndex(100, 0))
}

func TestApply_SpawnerDeterministic(t *testing.T) {
	run := func() (*domain.Grid, *State) {
		g := domain.NewGrid(16, 18)
		s := NewState(domain.Right)
		s.Bind("F0:9E:9E:B4:00:DE", domain.KindSpawner)
		s.SetReading(domain.KindSpawner, 255)
		NewEffects(10, 0.7, rand.New(rand.NewSource(42))).Apply(g, s)
		return g, s
	}

	g1, s1 := run()
	g2, _ := run()

	assert.Equal(t, g1, g2, "same seed gives the same cluster")
	assert.Equal(t, 0, s1.Snapshot().Trigger, "trigger resets after firing")

	pop := g1.Population()
	assert.Equal(t, pop.Alive, pop.ByKind[domain.KindSpawner])
	assert.InDelta(t, 70, pop.Alive, 15, "fill density is close to seventy percent")

	minRow, maxRow, minCol, maxCol := 16, -1, 18, -1
	for r := 0; r < 16; r++ {
		for c := 0; c < 18; c++ {
			if !g1.Alive(r, c) {
				continue
			}
			assert.Equal(t, domain.Owner{Kind: domain.KindSpawner, Side: domain.Right}, g1.At(r, c).Owner)
			minRow, maxRow = min(minRow, r), max(maxRow, r)
			minCol, maxCol = min(minCol, c), max(maxCol, c)
		}
	}
	assert.Less(t, maxRow-minRow, 10)
	assert.Less(t, maxCol-minCol, 10)
}

func TestApply_SpawnerOnlyFiresOnTrigger(t *testing.T) {
	g := domain.NewGrid(16, 18)
	s := NewState(domain.Up)
	s.Bind("F0:9E:9E:B4:00:DE", domain.KindSpawner)
	e := NewEffects(10, 0.7, rand.New(rand.NewSource(1)))

	s.SetReading(domain.KindSpawner, 7)
	e.Apply(g, s)
	assert.Equal(t, 0, g.Population().Alive)
	assert.Equal(t, 7, s.Snapshot().Trigger)

	s.SetReading(domain.KindSpawner, 1)
	e.Apply(g, s)
	assert.Positive(t, g.Population().Alive)

	before := g.Clone()
	e.Apply(g, s)
	assert.Equal(t, before, g, "trigger was consumed by the previous tick")
}

func TestSpawn_ClippedToSmallGrid(t *testing.T) {
	g := domain.NewGrid(4, 6)
	e := NewEffects(10, 1, rand.New(rand.NewSource(3)))

	e.Spawn(g, domain.Down)

	assert.Equal(t, 24, g.Population().Alive)
}

func TestApply_UnboundStateHasNoEffect(t *testing.T) {
	g := domain.NewGrid(16, 18)
	s := NewState(domain.Left)
	s.SetReading(domain.KindSlider, 255)

	NewEffects(0, 0, nil).Apply(g, s)

	assert.Equal(t, 0, g.Population().Alive)
}

func TestApplyAll_OwnerImpliesAlive(t *testing.T) {
	g := domain.NewGrid(16, 18)
	reg := NewRegistry()
	reg.Create(domain.Up).Bind("A", domain.KindSpawner)
	reg.Create(domain.Left).Bind("B", domain.KindSlider)
	reg.Create(domain.Down).Bind("C", domain.KindRotator)
	e := NewEffects(10, 0.7, rand.New(rand.NewSource(9)))

	for i := 0; i < 50; i++ {
		reg.Update(domain.Up, domain.KindSpawner, 255)
		reg.Update(domain.Left, domain.KindSlider, i*5)
		reg.Update(domain.Down, domain.KindRotator, i)
		e.ApplyAll(g, reg.Active())
		require.True(t, g.Consistent())
		g = domain.Step(g)
		require.True(t, g.Consistent())
	}
}
