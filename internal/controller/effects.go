package controller

import (
	"math"
	"math/rand"

	"github.com/bft-labs/lifepad/internal/domain"
)

// Default effect parameters.
const (
	DefaultClusterSize  = 10
	DefaultSpawnDensity = 0.7
)

// Effects applies controller states to a grid.
//
// Effects is used only from the tick loop and is not safe for concurrent use
// because it owns the random source.
type Effects struct {
	clusterSize int
	density     float64
	rng         *rand.Rand
}

// NewEffects creates an effect applier. Non-positive parameters fall back to
// the defaults. A nil rng is replaced by a time-seeded source.
func NewEffects(clusterSize int, density float64, rng *rand.Rand) *Effects {
	if clusterSize <= 0 {
		clusterSize = DefaultClusterSize
	}
	if density <= 0 || density > 1 {
		density = DefaultSpawnDensity
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Effects{clusterSize: clusterSize, density: density, rng: rng}
}

// ApplyAll applies the effect of every active state in direction order.
func (e *Effects) ApplyAll(g *domain.Grid, states []*State) {
	for _, s := range states {
		e.Apply(g, s)
	}
}

// Apply mutates g according to the kind bound to s. Unbound states have no
// effect.
func (e *Effects) Apply(g *domain.Grid, s *State) {
	snap := s.Snapshot()
	switch snap.Kind {
	case domain.KindRotator:
		Sweep(g, snap.Counter)
	case domain.KindSlider:
		Slide(g, snap.Direction, snap.Slide)
	case domain.KindSpawner:
		if s.ConsumeTrigger() {
			e.Spawn(g, snap.Direction)
		}
	}
}

// Sweep kills every cell on the line from the grid centre towards the angle
// counter*10 degrees, returning the rasterised points.
func Sweep(g *domain.Grid, counter int) []Point {
	angle := (counter * 10) % 360
	if angle < 0 {
		angle += 360
	}
	rad := float64(angle) * math.Pi / 180

	cx, cy := g.Cols()/2, g.Rows()/2
	radius := float64(min(g.Rows(), g.Cols()) / 2)
	ex := cx + int(radius*math.Cos(rad))
	ey := cy + int(radius*math.Sin(rad))

	points := Line(cx, cy, ex, ey)
	for _, p := range points {
		g.Kill(p.Y, p.X)
	}
	return points
}

// SlideIndex maps a slide reading to an index in [0, n-1].
func SlideIndex(slide, n int) int {
	if n <= 0 {
		return 0
	}
	slide = max(0, min(slide, 255))
	return int(float64(slide) / 255 * float64(n-1))
}

// Slide fills a full row (left/right) or column (up/down) selected by the
// slide reading, owned by a slider on dir.
func Slide(g *domain.Grid, dir domain.Direction, slide int) {
	owner := domain.Owner{Kind: domain.KindSlider, Side: dir}
	if dir.Horizontal() {
		row := SlideIndex(slide, g.Rows())
		for col := 0; col < g.Cols(); col++ {
			g.Spawn(row, col, owner)
		}
		return
	}
	col := SlideIndex(slide, g.Cols())
	for row := 0; row < g.Rows(); row++ {
		g.Spawn(row, col, owner)
	}
}

// Spawn stamps a square cluster at a random origin. The cluster is clipped
// when the grid is smaller than the cluster size.
func (e *Effects) Spawn(g *domain.Grid, dir domain.Direction) {
	owner := domain.Owner{Kind: domain.KindSpawner, Side: dir}
	row0 := e.origin(g.Rows())
	col0 := e.origin(g.Cols())
	for i := 0; i < e.clusterSize; i++ {
		for j := 0; j < e.clusterSize; j++ {
			if e.rng.Float64() < e.density {
				g.Spawn(row0+i, col0+j, owner)
			}
		}
	}
}

func (e *Effects) origin(extent int) int {
	span := extent - e.clusterSize + 1
	if span <= 1 {
		return 0
	}
	return e.rng.Intn(span)
}
