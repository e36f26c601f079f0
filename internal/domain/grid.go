package domain

// Cell is a single automaton cell.
type Cell struct {
	Alive bool
	Owner Owner
}

// Grid is a Rows x Cols matrix of cells stored row-major.
//
// A Grid is not safe for concurrent use. Only the tick loop mutates it.
type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// NewGrid creates an all-dead grid. Non-positive dimensions yield an empty grid.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether (row, col) is inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// At returns the cell at (row, col). Out-of-bounds positions read as dead.
func (g *Grid) At(row, col int) Cell {
	if !g.InBounds(row, col) {
		return Cell{}
	}
	return g.cells[row*g.cols+col]
}

// Alive reports whether the cell at (row, col) is alive.
func (g *Grid) Alive(row, col int) bool {
	return g.At(row, col).Alive
}

// Spawn makes the cell alive with the given owner. Out-of-bounds positions
// are ignored.
func (g *Grid) Spawn(row, col int, owner Owner) {
	if !g.InBounds(row, col) {
		return
	}
	g.cells[row*g.cols+col] = Cell{Alive: true, Owner: owner}
}

// Kill makes the cell dead and clears its owner. Out-of-bounds positions
// are ignored.
func (g *Grid) Kill(row, col int) {
	if !g.InBounds(row, col) {
		return
	}
	g.cells[row*g.cols+col] = Cell{}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{rows: g.rows, cols: g.cols, cells: make([]Cell, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Neighbors counts live cells in the eight-neighbourhood of (row, col).
// Borders are clamped: positions outside the grid do not contribute and do
// not wrap around.
func (g *Grid) Neighbors(row, col int) int {
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if g.Alive(row+dr, col+dc) {
				n++
			}
		}
	}
	return n
}

// Population summarises the live cells of a grid.
type Population struct {
	Alive   int
	Unowned int
	ByKind  map[DeviceKind]int
}

// Population counts live cells, split by owner kind.
func (g *Grid) Population() Population {
	p := Population{ByKind: make(map[DeviceKind]int)}
	for _, c := range g.cells {
		if !c.Alive {
			continue
		}
		p.Alive++
		if c.Owner.IsSet() {
			p.ByKind[c.Owner.Kind]++
		} else {
			p.Unowned++
		}
	}
	return p
}

// Consistent reports whether every owned cell is alive.
func (g *Grid) Consistent() bool {
	for _, c := range g.cells {
		if !c.Alive && c.Owner.IsSet() {
			return false
		}
	}
	return true
}
