package domain

// Step advances the grid by one generation of the standard life rules and
// returns a new grid. The input grid is not modified.
//
// A live cell with fewer than two or more than three live neighbours dies
// and loses its owner. A dead cell with exactly three live neighbours is
// born without an owner. Every other cell keeps its state and owner.
func Step(g *Grid) *Grid {
	next := &Grid{rows: g.rows, cols: g.cols, cells: make([]Cell, len(g.cells))}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			i := r*g.cols + c
			cur := g.cells[i]
			n := g.Neighbors(r, c)
			switch {
			case cur.Alive && (n < 2 || n > 3):
				// dies; zero value already clears the owner
			case !cur.Alive && n == 3:
				next.cells[i] = Cell{Alive: true}
			default:
				next.cells[i] = cur
			}
		}
	}
	return next
}
