package controller

// Point is a grid position. X is the column and Y the row.
type Point struct {
	X, Y int
}

// Line returns every cell on the integer line from (x0, y0) to (x1, y1),
// endpoints included, using Bresenham's algorithm.
func Line(x0, y0, x1, y1 int) []Point {
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx - dy

	points := make([]Point, 0, max(dx, dy)+1)
	for {
		points = append(points, Point{X: x0, Y: y0})
		if x0 == x1 && y0 == y1 {
			return points
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
