package cloud

import "math"

// grid is a coarse occupancy map with a summed-area table, so checking
// whether a box is free costs four lookups.
type grid struct {
	cell       int
	cols, rows int
	occ        []bool
	sum        []int // (cols+1)*(rows+1)
}

func newGrid(width, height, cell int) *grid {
	cols := (width + cell - 1) / cell
	rows := (height + cell - 1) / cell
	return &grid{
		cell: cell,
		cols: cols,
		rows: rows,
		occ:  make([]bool, cols*rows),
		sum:  make([]int, (cols+1)*(rows+1)),
	}
}

// span converts pixel bounds to a half-open cell range covering them.
func (g *grid) span(x0, y0, x1, y1 float64) (c0, r0, c1, r1 int) {
	c0 = int(math.Floor(x0 / float64(g.cell)))
	r0 = int(math.Floor(y0 / float64(g.cell)))
	c1 = int(math.Ceil(x1 / float64(g.cell)))
	r1 = int(math.Ceil(y1 / float64(g.cell)))
	return
}

// free reports whether the box lies inside the canvas and touches no
// occupied cell.
func (g *grid) free(x0, y0, x1, y1 float64) bool {
	if x0 < 0 || y0 < 0 {
		return false
	}
	c0, r0, c1, r1 := g.span(x0, y0, x1, y1)
	if c1 > g.cols || r1 > g.rows || c0 >= c1 || r0 >= r1 {
		return false
	}
	w := g.cols + 1
	total := g.sum[r1*w+c1] - g.sum[r0*w+c1] - g.sum[r1*w+c0] + g.sum[r0*w+c0]
	return total == 0
}

func (g *grid) fill(x0, y0, x1, y1 float64) {
	c0, r0, c1, r1 := g.span(x0, y0, x1, y1)
	c0, r0 = max(c0, 0), max(r0, 0)
	c1, r1 = min(c1, g.cols), min(r1, g.rows)

	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			g.occ[r*g.cols+c] = true
		}
	}
	g.rebuild()
}

func (g *grid) rebuild() {
	w := g.cols + 1
	for r := 1; r <= g.rows; r++ {
		rowSum := 0
		for c := 1; c <= g.cols; c++ {
			if g.occ[(r-1)*g.cols+(c-1)] {
				rowSum++
			}
			g.sum[r*w+c] = g.sum[(r-1)*w+c] + rowSum
		}
	}
}
