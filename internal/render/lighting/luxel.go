package lighting

import (
	"container/heap"
	"image"
	"image/color"
	"math"
)

// Luxel is a single sub-tile lighting cell.
type Luxel struct {
	Blocked bool        // Occluder: receives light but does not pass it on
	Level   float64     // Light intensity in [0, 1]
	Tint    color.NRGBA // Color of the strongest light reaching the cell
}

// LuxelGrid is a 2D array of luxels in window-relative coordinates.
type LuxelGrid struct {
	width, height int
	cells         []Luxel

	// Per-propagation scratch state. dist is only valid where stamp == gen,
	// which avoids clearing the whole grid for every light.
	dist  []float64
	stamp []uint32
	gen   uint32
	open  luxelQueue
}

// NewLuxelGrid creates a grid of the given size.
func NewLuxelGrid(width, height int) *LuxelGrid {
	g := &LuxelGrid{}
	g.Resize(width, height)
	return g
}

// Resize reallocates the grid and resets every cell.
// Non-positive dimensions degrade to an empty 0x0 grid.
func (g *LuxelGrid) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		width, height = 0, 0
	}
	n := width * height
	g.width, g.height = width, height
	if cap(g.cells) >= n {
		g.cells = g.cells[:n]
		for i := range g.cells {
			g.cells[i] = Luxel{}
		}
	} else {
		g.cells = make([]Luxel, n)
		g.dist = make([]float64, n)
		g.stamp = make([]uint32, n)
		g.gen = 0
	}
	g.dist = g.dist[:n]
	g.stamp = g.stamp[:n]
}

// Size returns the grid dimensions in luxels.
func (g *LuxelGrid) Size() (width, height int) {
	return g.width, g.height
}

// InBounds reports whether (x, y) is inside the grid.
func (g *LuxelGrid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// At returns the luxel at (x, y).
func (g *LuxelGrid) At(x, y int) (Luxel, bool) {
	if !g.InBounds(x, y) {
		return Luxel{}, false
	}
	return g.cells[y*g.width+x], true
}

// Level returns the light level at (x, y); 0 outside the grid.
func (g *LuxelGrid) Level(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.cells[y*g.width+x].Level
}

// Blocked reports whether (x, y) occludes light. Outside the grid counts as blocked.
func (g *LuxelGrid) Blocked(x, y int) bool {
	if !g.InBounds(x, y) {
		return true
	}
	return g.cells[y*g.width+x].Blocked
}

// SetBlocked marks a luxel as an occluder.
func (g *LuxelGrid) SetBlocked(x, y int, blocked bool) {
	if g.InBounds(x, y) {
		g.cells[y*g.width+x].Blocked = blocked
	}
}

// FillBlocked marks every luxel of r (clipped to the grid).
func (g *LuxelGrid) FillBlocked(r image.Rectangle, blocked bool) {
	r = r.Intersect(image.Rect(0, 0, g.width, g.height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := g.cells[y*g.width : (y+1)*g.width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x].Blocked = blocked
		}
	}
}

// ClearLight resets light levels and tints, keeping occluders.
func (g *LuxelGrid) ClearLight() {
	for i := range g.cells {
		g.cells[i].Level = 0
		g.cells[i].Tint = color.NRGBA{}
	}
}

// neighbours in 8 directions; diagonals cost sqrt(2).
var neighbours = [8]struct {
	dx, dy int
	cost   float64
}{
	{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
	{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

// Propagate floods one light outward from its seed luxels.
// Intensity falls off linearly with path distance (1 at the seeds, 0 at
// radius luxels). Blocked luxels are lit but stop the flood, and a diagonal
// step cannot squeeze between two blocked orthogonal neighbours.
// Each cell keeps the maximum intensity over all propagated lights.
func (g *LuxelGrid) Propagate(seeds []image.Point, radius float64, tint color.NRGBA) {
	if radius <= 0 || len(g.cells) == 0 {
		return
	}
	g.nextGeneration()
	g.open = g.open[:0]

	for _, s := range seeds {
		if !g.InBounds(s.X, s.Y) {
			continue
		}
		idx := s.Y*g.width + s.X
		if g.stamp[idx] == g.gen {
			continue
		}
		g.stamp[idx] = g.gen
		g.dist[idx] = 0
		heap.Push(&g.open, queued{idx: idx, dist: 0, seed: true})
	}

	for g.open.Len() > 0 {
		cur := heap.Pop(&g.open).(queued)
		if cur.dist > g.dist[cur.idx] {
			continue
		}
		g.light(cur.idx, 1-cur.dist/radius, tint)

		cell := g.cells[cur.idx]
		if cell.Blocked && !cur.seed {
			continue
		}

		x, y := cur.idx%g.width, cur.idx/g.width
		for _, n := range neighbours {
			nx, ny := x+n.dx, y+n.dy
			if !g.InBounds(nx, ny) {
				continue
			}
			if n.dx != 0 && n.dy != 0 && g.Blocked(x+n.dx, y) && g.Blocked(x, y+n.dy) {
				continue
			}
			nd := cur.dist + n.cost
			if nd >= radius {
				continue
			}
			nidx := ny*g.width + nx
			if g.stamp[nidx] == g.gen && g.dist[nidx] <= nd {
				continue
			}
			g.stamp[nidx] = g.gen
			g.dist[nidx] = nd
			heap.Push(&g.open, queued{idx: nidx, dist: nd})
		}
	}
}

func (g *LuxelGrid) light(idx int, level float64, tint color.NRGBA) {
	if level <= 0 {
		return
	}
	if level > 1 {
		level = 1
	}
	if level > g.cells[idx].Level {
		g.cells[idx].Level = level
		g.cells[idx].Tint = tint
	}
}

func (g *LuxelGrid) nextGeneration() {
	g.gen++
	if g.gen == 0 {
		// Wrapped around: old stamps could alias the new generation.
		for i := range g.stamp {
			g.stamp[i] = 0
		}
		g.gen = 1
	}
}

type queued struct {
	idx  int
	dist float64
	seed bool
}

// luxelQueue is a min-heap on path distance.
type luxelQueue []queued

func (q luxelQueue) Len() int           { return len(q) }
func (q luxelQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q luxelQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *luxelQueue) Push(x any) { *q = append(*q, x.(queued)) }

func (q *luxelQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
