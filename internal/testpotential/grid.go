// Package testpotential provides reference Potential implementations used
// by package tests and example programs: a periodic Lennard-Jones fluid and
// a hard-core/square-well pair potential. Both are built on the same
// periodic cell grid.
//
// Grounded on the teacher's spatial hash (physics.SpatialHash in
// spatial_hash.go): Insert/GetNeighbors's 27-cell sweep around an atom's
// grid cell, generalized here from a flat 3D volume to a periodic box of
// dimension 2 or 3, with cell indices wrapped modulo the per-axis cell
// count so neighbors across a periodic boundary are never missed.
package testpotential

import (
	"math"

	"github.com/foldvedic/vmmc-core/internal/geometry"
)

// grid buckets particle indices by periodic cell for fast neighbor
// candidate enumeration. It is rebuilt wholesale on every commit; the
// systems exercised by tests are small enough that this is not a
// bottleneck, unlike the protein-scale grids spatial_hash.go was built for.
type grid struct {
	box      geometry.Box
	cellSize float64
	numCells [3]int
	pos      [][]float64
	cells    map[[3]int][]int
}

func newGrid(box geometry.Box, cellSize float64, initial [][]float64) *grid {
	g := &grid{
		box:      box,
		cellSize: cellSize,
		pos:      make([][]float64, len(initial)),
	}
	for d := 0; d < box.Dim(); d++ {
		n := int(math.Floor(box.L[d] / cellSize))
		if n < 1 {
			n = 1
		}
		g.numCells[d] = n
	}
	for i, p := range initial {
		g.pos[i] = append([]float64(nil), p...)
	}
	g.rebuild()
	return g
}

func (g *grid) cellOf(p []float64) [3]int {
	var key [3]int
	for d := 0; d < g.box.Dim(); d++ {
		key[d] = wrapCell(int(math.Floor(p[d]/g.cellSize)), g.numCells[d])
	}
	return key
}

func (g *grid) rebuild() {
	g.cells = make(map[[3]int][]int, len(g.pos))
	for i, p := range g.pos {
		k := g.cellOf(p)
		g.cells[k] = append(g.cells[k], i)
	}
}

// commit records i's new committed position and re-buckets it.
func (g *grid) commit(i int, p []float64) {
	g.pos[i] = append(g.pos[i][:0], p...)
	g.rebuild()
}

// candidates returns, with no duplicates, every particle index in p's cell
// or one of its periodic neighbors.
func (g *grid) candidates(p []float64) []int {
	center := g.cellOf(p)
	dim := g.box.Dim()
	var span [3][2]int
	for d := 0; d < dim; d++ {
		span[d] = [2]int{-1, 1}
	}
	seen := make(map[int]bool)
	var out []int
	for dx := span[0][0]; dx <= span[0][1]; dx++ {
		for dy := span[1][0]; dy <= span[1][1]; dy++ {
			for dz := span[2][0]; dz <= span[2][1]; dz++ {
				key := [3]int{
					wrapCell(center[0]+dx, g.numCells[0]),
					wrapCell(center[1]+dy, g.numCells[1]),
					wrapCell(center[2]+dz, g.numCells[2]),
				}
				for _, idx := range g.cells[key] {
					if !seen[idx] {
						seen[idx] = true
						out = append(out, idx)
					}
				}
			}
		}
	}
	return out
}

func wrapCell(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
