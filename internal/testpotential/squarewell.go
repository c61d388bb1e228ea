package testpotential

import (
	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// SquareWell is a periodic hard-core/square-well pair potential: a hard
// core below Diameter (reported as the overlap sentinel
// potential.OverlapThreshold), a constant attractive well of depth WellDepth between Diameter
// and Range, and zero beyond Range. It is the discretized, combining-rule-
// free sibling of LennardJones, built on the same grid for the same
// neighbor-enumeration reason.
type SquareWell struct {
	box      geometry.Box
	diameter float64
	rng      float64
	depth    float64
	g        *grid
}

// NewSquareWell builds a SquareWell potential over n particles of uniform
// diameter, attractive range rng (> diameter), and well depth depth
// (energy units, reported as -depth inside the well).
func NewSquareWell(box geometry.Box, diameter, rng, depth float64, initial [][]float64) *SquareWell {
	return &SquareWell{
		box:      box,
		diameter: diameter,
		rng:      rng,
		depth:    depth,
		g:        newGrid(box, rng, initial),
	}
}

func (sw *SquareWell) pairEnergy(pi, pj []float64) float64 {
	r := sw.box.Distance(pi, pj)
	switch {
	case r == 0:
		return 0
	case r < sw.diameter:
		return potential.OverlapThreshold
	case r < sw.rng:
		return -sw.depth
	default:
		return 0
	}
}

// ParticleEnergy is always zero: this potential has no external field.
func (sw *SquareWell) ParticleEnergy(i int, s potential.State) float64 { return 0 }

// PairEnergy returns the square-well energy between i at si and j at sj.
func (sw *SquareWell) PairEnergy(i int, si potential.State, j int, sj potential.State) float64 {
	return sw.pairEnergy(si.Pos, sj.Pos)
}

// Interactions lists every particle within Range of s.Pos.
func (sw *SquareWell) Interactions(i int, s potential.State, out []int) int {
	n := 0
	for _, j := range sw.g.candidates(s.Pos) {
		if j == i {
			continue
		}
		if sw.pairEnergy(s.Pos, sw.g.pos[j]) == 0 {
			continue
		}
		if n < len(out) {
			out[n] = j
		}
		n++
	}
	return n
}

// PostMove commits i's trial position into the grid.
func (sw *SquareWell) PostMove(i int, s potential.State) {
	sw.g.commit(i, s.Pos)
}

// Energy returns the total pairwise energy of the committed configuration.
func (sw *SquareWell) Energy() float64 {
	var total float64
	n := len(sw.g.pos)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			e := sw.pairEnergy(sw.g.pos[i], sw.g.pos[j])
			if potential.IsOverlap(e, potential.OverlapThreshold) {
				return e
			}
			total += e
		}
	}
	return total
}
