package testpotential

import (
	"math"

	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// Species holds one particle type's Lennard-Jones parameters.
type Species struct {
	Epsilon float64
	Sigma   float64
}

// LennardJones is a periodic pair potential with Lorentz-Berthelot
// combining rules, grounded on CalculateLennardJonesEnergy in the
// teacher's force_field.go: ε_ij = sqrt(ε_i·ε_j), σ_ij = (σ_i+σ_j)/2,
// E = 4ε((σ/r)^12 - (σ/r)^6) for r below a cutoff, 0 beyond it.
type LennardJones struct {
	box     geometry.Box
	cutoff  float64
	species []Species
	kind    []int
	g       *grid
}

// NewLennardJones builds a LennardJones potential over n particles, each at
// initial[i] with species[kind[i]]'s parameters.
func NewLennardJones(box geometry.Box, species []Species, kind []int, cutoff float64, initial [][]float64) *LennardJones {
	return &LennardJones{
		box:     box,
		cutoff:  cutoff,
		species: species,
		kind:    kind,
		g:       newGrid(box, cutoff, initial),
	}
}

func (lj *LennardJones) pairEnergy(ti int, pi []float64, tj int, pj []float64) float64 {
	r := lj.box.Distance(pi, pj)
	if r > lj.cutoff || r == 0 {
		return 0
	}
	si, sj := lj.species[ti], lj.species[tj]
	epsilon := math.Sqrt(si.Epsilon * sj.Epsilon)
	sigma := (si.Sigma + sj.Sigma) / 2
	sr6 := math.Pow(sigma/r, 6)
	sr12 := sr6 * sr6
	return 4 * epsilon * (sr12 - sr6)
}

// ParticleEnergy is always zero: this potential has no external field.
func (lj *LennardJones) ParticleEnergy(i int, s potential.State) float64 { return 0 }

// PairEnergy returns the Lennard-Jones energy between i at si and j at sj.
func (lj *LennardJones) PairEnergy(i int, si potential.State, j int, sj potential.State) float64 {
	return lj.pairEnergy(lj.kind[i], si.Pos, lj.kind[j], sj.Pos)
}

// Interactions lists every particle within the cutoff of s.Pos, using the
// grid to avoid an O(n) scan.
func (lj *LennardJones) Interactions(i int, s potential.State, out []int) int {
	n := 0
	for _, j := range lj.g.candidates(s.Pos) {
		if j == i {
			continue
		}
		if lj.pairEnergy(lj.kind[i], s.Pos, lj.kind[j], lj.g.pos[j]) == 0 {
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
func (lj *LennardJones) PostMove(i int, s potential.State) {
	lj.g.commit(i, s.Pos)
}

// Energy returns the total pairwise energy of the committed configuration,
// for comparing against a simulation's incrementally-tracked running total.
func (lj *LennardJones) Energy() float64 {
	var total float64
	n := len(lj.g.pos)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += lj.pairEnergy(lj.kind[i], lj.g.pos[i], lj.kind[j], lj.g.pos[j])
		}
	}
	return total
}
