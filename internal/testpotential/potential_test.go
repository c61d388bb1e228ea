package testpotential

import (
	"math"
	"testing"

	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

func TestLennardJonesPairEnergyZeroBeyondCutoff(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	species := []Species{{Epsilon: 1, Sigma: 1}}
	lj := NewLennardJones(box, species, []int{0, 0}, 2.5, [][]float64{{0, 0}, {4, 0}})

	e := lj.PairEnergy(0, potential.State{Pos: []float64{0, 0}}, 1, potential.State{Pos: []float64{4, 0}})
	if e != 0 {
		t.Errorf("expected 0 energy beyond cutoff, got %v", e)
	}
}

func TestLennardJonesMinimumIsNegativeEpsilon(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	species := []Species{{Epsilon: 2, Sigma: 1}}
	r := math.Pow(2, 1.0/6.0) // separation at the LJ minimum for sigma=1
	lj := NewLennardJones(box, species, []int{0, 0}, 5, [][]float64{{0, 0}, {r, 0}})

	e := lj.PairEnergy(0, potential.State{Pos: []float64{0, 0}}, 1, potential.State{Pos: []float64{r, 0}})
	if math.Abs(e-(-2)) > 1e-9 {
		t.Errorf("expected energy -epsilon=-2 at the LJ minimum, got %v", e)
	}
}

func TestLennardJonesInteractionsFindsNeighborAcrossPeriodicBoundary(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	species := []Species{{Epsilon: 1, Sigma: 1}}
	// 0.2 apart across the wraparound seam at x=0/x=10.
	lj := NewLennardJones(box, species, []int{0, 0}, 2.5, [][]float64{{0.1, 0}, {9.9, 0}})

	out := make([]int, 4)
	n := lj.Interactions(0, potential.State{Pos: []float64{0.1, 0}}, out)
	if n != 1 || out[0] != 1 {
		t.Fatalf("expected particle 1 as the sole neighbor across the periodic seam, got n=%d out=%v", n, out[:n])
	}
}

func TestLennardJonesEnergyMatchesPairwiseSum(t *testing.T) {
	box := geometry.NewBox([]float64{20, 20})
	species := []Species{{Epsilon: 1, Sigma: 1}}
	pos := [][]float64{{0, 0}, {1.1, 0}, {2.2, 0}}
	lj := NewLennardJones(box, species, []int{0, 0, 0}, 3, pos)

	var want float64
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			want += lj.PairEnergy(i, potential.State{Pos: pos[i]}, j, potential.State{Pos: pos[j]})
		}
	}
	if got := lj.Energy(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Energy()=%v, want %v", got, want)
	}
}

func TestSquareWellOverlapBelowDiameter(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	sw := NewSquareWell(box, 1.0, 1.1, 3.0, [][]float64{{5, 5}, {5.5, 5}})

	e := sw.PairEnergy(0, potential.State{Pos: []float64{5, 5}}, 1, potential.State{Pos: []float64{5.5, 5}})
	if !potential.IsOverlap(e, potential.OverlapThreshold) {
		t.Fatalf("expected overlap sentinel for separation 0.5 < diameter 1.0, got %v", e)
	}
}

func TestSquareWellAttractiveInsideRange(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	sw := NewSquareWell(box, 1.0, 1.1, 3.0, [][]float64{{5, 5}, {6.0, 5}})

	e := sw.PairEnergy(0, potential.State{Pos: []float64{5, 5}}, 1, potential.State{Pos: []float64{6.0, 5}})
	if e != -3.0 {
		t.Errorf("expected well depth -3, got %v", e)
	}
}

func TestSquareWellZeroBeyondRange(t *testing.T) {
	box := geometry.NewBox([]float64{10, 10})
	sw := NewSquareWell(box, 1.0, 1.1, 3.0, [][]float64{{5, 5}, {7, 5}})

	e := sw.PairEnergy(0, potential.State{Pos: []float64{5, 5}}, 1, potential.State{Pos: []float64{7, 5}})
	if e != 0 {
		t.Errorf("expected 0 beyond range, got %v", e)
	}
}
