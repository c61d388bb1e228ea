package cluster

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// fakePotential is a hand-rolled Potential for exercising the growth state
// machine without a real force field. energy classifies each call by
// whether i and/or j have moved from their recorded original position
// (component 0 differs), which is enough to script the forward/reverse
// probabilities a test wants.
type fakePotential struct {
	orig          map[int]potential.State
	neighbors     map[int][]int
	energy        func(iMoved, jMoved bool) float64
	interactCount map[int]int // override returned count, for capacity test
	postMoveCalls []int
}

func (f *fakePotential) ParticleEnergy(i int, s potential.State) float64 { return 0 }

func (f *fakePotential) PairEnergy(i int, si potential.State, j int, sj potential.State) float64 {
	iMoved := si.Pos[0] != f.orig[i].Pos[0]
	jMoved := sj.Pos[0] != f.orig[j].Pos[0]
	return f.energy(iMoved, jMoved)
}

func (f *fakePotential) Interactions(i int, s potential.State, out []int) int {
	if n, ok := f.interactCount[i]; ok {
		return n
	}
	return copy(out, f.neighbors[i])
}

func (f *fakePotential) PostMove(i int, s potential.State) {
	f.postMoveCalls = append(f.postMoveCalls, i)
}

type fakeParticles struct {
	states map[int]potential.State
}

func (p fakeParticles) State(i int) potential.State { return p.states[i] }

type constDraw float64

func (c constDraw) Float64() float64 { return float64(c) }

func twoParticleSetup() (map[int]potential.State, Transform) {
	orig := map[int]potential.State{
		0: {Pos: []float64{0}, Orient: []float64{1}},
		1: {Pos: []float64{10}, Orient: []float64{1}},
	}
	tf := Transform{
		Box:  geometry.NewBox([]float64{1000}),
		Kind: Translate,
		T:    geometry.Translation{Delta: []float64{5}},
	}
	return orig, tf
}

func TestGrowEarlyRejectOnZeroReverseProbability(t *testing.T) {
	orig, tf := twoParticleSetup()
	fp := &fakePotential{
		orig:      orig,
		neighbors: map[int][]int{0: {1}},
		energy: func(iMoved, jMoved bool) float64 {
			switch {
			case !iMoved && !jMoved:
				return 0
			case iMoved && !jMoved:
				return 100 // strong pull to link (pForward ~ 1)
			default: // both moved: no change relative to the forward state
				return 100 // pReverse = 1 - exp(0) = 0 exactly
			}
		},
	}
	b := New(fp, 8, 1e10)
	result, err := b.Grow(0, 2, fakeParticles{states: orig}, tf, constDraw(0))
	if err != nil {
		t.Fatalf("Grow returned error: %v", err)
	}
	if result.Outcome != EarlyReject {
		t.Fatalf("expected EarlyReject, got %v", result.Outcome)
	}
}

func TestGrowCleanNoFrustration(t *testing.T) {
	orig, tf := twoParticleSetup()
	fp := &fakePotential{
		orig:      orig,
		neighbors: map[int][]int{0: {1}},
		energy: func(iMoved, jMoved bool) float64 {
			switch {
			case !iMoved && !jMoved:
				return 0
			case iMoved && !jMoved:
				return 2 // pForward = 1-exp(-2) ~= 0.8647
			default:
				return 5 // pReverse = 1-exp(-3) ~= 0.9502 >= pForward
			}
		},
	}
	b := New(fp, 8, 1e10)
	result, err := b.Grow(0, 2, fakeParticles{states: orig}, tf, constDraw(0))
	if err != nil {
		t.Fatalf("Grow returned error: %v", err)
	}
	if result.Outcome != Clean {
		t.Fatalf("expected Clean, got %v (nFrustrated=%d)", result.Outcome, result.NFrustrated)
	}
	if result.Weight != 1 {
		t.Errorf("expected weight 1 for a clean growth, got %v", result.Weight)
	}
	if len(result.Members) != 2 {
		t.Errorf("expected both particles recruited, got %v", result.Members)
	}
}

func TestGrowFrustratedAccumulatesWeight(t *testing.T) {
	orig, tf := twoParticleSetup()
	// 0 < pReverse < pForward so the link merely gets discounted rather
	// than triggering an outright EarlyReject.
	fp := &fakePotential{
		orig:      orig,
		neighbors: map[int][]int{0: {1}},
		energy: func(iMoved, jMoved bool) float64 {
			switch {
			case !iMoved && !jMoved:
				return 0
			case iMoved && !jMoved:
				return 3 // pForward = 1-exp(-3) ~= 0.9502
			default:
				return 3.5 // pReverse = 1-exp(-0.5) ~= 0.3935 < pForward
			}
		},
	}

	b := New(fp, 8, 1e10)
	result, err := b.Grow(0, 2, fakeParticles{states: orig}, tf, constDraw(0))
	require.NoError(t, err)
	require.Equal(t, Frustrated, result.Outcome)
	require.Equal(t, 1, result.NFrustrated)
	require.Greater(t, result.Weight, 0.0)
	require.Less(t, result.Weight, 1.0)
	pForward := 1 - math.Exp(-3)
	pReverse := 1 - math.Exp(-0.5)
	require.InDelta(t, pReverse/pForward, result.Weight, 1e-9)
}

func TestGrowRecruitsTransitively(t *testing.T) {
	orig := map[int]potential.State{
		0: {Pos: []float64{0}, Orient: []float64{1}},
		1: {Pos: []float64{10}, Orient: []float64{1}},
		2: {Pos: []float64{20}, Orient: []float64{1}},
	}
	tf := Transform{
		Box:  geometry.NewBox([]float64{1000}),
		Kind: Translate,
		T:    geometry.Translation{Delta: []float64{5}},
	}
	fp := &fakePotential{
		orig:      orig,
		neighbors: map[int][]int{0: {1}, 1: {0, 2}, 2: {1}},
		energy: func(iMoved, jMoved bool) float64 {
			switch {
			case !iMoved && !jMoved:
				return 0
			case iMoved && jMoved:
				return 200 // pReverse = 1-exp(-(200-100)) ~= 1, not below pForward
			default:
				return 100 // always link (pForward ~= 1)
			}
		},
	}
	b := New(fp, 8, 1e10)
	result, err := b.Grow(0, 3, fakeParticles{states: orig}, tf, constDraw(0))
	if err != nil {
		t.Fatalf("Grow returned error: %v", err)
	}
	if result.Outcome == EarlyReject {
		t.Fatalf("did not expect EarlyReject")
	}
	if len(result.Members) != 3 {
		t.Fatalf("expected all 3 particles recruited transitively, got %v", result.Members)
	}
}

func TestGrowDoesNotReattemptSameDirectedLink(t *testing.T) {
	orig, tf := twoParticleSetup()
	calls := 0
	fp := &fakePotential{
		orig:      orig,
		neighbors: map[int][]int{0: {1}, 1: {0}},
		energy: func(iMoved, jMoved bool) float64 {
			calls++
			if !iMoved && !jMoved {
				return 0
			}
			return 3
		},
	}
	b := New(fp, 8, 1e10)
	_, err := b.Grow(0, 2, fakeParticles{states: orig}, tf, constDraw(0))
	if err != nil {
		t.Fatalf("Grow returned error: %v", err)
	}
	// 0->1 is attempted once (eOld, eForward, eBoth: 3 calls). Its both-moved
	// energy equals the forward energy, so pReverse = 0 and growth stops with
	// EarlyReject before 1 joins; no pair is evaluated a second time.
	if calls > 4 {
		t.Errorf("expected a small bounded number of PairEnergy calls, got %d", calls)
	}
}

func TestGrowCapacityExceeded(t *testing.T) {
	orig, tf := twoParticleSetup()
	fp := &fakePotential{
		orig:          orig,
		neighbors:     map[int][]int{0: {1}},
		interactCount: map[int]int{0: 5},
		energy:        func(iMoved, jMoved bool) float64 { return 0 },
	}
	b := New(fp, 2, 1e10)
	_, err := b.Grow(0, 2, fakeParticles{states: orig}, tf, constDraw(0))
	if err == nil {
		t.Fatal("expected capacity error")
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected errors.Is(err, ErrCapacityExceeded), got %v", err)
	}
}
