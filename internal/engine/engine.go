// Package engine implements the VMMC MoveEngine: it samples a trial
// rigid-body transform, drives cluster growth, applies the transform to
// every recruited particle, checks for overlaps and newly-formed contacts,
// computes the Metropolis-with-Stokes-damping acceptance probability, and
// commits or reverts.
//
// PHYSICIST: acceptance obeys super-detailed balance once frustration
// weight and Stokes damping are folded in; the duplicated post-move call on
// rejection is what makes rollback exact rather than approximate.
package engine

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/foldvedic/vmmc-core/internal/cluster"
	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// Config holds the per-step tunables named in spec.md §6.
type Config struct {
	ProbTranslate    float64
	TMax             float64
	ThetaMax         float64
	ReferenceRadius  float64
	MaxInteractions  int
	OverlapThreshold float64
	IsIsotropic      bool // global veto: forbid cluster rotation seeded from an isotropic particle
}

// ParticleStore is the façade-owned particle storage the engine operates
// on. The engine owns none of this memory; it only reads and writes
// through this interface, so the façade retains sole ownership of the
// arrays (spec.md §3's ownership model).
type ParticleStore interface {
	N() int
	Box() geometry.Box
	State(i int) potential.State
	SetState(i int, s potential.State)
	Isotropic(i int) bool
}

// Result reports the outcome of one Step.
type Result struct {
	Accepted    bool
	Attempted   bool // false only when the isotropic-seed rotation veto fired
	Kind        cluster.Kind
	ClusterSize int
	DeltaEnergy float64
	Frustrated  bool
	NFrustrated int
}

// Engine drives one trial move at a time against one Potential and one
// ParticleStore. It owns the PRNG (per spec.md §9's design note that the
// engine, not a package-global source, should hold and be able to
// snapshot/restore its RNG state) and the reusable cluster.Builder scratch.
type Engine struct {
	cfg     Config
	pot     potential.Potential
	ps      ParticleStore
	rng     *rand.Rand
	builder *cluster.Builder
}

// New constructs an Engine bound to ps and pot for its lifetime.
func New(cfg Config, pot potential.Potential, ps ParticleStore, rng *rand.Rand) *Engine {
	return &Engine{
		cfg:     cfg,
		pot:     pot,
		ps:      ps,
		rng:     rng,
		builder: cluster.New(pot, cfg.MaxInteractions, cfg.OverlapThreshold),
	}
}

// Step runs one trial move: IDLE -> PROPOSING -> GROWING -> TRIALING ->
// DECIDING -> (COMMITTED | REVERTED) -> IDLE. A non-nil error means a
// capacity violation escaped (spec.md §7's propagation policy); every other
// failure mode manifests as Result.Accepted == false.
func (e *Engine) Step() (Result, error) {
	n := e.ps.N()
	box := e.ps.Box()
	seed := e.rng.Intn(n)

	kind := cluster.Translate
	if e.rng.Float64() >= e.cfg.ProbTranslate {
		kind = cluster.Rotate
	}

	if kind == cluster.Rotate && !e.cfg.IsIsotropic && e.ps.Isotropic(seed) {
		// spec.md §4.4: cluster rotations may only be seeded from an
		// anisotropic particle unless IsIsotropic is set globally.
		return Result{Kind: kind}, nil
	}

	tf := e.sampleTransform(box, seed, kind)

	growth, err := e.builder.Grow(seed, n, e.ps, tf, e.rng)
	if err != nil {
		return Result{}, fmt.Errorf("engine: cluster growth failed: %w", err)
	}
	if growth.Outcome == cluster.EarlyReject {
		return Result{Attempted: true, Kind: kind, ClusterSize: len(growth.Members)}, nil
	}

	snapshots := e.applyTrial(growth.Members, tf)

	deltaE, overlap, err := e.checkOverlapAndEnergy(growth, snapshots, kind)
	if err != nil {
		e.revert(snapshots)
		return Result{}, fmt.Errorf("engine: overlap check failed: %w", err)
	}

	result := Result{
		Attempted:   true,
		Kind:        kind,
		ClusterSize: len(growth.Members),
		Frustrated:  growth.Outcome == cluster.Frustrated,
		NFrustrated: growth.NFrustrated,
	}

	if overlap {
		e.revert(snapshots)
		return result, nil
	}

	acceptProb := e.acceptanceProbability(growth.Weight, len(growth.Members), box.Dim(), kind, deltaE)
	if e.rng.Float64() < acceptProb {
		result.Accepted = true
		result.DeltaEnergy = deltaE
		return result, nil
	}

	e.revert(snapshots)
	return result, nil
}

func (e *Engine) sampleTransform(box geometry.Box, seed int, kind cluster.Kind) cluster.Transform {
	if kind == cluster.Translate {
		t := geometry.SampleTranslation(e.rng, box.Dim(), e.cfg.TMax, 1.0)
		return cluster.Transform{Box: box, Kind: cluster.Translate, T: t}
	}
	r := geometry.SampleRotation(e.rng, box.Dim(), e.cfg.ThetaMax)
	pivot := append([]float64(nil), e.ps.State(seed).Pos...)
	return cluster.Transform{Box: box, Kind: cluster.Rotate, R: r, Pivot: pivot}
}

type snapshot struct {
	idx int
	old potential.State
}

// applyTrial commits every cluster member's trial state into the internal
// store and notifies the potential via PostMove, recording the pre-move
// state so a later revert can restore it exactly.
func (e *Engine) applyTrial(members []int, tf cluster.Transform) []snapshot {
	snapshots := make([]snapshot, 0, len(members))
	for _, m := range members {
		old := e.ps.State(m)
		snapshots = append(snapshots, snapshot{idx: m, old: old})
		next := tf.Apply(old)
		e.ps.SetState(m, next)
		e.pot.PostMove(m, next)
	}
	return snapshots
}

// revert restores every snapshotted particle to its pre-move state. The
// potential's PostMove is invoked a second time for each, per spec.md §4.4
// step 6's note that this duplication is the price of exact rollback.
func (e *Engine) revert(snapshots []snapshot) {
	for _, s := range snapshots {
		e.ps.SetState(s.idx, s.old)
		e.pot.PostMove(s.idx, s.old)
	}
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// checkOverlapAndEnergy recomputes every link's post-move energy, folds in
// every pair whose energy changed by entering or leaving a cluster member's
// interaction shell, and reports whether a hard-core overlap sentinel was
// observed anywhere. snapshots supplies each member's pre-move state, since
// by this point ps.State has already been overwritten with the trial value.
func (e *Engine) checkOverlapAndEnergy(growth *cluster.Result, snapshots []snapshot, kind cluster.Kind) (float64, bool, error) {
	memberSet := make(map[int]bool, len(growth.Members))
	for _, m := range growth.Members {
		memberSet[m] = true
	}

	oldState := make(map[int]potential.State, len(snapshots))
	for _, s := range snapshots {
		oldState[s.idx] = s.old
	}
	// stateOld returns idx's pre-move state: its snapshot if it's a cluster
	// member, or its current (unmoved) state otherwise.
	stateOld := func(idx int) potential.State {
		if s, ok := oldState[idx]; ok {
			return s
		}
		return e.ps.State(idx)
	}

	seen := make(map[[2]int]bool)
	var deltaE float64
	var overlap bool

	links := growth.Pairs.Links()
	for idx, l := range links {
		seen[pairKey(l.A, l.B)] = true
		eNew := e.pot.PairEnergy(l.A, e.ps.State(l.A), l.B, e.ps.State(l.B))
		growth.Pairs.SetNew(idx, eNew)
		if potential.IsOverlap(eNew, e.cfg.OverlapThreshold) {
			overlap = true
		}
		// Internal cluster-cluster pairs are invariant under a pure rigid
		// translation, so they're excluded from ΔE for translations;
		// rotation-induced wraparound can change them, so they count for
		// rotations.
		if kind == cluster.Rotate || !(memberSet[l.A] && memberSet[l.B]) {
			deltaE += eNew - l.EOld
		}
	}

	// Beyond the links growth actually formed, a member's interaction shell
	// can gain or lose neighbors outright: a pair can newly enter range (only
	// visible in the post-move scan) or leave it (only visible in the
	// pre-move scan), so both are swept and every candidate pair's ΔE is the
	// genuine eNew-eOld, never an assumed eOld=0.
	neighbors := make([]int, e.cfg.MaxInteractions+1)
	for _, m := range growth.Members {
		newSt := e.ps.State(m)
		oldSt := stateOld(m)

		candidates := make(map[int]bool)
		for _, st := range [2]potential.State{newSt, oldSt} {
			k := e.pot.Interactions(m, st, neighbors)
			if k > e.cfg.MaxInteractions {
				return 0, false, fmt.Errorf("engine: particle %d reported %d interactions, maxInteractions is %d: %w",
					m, k, e.cfg.MaxInteractions, cluster.ErrCapacityExceeded)
			}
			for _, j := range neighbors[:k] {
				if j != m {
					candidates[j] = true
				}
			}
		}

		for j := range candidates {
			key := pairKey(m, j)
			if seen[key] {
				continue
			}
			seen[key] = true
			bothInCluster := memberSet[m] && memberSet[j]
			if kind == cluster.Translate && bothInCluster {
				// Provably unchanged under pure translation; skip entirely.
				continue
			}
			eOld := e.pot.PairEnergy(m, oldSt, j, stateOld(j))
			eNew := e.pot.PairEnergy(m, newSt, j, e.ps.State(j))
			if potential.IsOverlap(eNew, e.cfg.OverlapThreshold) {
				overlap = true
			}
			deltaE += eNew - eOld
		}
	}

	return deltaE, overlap, nil
}

// acceptanceProbability implements spec.md §4.4 step 5: the cluster is
// approximated as a sphere of effective radius referenceRadius*n^(1/D);
// translational damping is 1/R_c, rotational damping is 1/R_c^3.
func (e *Engine) acceptanceProbability(weight float64, nCluster, dim int, kind cluster.Kind, deltaE float64) float64 {
	rc := e.cfg.ReferenceRadius * math.Pow(float64(nCluster), 1.0/float64(dim))
	var damping float64
	if kind == cluster.Translate {
		damping = 1.0 / rc
	} else {
		damping = 1.0 / (rc * rc * rc)
	}
	p := weight * damping * math.Exp(-deltaE)
	if p > 1 {
		return 1
	}
	return p
}

// Reseed replaces the engine's PRNG stream deterministically. stdlib
// *rand.Rand exposes no portable state dump, so reproducibility is only
// ever achieved by recording the seed and re-seeding from it (see
// vmmc.Simulation.RNGState/SetRNGState).
func (e *Engine) Reseed(seed int64) {
	e.rng.Seed(seed)
}
