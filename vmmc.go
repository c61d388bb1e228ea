// Package vmmc implements Virtual-Move Monte Carlo sampling of a system of
// interacting particles in two or three periodic dimensions: cluster moves
// grown from a seed particle through stochastic virtual links, moved as a
// rigid body, and accepted with a Metropolis criterion that folds in
// frustration weight and an approximate Stokes hydrodynamic damping.
//
// MATHEMATICIAN: super-detailed balance via the forward/reverse link test
// in internal/cluster.
// PHYSICIST: the concrete potential, neighbor enumeration, RNG algorithm,
// and trajectory output are all external collaborators, supplied through
// the Potential interface; this package owns only the cluster-growth and
// acceptance machinery.
package vmmc

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/foldvedic/vmmc-core/internal/cluster"
	"github.com/foldvedic/vmmc-core/internal/engine"
	"github.com/foldvedic/vmmc-core/internal/geometry"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// Construction and capacity errors, per spec.md §7's propagation policy:
// these are the only failure modes that escape Step/StepN. Everything else
// manifests as a move rejection.
var (
	ErrInvalidDimension   = errors.New("vmmc: dimension must be 2 or 3")
	ErrSizeMismatch       = errors.New("vmmc: particle array size mismatch")
	ErrInvalidBox         = errors.New("vmmc: box side lengths must be positive and match the dimension")
	ErrInvalidProbability = errors.New("vmmc: probTranslate must be in [0,1]")
	ErrInvalidCapacity    = errors.New("vmmc: maxInteractions must be positive")
	ErrNonUnitOrientation = errors.New("vmmc: orientation is not unit length")
	ErrOutOfBox           = errors.New("vmmc: coordinate outside box")
	ErrCapacityExceeded   = cluster.ErrCapacityExceeded
)

// orientationTolerance is the unit-length tolerance spec.md §3 requires of
// every orientation vector after construction and after every accepted move.
const orientationTolerance = 1e-10

// Config holds the construction-time parameters of spec.md §6.
type Config struct {
	N                int
	D                int
	L                []float64
	ProbTranslate    float64
	TMax             float64
	ThetaMax         float64
	ReferenceRadius  float64
	MaxInteractions  int
	OverlapThreshold float64
	IsIsotropic      bool
	Seed             int64
}

// DefaultConfig returns recommended parameters for an N-particle system of
// dimension d in a box with sides L, left for the caller to adjust.
// ReferenceRadius defaults to 1 (unit particle diameter), which is what
// makes a single-particle cluster's Stokes damping equal to 1 (spec.md §8
// testable property #4/#6).
func DefaultConfig(n, d int, l []float64) Config {
	return Config{
		N:                n,
		D:                d,
		L:                append([]float64(nil), l...),
		ProbTranslate:    0.5,
		TMax:             0.2,
		ThetaMax:         0.5,
		ReferenceRadius:  1.0,
		MaxInteractions:  64,
		OverlapThreshold: potential.OverlapThreshold,
		IsIsotropic:      true,
		Seed:             1,
	}
}

// particle is the Simulation's internally-owned record of one particle's
// committed configuration. Caller storage is external and mirrored only
// through Potential.PostMove (spec.md §3's ownership model).
type particle struct {
	pos       []float64
	orient    []float64
	isotropic bool
}

// Simulation is the VMMC façade: it owns the particle arrays, dispatches
// one trial move per Step, and reports running energy and statistics.
type Simulation struct {
	cfg       Config
	box       geometry.Box
	particles []particle
	pot       potential.Potential
	eng       *engine.Engine
	rng       *rand.Rand
	seed      int64
	energy    float64
	stats     Stats
}

// NewSimulation validates cfg and the initial configuration, then
// constructs a Simulation. pos and orient must each have length cfg.N;
// isotropic must have length cfg.N or be nil (every particle anisotropic);
// pos[i] and orient[i] must have length cfg.D.
func NewSimulation(cfg Config, pos, orient [][]float64, isotropic []bool, pot potential.Potential) (*Simulation, error) {
	if cfg.D != 2 && cfg.D != 3 {
		return nil, fmt.Errorf("D=%d: %w", cfg.D, ErrInvalidDimension)
	}
	if len(cfg.L) != cfg.D {
		return nil, fmt.Errorf("len(L)=%d, want %d: %w", len(cfg.L), cfg.D, ErrInvalidBox)
	}
	for _, side := range cfg.L {
		if side <= 0 {
			return nil, fmt.Errorf("box side %v: %w", side, ErrInvalidBox)
		}
	}
	if cfg.ProbTranslate < 0 || cfg.ProbTranslate > 1 {
		return nil, fmt.Errorf("probTranslate=%v: %w", cfg.ProbTranslate, ErrInvalidProbability)
	}
	if cfg.MaxInteractions <= 0 {
		return nil, fmt.Errorf("maxInteractions=%d: %w", cfg.MaxInteractions, ErrInvalidCapacity)
	}
	if len(pos) != cfg.N || len(orient) != cfg.N || (isotropic != nil && len(isotropic) != cfg.N) {
		return nil, fmt.Errorf("particle array length mismatch (N=%d): %w", cfg.N, ErrSizeMismatch)
	}

	box := geometry.NewBox(cfg.L)

	particles := make([]particle, cfg.N)
	for i := 0; i < cfg.N; i++ {
		if len(pos[i]) != cfg.D || len(orient[i]) != cfg.D {
			return nil, fmt.Errorf("particle %d: position/orientation dimension mismatch: %w", i, ErrSizeMismatch)
		}
		if !box.Contains(pos[i]) {
			return nil, fmt.Errorf("particle %d at %v: %w", i, pos[i], ErrOutOfBox)
		}
		if !geometry.IsUnit(orient[i], orientationTolerance) {
			return nil, fmt.Errorf("particle %d orientation %v: %w", i, orient[i], ErrNonUnitOrientation)
		}
		iso := false
		if isotropic != nil {
			iso = isotropic[i]
		}
		particles[i] = particle{
			pos:       append([]float64(nil), pos[i]...),
			orient:    append([]float64(nil), orient[i]...),
			isotropic: iso,
		}
	}

	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = potential.OverlapThreshold
	}
	if cfg.ReferenceRadius <= 0 {
		cfg.ReferenceRadius = 1.0
	}

	sim := &Simulation{
		cfg:       cfg,
		box:       box,
		particles: particles,
		pot:       pot,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		seed:      cfg.Seed,
	}
	sim.eng = engine.New(engine.Config{
		ProbTranslate:    cfg.ProbTranslate,
		TMax:             cfg.TMax,
		ThetaMax:         cfg.ThetaMax,
		ReferenceRadius:  cfg.ReferenceRadius,
		MaxInteractions:  cfg.MaxInteractions,
		OverlapThreshold: cfg.OverlapThreshold,
		IsIsotropic:      cfg.IsIsotropic,
	}, pot, sim, sim.rng)
	return sim, nil
}

// --- engine.ParticleStore ---

func (s *Simulation) N() int          { return s.cfg.N }
func (s *Simulation) Box() geometry.Box { return s.box }

func (s *Simulation) State(i int) potential.State {
	p := s.particles[i]
	return potential.State{Pos: p.pos, Orient: p.orient}
}

func (s *Simulation) SetState(i int, st potential.State) {
	p := &s.particles[i]
	p.pos = st.Pos
	p.orient = st.Orient
}

func (s *Simulation) Isotropic(i int) bool { return s.particles[i].isotropic }

// --- public API ---

// Step runs one trial move and returns whether it was accepted. An error
// is returned only for a capacity violation (spec.md §7); every other
// outcome, including the isotropic-seed rotation veto, is reported as a
// plain rejection with no error.
func (s *Simulation) Step() (bool, error) {
	res, err := s.eng.Step()
	if err != nil {
		return false, err
	}
	s.recordStats(res)
	if res.Accepted {
		s.energy += res.DeltaEnergy
	}
	return res.Accepted, nil
}

// StepN runs n trials sequentially, stopping at the first capacity error.
// It returns the number of moves accepted.
func (s *Simulation) StepN(n int) (int, error) {
	accepted := 0
	for i := 0; i < n; i++ {
		ok, err := s.Step()
		if err != nil {
			return accepted, err
		}
		if ok {
			accepted++
		}
	}
	return accepted, nil
}

// Energy returns the running total energy, maintained incrementally by
// ΔE on every accepted move (spec.md §8 testable property #3: this must
// agree with a fresh full-system recomputation to floating tolerance).
func (s *Simulation) Energy() float64 { return s.energy }

// SetEnergy seeds the running energy total, typically from a caller's
// initial full-system energy computation before the first Step.
func (s *Simulation) SetEnergy(e float64) { s.energy = e }

// Stats returns the move statistics accumulated so far.
func (s *Simulation) Stats() Stats { return s.stats }

// Position returns particle i's current committed position. The returned
// slice is a defensive copy.
func (s *Simulation) Position(i int) []float64 {
	return append([]float64(nil), s.particles[i].pos...)
}

// Orientation returns particle i's current committed orientation. The
// returned slice is a defensive copy.
func (s *Simulation) Orientation(i int) []float64 {
	return append([]float64(nil), s.particles[i].orient...)
}

// RNGState returns the seed the engine's PRNG stream can be restored from.
// stdlib *rand.Rand exposes no portable internal-state dump, so
// reproducibility here means "replay from this seed," not "resume this
// exact stream position" (see SPEC_FULL.md §7).
func (s *Simulation) RNGState() int64 { return s.seed }

// SetRNGState reseeds the engine's PRNG deterministically from seed.
func (s *Simulation) SetRNGState(seed int64) {
	s.seed = seed
	s.eng.Reseed(seed)
}

func (s *Simulation) recordStats(res stepResult) {
	s.stats.record(res)
}

// stepResult is an alias so stats.go doesn't need to import internal/engine
// directly in its signatures; kept for package-internal readability.
type stepResult = struct {
	Accepted    bool
	Attempted   bool
	Kind        cluster.Kind
	ClusterSize int
	DeltaEnergy float64
	Frustrated  bool
	NFrustrated int
}
