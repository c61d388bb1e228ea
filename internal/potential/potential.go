// Package potential defines the capability interface through which the VMMC
// engine observes an opaque interaction model. The engine never computes an
// energy itself; it only ever asks the caller's Potential for one.
package potential

// State is a hypothetical particle configuration: a position and
// orientation the engine wants an energy for, without having committed to
// it yet.
type State struct {
	Pos    []float64
	Orient []float64
}

// Potential is the four-callback capability spec.md §6 requires of a caller:
// particle energy, pair energy, neighbor enumeration, and a post-move
// notification. Bundling the four as one interface (rather than four
// separate function values) keeps the engine's constructor to a single
// handle, per the design note that prefers a cohesive capability object.
type Potential interface {
	// ParticleEnergy returns the total interaction energy of particle i in
	// the hypothetical state s, holding every other particle at its current
	// committed configuration.
	ParticleEnergy(i int, s State) float64

	// PairEnergy returns the interaction energy between i (in hypothetical
	// state si) and j (in hypothetical state sj). Must be symmetric:
	// PairEnergy(i, si, j, sj) == PairEnergy(j, sj, i, si) to numerical
	// tolerance.
	PairEnergy(i int, si State, j int, sj State) float64

	// Interactions writes the indices of i's neighbors (given i is in
	// hypothetical state s) into out and returns the count written. j is a
	// neighbor of i iff PairEnergy(i, j) != 0 or the pair is a hard-core
	// overlap. i itself and duplicates must never appear. The returned
	// count must not exceed maxInteractions; callers pass an out of length
	// maxInteractions+1 and report a larger count as a capacity error, not
	// silently truncated.
	Interactions(i int, s State, out []int) int

	// PostMove informs the caller that particle i should now be considered
	// at s for all subsequent callback calls, in this step and future
	// steps. Called once to apply a trial move and, on rejection, called a
	// second time with the pre-move state to revert it.
	PostMove(i int, s State)
}

// OverlapThreshold is the default value of E_overlap: any returned energy
// at or above this is treated as the infinite hard-core sentinel.
const OverlapThreshold = 1e10

// IsOverlap reports whether E represents a hard-core overlap sentinel at
// the given threshold. The engine's overlap check uses it after a trial is
// applied; cluster growth does not call it (sentinel energies pass through
// the ordinary link-probability rule there).
func IsOverlap(e, threshold float64) bool {
	return e >= threshold
}
