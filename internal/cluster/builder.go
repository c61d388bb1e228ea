// Package cluster implements the VMMC cluster-growth state machine: starting
// from a seed particle and a trial rigid-body transform, it recruits
// neighbors into a trial cluster link by stochastic link, detecting
// frustrated links that force an early reject or discount the eventual
// acceptance probability.
//
// Growth is iterative (an explicit FIFO work queue plus a visited set), not
// recursive, so that a pathologically large cluster cannot blow the call
// stack — see the design note on recursion→iteration conversion.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/foldvedic/vmmc-core/internal/pairstate"
	"github.com/foldvedic/vmmc-core/internal/potential"
)

// ErrCapacityExceeded is returned when a particle's Interactions callback
// reports more neighbors than the configured maxInteractions capacity.
var ErrCapacityExceeded = errors.New("cluster: interactions exceeded maxInteractions")

// Outcome classifies how a cluster-growth attempt concluded.
type Outcome int

const (
	// Clean means every link formed with no frustration: the trial
	// cluster, if it survives the overlap check, accepts with probability
	// governed only by Stokes damping and ΔE.
	Clean Outcome = iota
	// Frustrated means at least one link's reverse-formation probability
	// was strictly less than its forward probability; Weight carries the
	// cumulative discount to multiply into the acceptance probability.
	Frustrated
	// EarlyReject means a link's reverse probability was exactly zero
	// while its forward probability was positive: the move is certain to
	// be rejected and growth stopped immediately.
	EarlyReject
)

// Particles gives the builder read access to the current, committed state
// of any particle by index.
type Particles interface {
	State(i int) potential.State
}

// Result is the builder's conclusion for one trial cluster growth.
type Result struct {
	Members     []int
	Outcome     Outcome
	Weight      float64 // product of p_reverse/p_forward over frustrated links
	NFrustrated int
	Pairs       *pairstate.PairState
}

// Builder grows trial clusters against one Potential.
type Builder struct {
	pot              potential.Potential
	maxInteractions  int
	overlapThreshold float64
}

// New constructs a Builder. overlapThreshold is the E_overlap sentinel; Grow
// does not consult it, since sentinel energies go through linkProbability
// like any other and hard-core overlaps are detected after the trial is
// applied.
func New(pot potential.Potential, maxInteractions int, overlapThreshold float64) *Builder {
	return &Builder{pot: pot, maxInteractions: maxInteractions, overlapThreshold: overlapThreshold}
}

// rng is the minimal interface Grow needs from the caller's PRNG.
type rng interface {
	Float64() float64
}

// Grow recruits particles into a trial cluster starting from seed under tf,
// using particles for read access to current configuration and draw for
// per-link acceptance sampling. n is the total particle count, used to size
// the visited bitset.
func (b *Builder) Grow(seed, n int, particles Particles, tf Transform, draw rng) (*Result, error) {
	visited := make([]bool, n)
	members := []int{seed}
	visited[seed] = true

	pairs := pairstate.New()
	queue := []int{seed}
	neighbors := make([]int, b.maxInteractions+1)

	weight := 1.0
	nFrustrated := 0

	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]

		curA := particles.State(a)
		trialA := tf.Apply(curA)

		k := b.pot.Interactions(a, curA, neighbors)
		if k > b.maxInteractions {
			return nil, fmt.Errorf("cluster: particle %d reported %d interactions, maxInteractions is %d: %w",
				a, k, b.maxInteractions, ErrCapacityExceeded)
		}

		for _, nb := range neighbors[:k] {
			if nb == a || pairs.Attempted(a, nb) {
				continue
			}
			pairs.MarkAttempted(a, nb)

			curB := particles.State(nb)
			eOld := b.pot.PairEnergy(a, curA, nb, curB)
			eForward := b.pot.PairEnergy(a, trialA, nb, curB) // E'_ab: a moved, b not yet

			pForward := linkProbability(eForward, eOld)
			if draw.Float64() >= pForward {
				continue // link does not form
			}
			pairs.Record(a, nb, eOld)

			trialB := tf.Apply(curB)
			eBoth := b.pot.PairEnergy(a, trialA, nb, trialB) // E''_ab: both moved
			pReverse := linkProbability(eBoth, eForward)

			switch {
			case pReverse == 0 && pForward > 0:
				return &Result{Outcome: EarlyReject}, nil
			case pReverse < pForward:
				weight *= pReverse / pForward
				nFrustrated++
			}

			if !visited[nb] {
				visited[nb] = true
				members = append(members, nb)
				queue = append(queue, nb)
			}
		}
	}

	outcome := Clean
	if nFrustrated > 0 {
		outcome = Frustrated
	}
	return &Result{Members: members, Outcome: outcome, Weight: weight, NFrustrated: nFrustrated, Pairs: pairs}, nil
}

// linkProbability implements p = max(0, 1 - exp(-(eNew - eOld))) with β=1,
// the forward/reverse link-formation rule shared by both tests in Grow.
// Overlap-sentinel energies (very large finite values, or +Inf) saturate
// the exponential to 0 and so drive p to 1 without any special-casing.
func linkProbability(eNew, eOld float64) float64 {
	p := 1 - math.Exp(-(eNew - eOld))
	if p < 0 {
		return 0
	}
	return p
}
