// Package pairstate records, for each virtual link formed during one trial
// cluster growth, the participating particle indices and the pre-move and
// post-move pair interaction energies, plus the per-trial "already
// attempted" set that keeps an initiator from recruiting the same neighbor
// twice.
package pairstate

// Link is one accepted virtual link: initiator A recruited neighbor B. EOld
// is the pair energy before the trial move; ENew is filled in once the
// trial has actually been applied to both members (see HasNew).
type Link struct {
	A, B   int
	EOld   float64
	ENew   float64
	HasNew bool
}

// PairState is the append-only, per-trial link ledger.
type PairState struct {
	links     []Link
	attempted map[[2]int]bool
}

// New returns an empty PairState ready for one trial's growth.
func New() *PairState {
	return &PairState{attempted: make(map[[2]int]bool)}
}

// Attempted reports whether a has already attempted to recruit b this
// trial, whether or not that attempt formed a link. The pair is ordered:
// Attempted(a, b) and Attempted(b, a) are tracked independently, since a
// link is keyed by its initiator.
func (ps *PairState) Attempted(a, b int) bool {
	return ps.attempted[[2]int{a, b}]
}

// MarkAttempted records that a has attempted to recruit b this trial.
func (ps *PairState) MarkAttempted(a, b int) {
	ps.attempted[[2]int{a, b}] = true
}

// Record appends a newly formed link a->b with its pre-move pair energy and
// returns its index for a later SetNew call.
func (ps *PairState) Record(a, b int, eOld float64) int {
	ps.links = append(ps.links, Link{A: a, B: b, EOld: eOld})
	return len(ps.links) - 1
}

// SetNew fills in the post-move pair energy for the link at idx.
func (ps *PairState) SetNew(idx int, eNew float64) {
	ps.links[idx].ENew = eNew
	ps.links[idx].HasNew = true
}

// Links returns the links recorded so far, in recording order. The returned
// slice shares PairState's backing array; it is not a copy.
func (ps *PairState) Links() []Link {
	return ps.links
}

// Len returns the number of links recorded.
func (ps *PairState) Len() int {
	return len(ps.links)
}
