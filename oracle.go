package schedval

import (
	log "github.com/sirupsen/logrus"
)

// Oracle decides whether a scheduled block is equivalent to its sequential
// original.
type Oracle struct {
	// Decision procedure used for each resource comparison.
	// Must be set before calling Check or Verify.
	Solver Solver

	// Step budget for a single solver call.
	Bound int
}

// NewOracle returns a new instance of Oracle with the default bound.
func NewOracle(solver Solver) *Oracle {
	return &Oracle{
		Solver: solver,
		Bound:  DefaultBound,
	}
}

// Check returns true if par is accepted as a schedule of seq.
func (o *Oracle) Check(seq *SeqBlock, par *ParBlock) bool {
	return o.Verify(seq, par) == nil
}

// Verify returns nil if par is accepted as a schedule of seq. Otherwise
// returns the reason of the rejection.
func (o *Oracle) Verify(seq *SeqBlock, par *ParBlock) error {
	assert(o.Solver != nil, "oracle: solver required")

	if !EqualCFInstr(seq.Exit, par.Exit) {
		log.Debugf("[oracle] exit mismatch: %s != %s", seq.Exit, par.Exit)
		return ErrExitMismatch
	}

	body := par.Flatten()
	if (len(seq.Body) == 0) != par.IsEmpty() {
		log.Debugf("[oracle] body mismatch: seq=%d par=%d", len(seq.Body), len(body))
		return ErrBodyMismatch
	}

	fa, fb := o.Forests(seq, par)
	if r, ok := findMismatch(o.Solver, o.Bound, fa, fb); !ok {
		log.Debugf("[oracle] %s: %s != %s", r, fa.Get(r), fb.Get(r))
		return &MismatchError{Resource: r}
	}
	return nil
}

// Forests returns the forests of both blocks, built with one interpreter so
// that predicate values computed in the block share atoms.
func (o *Oracle) Forests(seq *SeqBlock, par *ParBlock) (*Forest, *Forest) {
	body := par.Flatten()
	it := NewInterp(maxInt(MaxPredReg(seq.Body), MaxPredReg(body)) + 1)
	fa := it.AbstractSequence(NewForest(), seq.Body)
	fb := it.AbstractSequence(NewForest(), body)
	return fa, fb
}
