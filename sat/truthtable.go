package sat

import (
	"github.com/benbjohnson/schedval"
)

// TruthTable decides formulas by enumerating every assignment of their
// atoms. Each evaluated assignment counts as one step against the bound.
type TruthTable struct{}

// NewTruthTable returns a new instance of TruthTable.
func NewTruthTable() *TruthTable {
	return &TruthTable{}
}

// Solve returns true and a satisfying assignment if p is satisfiable.
// Returns schedval.ErrSolverResourceLimit if the bound is exceeded.
func (tt *TruthTable) Solve(bound int, p schedval.Pred) (bool, schedval.Assignment, error) {
	atoms := schedval.PredAtoms(p)
	if len(atoms) >= 63 {
		return false, nil, schedval.ErrSolverResourceLimit
	}

	for i, steps := uint64(0), 0; i < uint64(1)<<uint(len(atoms)); i++ {
		if steps++; steps > bound {
			return false, nil, schedval.ErrSolverResourceLimit
		}

		a := make(schedval.Assignment, len(atoms))
		for j, id := range atoms {
			a[id] = i&(1<<uint(j)) != 0
		}
		if schedval.Evaluate(p, a) {
			return true, a, nil
		}
	}
	return false, nil, nil
}
