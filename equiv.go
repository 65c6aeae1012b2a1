package schedval

import (
	log "github.com/sirupsen/logrus"
)

// Solver represents a bounded decision procedure for predicate formulas.
//
// Solve returns true and a satisfying assignment if p is satisfiable, and
// false with a nil error if p is proven unsatisfiable. It returns
// ErrSolverResourceLimit if no answer was found within bound steps.
type Solver interface {
	Solve(bound int, p Pred) (bool, Assignment, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(bound int, p Pred) (bool, Assignment, error)

// Solve calls fn(bound, p).
func (fn SolverFunc) Solve(bound int, p Pred) (bool, Assignment, error) {
	return fn(bound, p)
}

// EncodeExpression returns a formula over guard atoms and expression handles
// that holds exactly when the handle of the chosen expression holds. Entry i
// is chosen when its guard holds and no earlier guard does, so the encoding
// follows first-match order and stops at the first unconditional entry.
// Every expression of pe must already be interned in t.
func EncodeExpression(pe *PredExpr, t *HashTable) Pred {
	var result, unmatched Pred = NewPredConst(true), nil
	for _, e := range pe.entries {
		handle, ok := t.Find(e.Expr)
		assert(ok, "expression not interned: %s", e.Expr)

		chosen := NewPredAnd(unmatched, e.Guard)
		result = NewPredAnd(result, NewPredImplies(chosen, NewPredLit(handle)))
		if IsPredTrue(e.Guard) {
			break
		}
		unmatched = NewPredAnd(unmatched, Negate(e.Guard))
	}
	return result
}

// Disequivalence returns the formula satisfied when exactly one of pa & pb
// holds.
func Disequivalence(pa, pb Pred) Pred {
	return NewPredOr(
		NewPredAnd(pa, Negate(pb)),
		NewPredAnd(Negate(pa), pb),
	)
}

// BeqPredExpr returns true if the solver proves, within bound, that a and b
// always choose structurally equal expressions. Any solver outcome other
// than unsatisfiable returns false.
func BeqPredExpr(solver Solver, bound int, a, b *PredExpr) bool {
	max := maxInt(a.MaxAtom(), b.MaxAtom())

	t := NewHashTable()
	_, t = HashPredExpr(max, a, t)
	_, t = HashPredExpr(max, b, t)

	p := Disequivalence(EncodeExpression(a, t), EncodeExpression(b, t))

	sat, witness, err := solver.Solve(bound, p)
	if err != nil {
		log.Debugf("[equiv] solver failed: %s: %s", err, p)
		return false
	} else if sat {
		log.Debugf("[equiv] counterexample %v: %s != %s", witness, a, b)
		return false
	}
	return true
}

// Check returns true if every resource mapped in either forest is proven
// equivalent. Forests built with different atom tables are first moved onto
// a shared table so that equal atoms denote equal predicate values. Returns
// false if the tables cannot be reconciled.
func Check(solver Solver, bound int, a, b *Forest) bool {
	a, b, ok := shareAtoms(a, b)
	if !ok {
		log.Debugf("[equiv] forests use incompatible atom tables")
		return false
	}
	_, ok = findMismatch(solver, bound, a, b)
	return ok
}

// shareAtoms returns a and b rewritten over a single atom table. A forest
// without a table may only reference atoms below the floor of the other.
func shareAtoms(a, b *Forest) (*Forest, *Forest, bool) {
	ta, tb := a.Atoms(), b.Atoms()
	switch {
	case ta == tb:
		return a, b, true
	case ta == nil:
		return a, b, a.MaxAtom() < tb.Floor()
	case tb == nil:
		return a, b, b.MaxAtom() < ta.Floor()
	}

	t := NewAtomTable(maxInt(ta.Floor(), tb.Floor()))
	a, aok := a.rebase(t)
	b, bok := b.rebase(t)
	return a, b, aok && bok
}

// findMismatch returns the first resource, in encoding order, whose values
// could not be proven equal.
func findMismatch(solver Solver, bound int, a, b *Forest) (Resource, bool) {
	for _, r := range unionResources(a, b) {
		if !BeqPredExpr(solver, bound, a.Get(r), b.Get(r)) {
			log.Debugf("[equiv] %s: could not prove equivalence", r)
			return r, false
		}
	}
	return Resource{}, true
}

// unionResources returns the resources mapped by either forest in order.
func unionResources(a, b *Forest) []Resource {
	ra, rb := a.Resources(), b.Resources()
	other := make([]Resource, 0, len(ra)+len(rb))
	for len(ra) > 0 || len(rb) > 0 {
		switch {
		case len(rb) == 0:
			other, ra = append(other, ra[0]), ra[1:]
		case len(ra) == 0:
			other, rb = append(other, rb[0]), rb[1:]
		default:
			switch CompareResource(ra[0], rb[0]) {
			case -1:
				other, ra = append(other, ra[0]), ra[1:]
			case 1:
				other, rb = append(other, rb[0]), rb[1:]
			default:
				other, ra, rb = append(other, ra[0]), ra[1:], rb[1:]
			}
		}
	}
	return other
}
