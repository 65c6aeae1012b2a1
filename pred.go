package schedval

import (
	"fmt"

	"golang.org/x/tools/container/intsets"
)

// Pred represents a boolean formula over integer predicate atoms.
//
// A nil Pred is used by guarded values to mean "always taken". Functions in
// this file treat nil as the constant true unless noted otherwise.
type Pred interface {
	pred()
	String() string
}

func (*PredLit) pred()   {}
func (*PredAnd) pred()   {}
func (*PredOr) pred()    {}
func (*PredConst) pred() {}

// PredLit represents an atom or its negation.
type PredLit struct {
	ID  int
	Neg bool
}

// NewPredLit returns a positive literal for the given atom.
func NewPredLit(id int) *PredLit {
	assert(id > 0, "predicate atom must be positive: %d", id)
	return &PredLit{ID: id}
}

// NewPredNotLit returns a negative literal for the given atom.
func NewPredNotLit(id int) *PredLit {
	assert(id > 0, "predicate atom must be positive: %d", id)
	return &PredLit{ID: id, Neg: true}
}

// String returns the string representation of the literal.
func (p *PredLit) String() string {
	if p.Neg {
		return fmt.Sprintf("(not p%d)", p.ID)
	}
	return fmt.Sprintf("p%d", p.ID)
}

// PredAnd represents the conjunction of two formulas.
type PredAnd struct {
	LHS Pred
	RHS Pred
}

// NewPredAnd returns the conjunction of lhs & rhs. A nil operand is the
// neutral element. Constants and opposite literals are folded.
func NewPredAnd(lhs, rhs Pred) Pred {
	if lhs == nil {
		return rhs
	} else if rhs == nil {
		return lhs
	}

	// Move constant to left hand side.
	if !IsPredConst(lhs) && IsPredConst(rhs) {
		lhs, rhs = rhs, lhs
	}
	if lhs, ok := lhs.(*PredConst); ok {
		if !lhs.Value {
			return lhs
		}
		return rhs
	}

	if ComparePred(lhs, rhs) == 0 {
		return lhs
	} else if isComplement(lhs, rhs) {
		return NewPredConst(false)
	}
	return &PredAnd{LHS: lhs, RHS: rhs}
}

// String returns the string representation of the formula.
func (p *PredAnd) String() string {
	return fmt.Sprintf("(and %s %s)", p.LHS, p.RHS)
}

// PredOr represents the disjunction of two formulas.
type PredOr struct {
	LHS Pred
	RHS Pred
}

// NewPredOr returns the disjunction of lhs & rhs. A nil operand is treated
// as true, which absorbs the disjunction. Constants and opposite literals
// are folded.
func NewPredOr(lhs, rhs Pred) Pred {
	if lhs == nil || rhs == nil {
		return NewPredConst(true)
	}

	if !IsPredConst(lhs) && IsPredConst(rhs) {
		lhs, rhs = rhs, lhs
	}
	if lhs, ok := lhs.(*PredConst); ok {
		if lhs.Value {
			return lhs
		}
		return rhs
	}

	if ComparePred(lhs, rhs) == 0 {
		return lhs
	} else if isComplement(lhs, rhs) {
		return NewPredConst(true)
	}
	return &PredOr{LHS: lhs, RHS: rhs}
}

// isComplement returns true if a & b are opposite literals of one atom.
func isComplement(a, b Pred) bool {
	la, ok := a.(*PredLit)
	if !ok {
		return false
	}
	lb, ok := b.(*PredLit)
	return ok && la.ID == lb.ID && la.Neg != lb.Neg
}

// String returns the string representation of the formula.
func (p *PredOr) String() string {
	return fmt.Sprintf("(or %s %s)", p.LHS, p.RHS)
}

// PredConst represents the constant true or false.
type PredConst struct {
	Value bool
}

// NewPredConst returns a constant formula.
func NewPredConst(value bool) *PredConst {
	return &PredConst{Value: value}
}

// String returns the string representation of the constant.
func (p *PredConst) String() string {
	if p.Value {
		return "true"
	}
	return "false"
}

// IsPredConst returns true if p is an instance of PredConst.
func IsPredConst(p Pred) bool {
	_, ok := p.(*PredConst)
	return ok
}

// IsPredFalse returns true if p is the constant false.
func IsPredFalse(p Pred) bool {
	c, ok := p.(*PredConst)
	return ok && !c.Value
}

// IsPredTrue returns true if p is nil or the constant true.
func IsPredTrue(p Pred) bool {
	if p == nil {
		return true
	}
	c, ok := p.(*PredConst)
	return ok && c.Value
}

// Negate returns the negation of p in negation normal form.
func Negate(p Pred) Pred {
	switch p := p.(type) {
	case nil:
		return NewPredConst(false)
	case *PredLit:
		return &PredLit{ID: p.ID, Neg: !p.Neg}
	case *PredAnd:
		return NewPredOr(Negate(p.LHS), Negate(p.RHS))
	case *PredOr:
		return NewPredAnd(Negate(p.LHS), Negate(p.RHS))
	case *PredConst:
		return NewPredConst(!p.Value)
	default:
		panic("unreachable")
	}
}

// NewPredImplies returns the formula lhs -> rhs.
func NewPredImplies(lhs, rhs Pred) Pred {
	return NewPredOr(Negate(lhs), rhs)
}

// Assignment maps predicate atoms to truth values.
type Assignment map[int]bool

// Evaluate returns the value of p under a. Atoms missing from a are false.
func Evaluate(p Pred, a Assignment) bool {
	switch p := p.(type) {
	case nil:
		return true
	case *PredLit:
		return a[p.ID] != p.Neg
	case *PredAnd:
		return Evaluate(p.LHS, a) && Evaluate(p.RHS, a)
	case *PredOr:
		return Evaluate(p.LHS, a) || Evaluate(p.RHS, a)
	case *PredConst:
		return p.Value
	default:
		panic("unreachable")
	}
}

// Tri is a three-valued truth value.
type Tri int

const (
	TriDontCare = Tri(iota)
	TriTrue
	TriFalse
)

// String returns the string representation of the value.
func (t Tri) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "dontcare"
	}
}

// NewTri converts a boolean into a Tri.
func NewTri(v bool) Tri {
	if v {
		return TriTrue
	}
	return TriFalse
}

// EvaluatePartial returns the value of p under a partial assignment using
// Kleene logic. Atoms missing from a are don't-care.
func EvaluatePartial(p Pred, a Assignment) Tri {
	switch p := p.(type) {
	case nil:
		return TriTrue
	case *PredLit:
		v, ok := a[p.ID]
		if !ok {
			return TriDontCare
		}
		return NewTri(v != p.Neg)
	case *PredAnd:
		lhs := EvaluatePartial(p.LHS, a)
		if lhs == TriFalse {
			return TriFalse
		}
		rhs := EvaluatePartial(p.RHS, a)
		if rhs == TriFalse {
			return TriFalse
		} else if lhs == TriTrue && rhs == TriTrue {
			return TriTrue
		}
		return TriDontCare
	case *PredOr:
		lhs := EvaluatePartial(p.LHS, a)
		if lhs == TriTrue {
			return TriTrue
		}
		rhs := EvaluatePartial(p.RHS, a)
		if rhs == TriTrue {
			return TriTrue
		} else if lhs == TriFalse && rhs == TriFalse {
			return TriFalse
		}
		return TriDontCare
	case *PredConst:
		return NewTri(p.Value)
	default:
		panic("unreachable")
	}
}

// PredAtoms returns the sorted set of atoms referenced by the formulas.
func PredAtoms(preds ...Pred) []int {
	var set intsets.Sparse
	for _, p := range preds {
		collectAtoms(&set, p)
	}
	return set.AppendTo(nil)
}

func collectAtoms(set *intsets.Sparse, p Pred) {
	switch p := p.(type) {
	case *PredLit:
		set.Insert(p.ID)
	case *PredAnd:
		collectAtoms(set, p.LHS)
		collectAtoms(set, p.RHS)
	case *PredOr:
		collectAtoms(set, p.LHS)
		collectAtoms(set, p.RHS)
	}
}

// MaxAtom returns the largest atom referenced by p, or zero if none.
func MaxAtom(p Pred) int {
	switch p := p.(type) {
	case *PredLit:
		return p.ID
	case *PredAnd:
		return maxInt(MaxAtom(p.LHS), MaxAtom(p.RHS))
	case *PredOr:
		return maxInt(MaxAtom(p.LHS), MaxAtom(p.RHS))
	default:
		return 0
	}
}

// RenameAtoms returns p with every atom replaced by fn(atom).
func RenameAtoms(p Pred, fn func(int) int) Pred {
	switch p := p.(type) {
	case nil:
		return nil
	case *PredLit:
		return &PredLit{ID: fn(p.ID), Neg: p.Neg}
	case *PredAnd:
		return NewPredAnd(RenameAtoms(p.LHS, fn), RenameAtoms(p.RHS, fn))
	case *PredOr:
		return NewPredOr(RenameAtoms(p.LHS, fn), RenameAtoms(p.RHS, fn))
	case *PredConst:
		return p
	default:
		panic("unreachable")
	}
}

// IsPredUnsat returns true if p is found unsatisfiable without a solver. A
// conjunction is unsatisfiable if its literals clash or if one of its
// disjunctions has no branch consistent with them. False means unknown.
func IsPredUnsat(p Pred) bool {
	return isPredUnsat(p, nil)
}

func isPredUnsat(p Pred, fixed Assignment) bool {
	switch p := p.(type) {
	case nil:
		return false
	case *PredConst:
		return !p.Value
	case *PredLit:
		v, ok := fixed[p.ID]
		return ok && v == p.Neg
	case *PredOr:
		return isPredUnsat(p.LHS, fixed) && isPredUnsat(p.RHS, fixed)
	case *PredAnd:
		lits := make(Assignment, len(fixed))
		for id, v := range fixed {
			lits[id] = v
		}
		var rest []Pred
		for stack := []Pred{p}; len(stack) > 0; {
			q := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch q := q.(type) {
			case *PredAnd:
				stack = append(stack, q.LHS, q.RHS)
			case *PredLit:
				if v, ok := lits[q.ID]; ok && v == q.Neg {
					return true
				}
				lits[q.ID] = !q.Neg
			default:
				rest = append(rest, q)
			}
		}
		for _, q := range rest {
			if isPredUnsat(q, lits) {
				return true
			}
		}
		return false
	default:
		panic("unreachable")
	}
}

// ComparePred returns an integer comparing two formulas structurally.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func ComparePred(a, b Pred) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}

	if ak, bk := predKind(a), predKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}

	switch a := a.(type) {
	case *PredConst:
		return compareBool(a.Value, b.(*PredConst).Value)
	case *PredLit:
		b := b.(*PredLit)
		if cmp := compareInt(a.ID, b.ID); cmp != 0 {
			return cmp
		}
		return compareBool(a.Neg, b.Neg)
	case *PredAnd:
		b := b.(*PredAnd)
		if cmp := ComparePred(a.LHS, b.LHS); cmp != 0 {
			return cmp
		}
		return ComparePred(a.RHS, b.RHS)
	case *PredOr:
		b := b.(*PredOr)
		if cmp := ComparePred(a.LHS, b.LHS); cmp != 0 {
			return cmp
		}
		return ComparePred(a.RHS, b.RHS)
	default:
		panic("unreachable")
	}
}

// predKind returns a numeric value for the type of formula.
func predKind(p Pred) int {
	switch p.(type) {
	case *PredConst:
		return 1
	case *PredLit:
		return 2
	case *PredAnd:
		return 3
	case *PredOr:
		return 4
	default:
		panic("unreachable")
	}
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	if !a && b {
		return -1
	} else if a && !b {
		return 1
	}
	return 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
