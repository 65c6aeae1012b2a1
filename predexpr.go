package schedval

import (
	"bytes"

	"github.com/benbjohnson/immutable"
)

// Guarded represents an expression taken when its guard holds. A nil guard
// is always taken.
type Guarded struct {
	Guard Pred
	Expr  Expr
}

// String returns the string representation of the guarded expression.
func (g Guarded) String() string {
	if g.Guard == nil {
		return "_ => " + g.Expr.String()
	}
	return g.Guard.String() + " => " + g.Expr.String()
}

// PredExpr represents a predicated value: a non-empty ordered list of guarded
// expressions where the first entry with a true guard is the value.
//
// PredExpr is immutable. Every method returns a new value.
type PredExpr struct {
	entries []Guarded
}

// NewPredExpr returns a predicated value from a list of entries. Returns
// ErrEmptyPredExpr if no entries are given.
func NewPredExpr(entries ...Guarded) (*PredExpr, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyPredExpr
	}
	for _, g := range entries {
		if g.Expr == nil {
			return nil, ErrEmptyPredExpr
		}
	}
	other := make([]Guarded, len(entries))
	copy(other, entries)
	return &PredExpr{entries: other}, nil
}

// MustPredExpr is the same as NewPredExpr except that it panics on error.
func MustPredExpr(entries ...Guarded) *PredExpr {
	pe, err := NewPredExpr(entries...)
	if err != nil {
		panic(err)
	}
	return pe
}

// Singleton returns a predicated value with one entry.
func Singleton(guard Pred, e Expr) *PredExpr {
	return &PredExpr{entries: []Guarded{{Guard: guard, Expr: e}}}
}

// Len returns the number of entries.
func (pe *PredExpr) Len() int { return len(pe.entries) }

// Entry returns the i-th entry.
func (pe *PredExpr) Entry(i int) Guarded { return pe.entries[i] }

// Entries returns a copy of the entries.
func (pe *PredExpr) Entries() []Guarded {
	other := make([]Guarded, len(pe.entries))
	copy(other, pe.entries)
	return other
}

// Map returns a new predicated value with fn applied to every entry.
func (pe *PredExpr) Map(fn func(Guarded) Guarded) *PredExpr {
	other := make([]Guarded, len(pe.entries))
	for i, g := range pe.entries {
		other[i] = fn(g)
	}
	return &PredExpr{entries: other}
}

// Append returns the concatenation of pe and other.
func (pe *PredExpr) Append(other *PredExpr) *PredExpr {
	entries := make([]Guarded, 0, len(pe.entries)+len(other.entries))
	entries = append(entries, pe.entries...)
	entries = append(entries, other.entries...)
	return &PredExpr{entries: entries}
}

// Prune returns a copy without entries whose guard is the constant false.
// Returns false if no entry remains.
func (pe *PredExpr) Prune() (*PredExpr, bool) {
	entries := make([]Guarded, 0, len(pe.entries))
	for _, g := range pe.entries {
		if IsPredFalse(g.Guard) {
			continue
		}
		entries = append(entries, g)
	}
	if len(entries) == 0 {
		return nil, false
	}
	return &PredExpr{entries: entries}, true
}

// Coalesce returns an equivalent value without entries whose guard is
// unsatisfiable and with every entry folded into the first earlier entry
// holding an equal expression. The folded guard only covers the cases not
// taken by the entries in between, so first-match order is kept. Returns
// false if no entry remains.
func (pe *PredExpr) Coalesce() (*PredExpr, bool) {
	index := immutable.NewMap(&exprHasher{})
	entries := make([]Guarded, 0, len(pe.entries))
	for _, g := range pe.entries {
		if IsPredUnsat(g.Guard) {
			continue
		}

		v, ok := index.Get(g.Expr)
		if !ok {
			index = index.Set(g.Expr, len(entries))
			entries = append(entries, g)
			continue
		}

		i := v.(int)
		guard := g.Guard
		for _, between := range entries[i+1:] {
			guard = NewPredAnd(guard, Negate(between.Guard))
		}
		if entries[i].Guard = NewPredOr(entries[i].Guard, guard); IsPredTrue(entries[i].Guard) {
			entries[i].Guard = nil
		}
	}
	if len(entries) == 0 {
		return nil, false
	}
	return &PredExpr{entries: entries}, true
}

// Guards returns the guard of every entry.
func (pe *PredExpr) Guards() []Pred {
	a := make([]Pred, len(pe.entries))
	for i, g := range pe.entries {
		a[i] = g.Guard
	}
	return a
}

// MaxAtom returns the largest predicate atom in any guard.
func (pe *PredExpr) MaxAtom() int {
	var max int
	for _, g := range pe.entries {
		max = maxInt(max, MaxAtom(g.Guard))
	}
	return max
}

// Select returns the expression chosen under a, following first-match
// semantics. Returns nil if no guard holds.
func (pe *PredExpr) Select(a Assignment) Expr {
	for _, g := range pe.entries {
		if Evaluate(g.Guard, a) {
			return g.Expr
		}
	}
	return nil
}

// String returns the string representation of the predicated value.
func (pe *PredExpr) String() string {
	var buf bytes.Buffer
	buf.WriteRune('{')
	for i, g := range pe.entries {
		buf.WriteString(g.String())
		if i < len(pe.entries)-1 {
			buf.WriteString("; ")
		}
	}
	buf.WriteRune('}')
	return buf.String()
}

// GuardedList represents one combination of a cartesian product: the
// conjunction of the chosen guards and the chosen expressions in position
// order.
type GuardedList struct {
	Guard Pred
	Exprs []Expr
}

// Product returns the cartesian product of the predicated values. Guards
// are conjoined with nil as the neutral element. The result has exactly
// the product of the input lengths; with no inputs it is a single empty,
// unconditional combination.
func Product(values ...*PredExpr) []GuardedList {
	result := []GuardedList{{}}
	for _, pe := range values {
		next := make([]GuardedList, 0, len(result)*pe.Len())
		for _, acc := range result {
			for _, g := range pe.entries {
				exprs := make([]Expr, len(acc.Exprs), len(acc.Exprs)+1)
				copy(exprs, acc.Exprs)
				next = append(next, GuardedList{
					Guard: NewPredAnd(acc.Guard, g.Guard),
					Exprs: append(exprs, g.Expr),
				})
			}
		}
		result = next
	}
	return result
}

// ComparePredExpr returns an integer comparing two predicated values
// structurally. The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func ComparePredExpr(a, b *PredExpr) int {
	if cmp := compareInt(len(a.entries), len(b.entries)); cmp != 0 {
		return cmp
	}
	for i := range a.entries {
		if cmp := ComparePred(a.entries[i].Guard, b.entries[i].Guard); cmp != 0 {
			return cmp
		} else if cmp := CompareExpr(a.entries[i].Expr, b.entries[i].Expr); cmp != 0 {
			return cmp
		}
	}
	return 0
}
