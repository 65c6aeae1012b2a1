package schedval

import (
	"github.com/benbjohnson/immutable"
)

// AtomTable assigns predicate atoms to boolean values computed inside a
// block. Atoms are allocated upward from a floor that must exceed every
// predicate register referenced by the block so that the entry value of
// predicate register k can keep atom k.
//
// The table is shared by every forest built for the same check and has a
// single writer.
type AtomTable struct {
	floor int
	m     *immutable.Map       // structural SetPredExpr -> atom
	exprs *immutable.SortedMap // atom -> SetPredExpr
}

// NewAtomTable returns an empty table allocating atoms from floor.
func NewAtomTable(floor int) *AtomTable {
	assert(floor > 0, "atom table floor must be positive: %d", floor)
	return &AtomTable{
		floor: floor,
		m:     immutable.NewMap(&exprHasher{}),
		exprs: immutable.NewSortedMap(&intComparer{}),
	}
}

// Floor returns the first atom allocated by the table.
func (t *AtomTable) Floor() int { return t.floor }

// Len returns the number of allocated atoms.
func (t *AtomTable) Len() int { return t.m.Len() }

// Atom returns the atom of e, allocating a new one if e has not been seen.
func (t *AtomTable) Atom(e Expr) int {
	if id, ok := t.Lookup(e); ok {
		return id
	}
	id := t.floor + t.m.Len()
	t.m = t.m.Set(e, id)
	t.exprs = t.exprs.Set(id, e)
	return id
}

// Lookup returns the atom of e if it has been allocated.
func (t *AtomTable) Lookup(e Expr) (int, bool) {
	v, ok := t.m.Get(e)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Expr returns the expression assigned to an atom, or nil.
func (t *AtomTable) Expr(id int) Expr {
	v, ok := t.exprs.Get(id)
	if !ok {
		return nil
	}
	return v.(Expr)
}

// IDs returns the allocated atoms in ascending order.
func (t *AtomTable) IDs() []int {
	a := make([]int, 0, t.exprs.Len())
	itr := t.exprs.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(int))
	}
	return a
}

// intComparer compares two integers. Implements immutable.Comparer.
type intComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b,
// and returns 0 if a is equal to b. Panic if a or b is not an int.
func (c *intComparer) Compare(a, b interface{}) int {
	return compareInt(a.(int), b.(int))
}

// Interp symbolically executes instructions into a forest.
type Interp struct {
	atoms *AtomTable
}

// NewInterp returns an interpreter whose atom table allocates from floor.
func NewInterp(floor int) *Interp {
	return &Interp{atoms: NewAtomTable(floor)}
}

// Atoms returns the atom table of the interpreter.
func (it *Interp) Atoms() *AtomTable { return it.atoms }

// AbstractSequence applies every instruction in order, starting from f.
func (it *Interp) AbstractSequence(f *Forest, instrs []Instr) *Forest {
	for _, instr := range instrs {
		f = it.Update(f, instr)
	}
	return f.withAtoms(it.atoms)
}

// AbstractSequence applies every instruction in order, starting from f,
// with a fresh interpreter. The atom table of f is reused if it has one.
//
// Forests from separate calls number their atoms independently. Check
// reconciles them; comparing their guards directly is meaningless.
func AbstractSequence(f *Forest, instrs []Instr) *Forest {
	if f.atoms != nil {
		return (&Interp{atoms: f.atoms}).AbstractSequence(f, instrs)
	}
	return NewInterp(maxInt(MaxPredReg(instrs), f.MaxAtom())+1).AbstractSequence(f, instrs)
}

// Update returns the forest after executing a single instruction.
func (it *Interp) Update(f *Forest, instr Instr) *Forest {
	f = f.withAtoms(it.atoms)
	mem := f.Get(MemResource())

	switch instr := instr.(type) {
	case *NopInstr:
		return f

	case *OpInstr:
		assert(len(instr.Args) == instr.Op.Code.Arity(), "%s: arity mismatch", instr)
		values := append(it.regValues(f, instr.Args), mem)
		pe := merge(values, func(exprs []Expr) Expr {
			n := len(exprs) - 1
			return NewOpExpr(instr.Op, exprs[:n:n], exprs[n])
		})
		return it.assign(f, RegResource(instr.Dst), instr.Guard, pe)

	case *LoadInstr:
		assert(len(instr.Args) == instr.Addr.Mode.Arity(), "%s: arity mismatch", instr)
		values := append(it.regValues(f, instr.Args), mem)
		pe := merge(values, func(exprs []Expr) Expr {
			n := len(exprs) - 1
			return NewLoadExpr(instr.Chunk, instr.Addr, exprs[:n:n], exprs[n])
		})
		return it.assign(f, RegResource(instr.Dst), instr.Guard, pe)

	case *StoreInstr:
		assert(len(instr.Args) == instr.Addr.Mode.Arity(), "%s: arity mismatch", instr)
		values := append(it.regValues(f, instr.Args), f.Get(RegResource(instr.Src)), mem)
		pe := merge(values, func(exprs []Expr) Expr {
			n := len(exprs) - 2
			return NewStoreExpr(instr.Chunk, instr.Addr, exprs[:n:n], exprs[n], exprs[n+1])
		})
		return it.assign(f, MemResource(), instr.Guard, pe)

	case *SetPredInstr:
		assert(len(instr.Args) == instr.Cond.Code.Arity(), "%s: arity mismatch", instr)
		assert(int(instr.Dst) > 0 && int(instr.Dst) < it.atoms.Floor(), "%s: predicate register out of range", instr)
		values := append(it.regValues(f, instr.Args), mem)
		pe := merge(values, func(exprs []Expr) Expr {
			n := len(exprs) - 1
			return NewSetPredExpr(instr.Cond, exprs[:n:n], exprs[n])
		})
		return it.assign(f, PredResource(instr.Dst), instr.Guard, pe)

	default:
		panic("unreachable")
	}
}

func (it *Interp) regValues(f *Forest, regs []Reg) []*PredExpr {
	a := make([]*PredExpr, len(regs), len(regs)+2)
	for i, r := range regs {
		a[i] = f.Get(RegResource(r))
	}
	return a
}

// assign writes pe to r under guard. New entries are conjoined with the
// translated guard and the previous entries with its negation, so values
// that were a partition remain one. The result is coalesced so that a value
// holds at most one entry per distinct expression.
func (it *Interp) assign(f *Forest, r Resource, guard Pred, pe *PredExpr) *Forest {
	g := it.translate(f, guard)
	if IsPredFalse(g) {
		return f
	} else if !IsPredTrue(g) {
		ng := Negate(g)
		next := pe.Map(func(e Guarded) Guarded {
			return Guarded{Guard: NewPredAnd(g, e.Guard), Expr: e.Expr}
		})
		prev := f.Get(r).Map(func(e Guarded) Guarded {
			return Guarded{Guard: NewPredAnd(ng, e.Guard), Expr: e.Expr}
		})
		pe = next.Append(prev)
	}

	// A value built outside the interpreter may have no reachable entry.
	if v, ok := pe.Coalesce(); ok {
		pe = v
	}
	return f.Set(r, pe)
}

// translate rewrites a guard over predicate registers into a formula over
// atoms using the current predicate values in f.
func (it *Interp) translate(f *Forest, p Pred) Pred {
	switch p := p.(type) {
	case nil:
		return nil
	case *PredConst:
		return p
	case *PredLit:
		v := it.predValue(f, p.ID)
		if p.Neg {
			return Negate(v)
		}
		return v
	case *PredAnd:
		return NewPredAnd(it.translate(f, p.LHS), it.translate(f, p.RHS))
	case *PredOr:
		return NewPredOr(it.translate(f, p.LHS), it.translate(f, p.RHS))
	default:
		panic("unreachable")
	}
}

// predValue returns the formula for the current value of predicate register
// id. Each entry contributes its guard conjoined with the atom of its
// expression.
func (it *Interp) predValue(f *Forest, id int) Pred {
	assert(id > 0 && id < it.atoms.Floor(), "predicate register out of range: p%d", id)

	pe := f.Get(PredResource(PredReg(id)))
	if pe.Len() == 1 && pe.Entry(0).Guard == nil {
		return NewPredLit(it.atomOf(pe.Entry(0).Expr))
	}

	var result Pred = NewPredConst(false)
	for _, e := range pe.entries {
		t := NewPredAnd(e.Guard, NewPredLit(it.atomOf(e.Expr)))
		result = NewPredOr(result, t)
	}
	return result
}

func (it *Interp) atomOf(e Expr) int {
	switch e := e.(type) {
	case *BaseExpr:
		assert(e.Resource.Kind == ResourcePred, "predicate holds non-predicate value: %s", e)
		return int(e.Resource.ID)
	case *SetPredExpr:
		return it.atoms.Atom(e)
	default:
		panic("predicate holds non-predicate value: " + e.String())
	}
}

// merge combines the values of the operands into one predicated value with
// build applied to every combination. The result has one entry per element
// of the cartesian product of the operand entries.
func merge(values []*PredExpr, build func([]Expr) Expr) *PredExpr {
	product := Product(values...)
	entries := make([]Guarded, len(product))
	for i, gl := range product {
		entries[i] = Guarded{Guard: gl.Guard, Expr: build(gl.Exprs)}
	}
	return &PredExpr{entries: entries}
}
