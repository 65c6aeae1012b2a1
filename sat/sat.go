// Package sat implements bounded decision procedures for predicate formulas.
package sat

import (
	"github.com/benbjohnson/schedval"
	"golang.org/x/tools/container/intsets"
)

// Ensure solvers implement interface.
var (
	_ schedval.Solver = (*Solver)(nil)
	_ schedval.Solver = (*TruthTable)(nil)
)

// Solver decides formulas with DPLL and unit propagation over a Tseitin
// encoding. Every variable assignment, whether decided or propagated,
// counts as one step against the bound.
type Solver struct{}

// New returns a new instance of Solver.
func New() *Solver {
	return &Solver{}
}

// Solve returns true and a satisfying assignment if p is satisfiable.
// Returns schedval.ErrSolverResourceLimit if the bound is exceeded.
func (s *Solver) Solve(bound int, p schedval.Pred) (bool, schedval.Assignment, error) {
	if p == nil {
		return true, schedval.Assignment{}, nil
	} else if c, ok := p.(*schedval.PredConst); ok {
		if c.Value {
			return true, schedval.Assignment{}, nil
		}
		return false, nil, nil
	}

	cnf := NewCNF()
	cnf.AddClause(cnf.Encode(p))

	d := newDPLL(cnf, bound)
	sat, err := d.search()
	if err != nil {
		return false, nil, err
	} else if !sat {
		return false, nil, nil
	}
	return true, d.witness(), nil
}

// CNF represents a formula in conjunctive normal form. Literals are
// non-zero integers; a negative literal is the negation of its variable.
type CNF struct {
	Clauses [][]int

	vars  int
	atoms map[int]int // atom -> variable
	memo  map[schedval.Pred]int
	ctrue int
}

// NewCNF returns an empty formula.
func NewCNF() *CNF {
	return &CNF{
		atoms: make(map[int]int),
		memo:  make(map[schedval.Pred]int),
	}
}

// VarN returns the number of variables.
func (c *CNF) VarN() int { return c.vars }

// AddClause appends a clause of literals.
func (c *CNF) AddClause(lits ...int) {
	c.Clauses = append(c.Clauses, lits)
}

func (c *CNF) newVar() int {
	c.vars++
	return c.vars
}

// Atom returns the variable for a predicate atom.
func (c *CNF) Atom(id int) int {
	if v, ok := c.atoms[id]; ok {
		return v
	}
	v := c.newVar()
	c.atoms[id] = v
	return v
}

// Encode returns a literal equivalent to p, adding the defining clauses.
// Shared sub-formulas are encoded once.
func (c *CNF) Encode(p schedval.Pred) int {
	if v, ok := c.memo[p]; ok {
		return v
	}

	var lit int
	switch p := p.(type) {
	case nil:
		lit = c.constTrue()
	case *schedval.PredConst:
		if lit = c.constTrue(); !p.Value {
			lit = -lit
		}
	case *schedval.PredLit:
		if lit = c.Atom(p.ID); p.Neg {
			lit = -lit
		}
	case *schedval.PredAnd:
		a, b := c.Encode(p.LHS), c.Encode(p.RHS)
		lit = c.newVar()
		c.AddClause(-lit, a)
		c.AddClause(-lit, b)
		c.AddClause(lit, -a, -b)
	case *schedval.PredOr:
		a, b := c.Encode(p.LHS), c.Encode(p.RHS)
		lit = c.newVar()
		c.AddClause(-lit, a, b)
		c.AddClause(lit, -a)
		c.AddClause(lit, -b)
	default:
		panic("unreachable")
	}

	if p != nil {
		c.memo[p] = lit
	}
	return lit
}

func (c *CNF) constTrue() int {
	if c.ctrue == 0 {
		c.ctrue = c.newVar()
		c.AddClause(c.ctrue)
	}
	return c.ctrue
}

// dpll holds the search state for a single Solve call.
type dpll struct {
	cnf    *CNF
	value  []int8 // indexed by variable: 0 unassigned, 1 true, -1 false
	free   intsets.Sparse
	trail  []int
	steps  int
	bound  int
	failed bool
}

func newDPLL(cnf *CNF, bound int) *dpll {
	d := &dpll{
		cnf:   cnf,
		value: make([]int8, cnf.VarN()+1),
		bound: bound,
	}
	for v := 1; v <= cnf.VarN(); v++ {
		d.free.Insert(v)
	}
	return d
}

func (d *dpll) litValue(lit int) int8 {
	if lit < 0 {
		return -d.value[-lit]
	}
	return d.value[lit]
}

// assign sets lit to true. Returns false once the bound is exceeded.
func (d *dpll) assign(lit int) bool {
	if d.steps++; d.steps > d.bound {
		d.failed = true
		return false
	}
	v := lit
	if v < 0 {
		v = -v
		d.value[v] = -1
	} else {
		d.value[v] = 1
	}
	d.free.Remove(v)
	d.trail = append(d.trail, v)
	return true
}

// undo unassigns every variable assigned after the trail reached n.
func (d *dpll) undo(n int) {
	for _, v := range d.trail[n:] {
		d.value[v] = 0
		d.free.Insert(v)
	}
	d.trail = d.trail[:n]
}

// propagate assigns unit literals until fixpoint. Returns false on conflict
// or when the bound is exceeded.
func (d *dpll) propagate() bool {
	for changed := true; changed; {
		changed = false
		for _, clause := range d.cnf.Clauses {
			var unit, unassigned int
			satisfied := false
			for _, lit := range clause {
				switch d.litValue(lit) {
				case 1:
					satisfied = true
				case 0:
					unit, unassigned = lit, unassigned+1
				}
				if satisfied {
					break
				}
			}

			if satisfied {
				continue
			} else if unassigned == 0 {
				return false
			} else if unassigned == 1 {
				if !d.assign(unit) {
					return false
				}
				changed = true
			}
		}
	}
	return true
}

func (d *dpll) search() (bool, error) {
	mark := len(d.trail)
	if !d.propagate() {
		d.undo(mark)
		return false, d.err()
	}

	if d.free.IsEmpty() {
		return true, nil
	}
	v := d.free.Min()

	for _, lit := range []int{v, -v} {
		n := len(d.trail)
		if !d.assign(lit) {
			return false, d.err()
		}
		if ok, err := d.search(); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
		d.undo(n)
	}

	d.undo(mark)
	return false, nil
}

func (d *dpll) err() error {
	if d.failed {
		return schedval.ErrSolverResourceLimit
	}
	return nil
}

// witness returns the values of the predicate atoms.
func (d *dpll) witness() schedval.Assignment {
	a := make(schedval.Assignment, len(d.cnf.atoms))
	for id, v := range d.cnf.atoms {
		a[id] = d.value[v] == 1
	}
	return a
}
