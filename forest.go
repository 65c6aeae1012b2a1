package schedval

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Forest maps every resource to its predicated value at the end of a
// block, relative to the entry of the block. Unmapped resources hold their
// entry value.
//
// Forest is persistent. Set returns a new forest sharing structure with the
// original.
type Forest struct {
	m *immutable.SortedMap

	// Atoms assigned to predicate values written inside the block.
	// Shared by every forest built by the same interpreter.
	atoms *AtomTable
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{m: immutable.NewSortedMap(&resourceComparer{})}
}

// Get returns the predicated value of r. Returns the unconditional entry
// value if r has not been written.
func (f *Forest) Get(r Resource) *PredExpr {
	if pe, ok := f.Lookup(r); ok {
		return pe
	}
	return Singleton(nil, NewBaseExpr(r))
}

// Lookup returns the predicated value of r if it has been written.
func (f *Forest) Lookup(r Resource) (*PredExpr, bool) {
	v, ok := f.m.Get(r)
	if !ok {
		return nil, false
	}
	return v.(*PredExpr), true
}

// Set returns a new forest with r mapped to pe.
func (f *Forest) Set(r Resource, pe *PredExpr) *Forest {
	assert(pe != nil && pe.Len() > 0, "forest.Set: empty value for %s", r)
	return &Forest{m: f.m.Set(r, pe), atoms: f.atoms}
}

// Len returns the number of mapped resources.
func (f *Forest) Len() int { return f.m.Len() }

// Resources returns the mapped resources in encoding order.
func (f *Forest) Resources() []Resource {
	a := make([]Resource, 0, f.m.Len())
	itr := f.m.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(Resource))
	}
	return a
}

// Atoms returns the predicate atom table used to build the forest.
// Returns nil if the forest has only been built with Set.
func (f *Forest) Atoms() *AtomTable { return f.atoms }

// withAtoms returns a copy of the forest bound to the given atom table.
func (f *Forest) withAtoms(atoms *AtomTable) *Forest {
	if f.atoms == atoms {
		return f
	}
	return &Forest{m: f.m, atoms: atoms}
}

// MaxAtom returns the largest predicate atom in any guard of the forest.
func (f *Forest) MaxAtom() int {
	var max int
	itr := f.m.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		max = maxInt(max, v.(*PredExpr).MaxAtom())
	}
	return max
}

// rebase returns f with the atoms allocated by its table reallocated in t.
// Returns false if a guard references an atom the table never allocated.
func (f *Forest) rebase(t *AtomTable) (*Forest, bool) {
	from, ok := f.atoms, true
	rename := func(id int) int {
		if id < from.Floor() {
			return id
		}
		e := from.Expr(id)
		if e == nil {
			ok = false
			return id
		}
		return t.Atom(e)
	}

	other := NewForest().withAtoms(t)
	itr := f.m.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		other = other.Set(k.(Resource), v.(*PredExpr).Map(func(g Guarded) Guarded {
			return Guarded{Guard: RenameAtoms(g.Guard, rename), Expr: g.Expr}
		}))
	}
	return other, ok
}

// Dump returns the contents of the forest as a string.
func (f *Forest) Dump() string {
	var buf bytes.Buffer
	itr := f.m.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		fmt.Fprintf(&buf, "%s:\n", k.(Resource))
		for _, g := range v.(*PredExpr).entries {
			fmt.Fprintf(&buf, "  + %s\n", g)
		}
	}
	if f.atoms != nil && f.atoms.Len() > 0 {
		fmt.Fprintln(&buf, "atoms:")
		for _, id := range f.atoms.IDs() {
			fmt.Fprintf(&buf, "  p%d = %s\n", id, f.atoms.Expr(id))
		}
	}
	return buf.String()
}
