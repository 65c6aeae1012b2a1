package schedval

import (
	"github.com/benbjohnson/immutable"
)

// HashTable interns expressions into integer handles. Structurally equal
// expressions share a handle. HashTable is persistent.
type HashTable struct {
	handles *immutable.Map       // Expr -> handle
	exprs   *immutable.SortedMap // handle -> Expr
	max     int
}

// NewHashTable returns an empty table.
func NewHashTable() *HashTable {
	return &HashTable{
		handles: immutable.NewMap(&exprHasher{}),
		exprs:   immutable.NewSortedMap(&intComparer{}),
	}
}

// Len returns the number of interned expressions.
func (t *HashTable) Len() int { return t.handles.Len() }

// Max returns the largest handle in the table, or zero if empty.
func (t *HashTable) Max() int { return t.max }

// Find returns the handle of e if it has been interned.
func (t *HashTable) Find(e Expr) (int, bool) {
	v, ok := t.handles.Get(e)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Lookup returns the expression for a handle, or nil.
func (t *HashTable) Lookup(handle int) Expr {
	v, ok := t.exprs.Get(handle)
	if !ok {
		return nil
	}
	return v.(Expr)
}

func (t *HashTable) insert(e Expr, handle int) *HashTable {
	return &HashTable{
		handles: t.handles.Set(e, handle),
		exprs:   t.exprs.Set(handle, e),
		max:     maxInt(t.max, handle),
	}
}

// HashExpr returns the handle of e and the table containing it. An
// expression already in t keeps its handle. A new one receives the handle
// one above both max and the largest handle in t, so handles never collide
// with predicate atoms up to max.
func HashExpr(max int, e Expr, t *HashTable) (int, *HashTable) {
	if handle, ok := t.Find(e); ok {
		return handle, t
	}
	handle := maxInt(max, t.max) + 1
	return handle, t.insert(e, handle)
}

// HashPredExpr interns every expression of pe. Returns the handles in entry
// order and the resulting table.
func HashPredExpr(max int, pe *PredExpr, t *HashTable) ([]int, *HashTable) {
	handles := make([]int, pe.Len())
	for i, e := range pe.entries {
		handles[i], t = HashExpr(max, e.Expr, t)
	}
	return handles, t
}
