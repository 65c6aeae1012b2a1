package schedval

import (
	"bytes"
	"fmt"
	"hash"
	"hash/fnv"
)

// Expr represents a symbolic value relative to the entry of a block.
type Expr interface {
	expr()
	String() string
}

func (*BaseExpr) expr()    {}
func (*OpExpr) expr()      {}
func (*LoadExpr) expr()    {}
func (*StoreExpr) expr()   {}
func (*SetPredExpr) expr() {}

// BaseExpr represents the value of a resource on entry to the block.
type BaseExpr struct {
	Resource Resource
	hash     uint32
}

// NewBaseExpr returns a new instance of BaseExpr.
func NewBaseExpr(r Resource) *BaseExpr {
	e := &BaseExpr{Resource: r}
	e.hash = computeExprHash(e)
	return e
}

// String returns the string representation of the expression.
func (e *BaseExpr) String() string {
	return fmt.Sprintf("(base %s)", e.Resource)
}

// OpExpr represents a pure operation applied to its arguments. The memory
// snapshot orders the operation relative to loads and stores.
type OpExpr struct {
	Op   Operation
	Args []Expr
	Mem  Expr
	hash uint32
}

// NewOpExpr returns a new instance of OpExpr.
func NewOpExpr(op Operation, args []Expr, mem Expr) *OpExpr {
	assert(len(args) == op.Code.Arity(), "op %s: arity mismatch: %d", op, len(args))
	e := &OpExpr{Op: op, Args: args, Mem: mem}
	e.hash = computeExprHash(e)
	return e
}

// String returns the string representation of the expression.
func (e *OpExpr) String() string {
	return fmt.Sprintf("(op %s %s %s)", e.Op, ExprList(e.Args), e.Mem)
}

// LoadExpr represents a read from memory.
type LoadExpr struct {
	Chunk Chunk
	Addr  Addressing
	Args  []Expr
	Mem   Expr
	hash  uint32
}

// NewLoadExpr returns a new instance of LoadExpr.
func NewLoadExpr(chunk Chunk, addr Addressing, args []Expr, mem Expr) *LoadExpr {
	assert(len(args) == addr.Mode.Arity(), "load %s: arity mismatch: %d", addr, len(args))
	e := &LoadExpr{Chunk: chunk, Addr: addr, Args: args, Mem: mem}
	e.hash = computeExprHash(e)
	return e
}

// String returns the string representation of the expression.
func (e *LoadExpr) String() string {
	return fmt.Sprintf("(load %s %s %s %s)", e.Chunk, e.Addr, ExprList(e.Args), e.Mem)
}

// StoreExpr represents the memory state after a write.
type StoreExpr struct {
	Chunk Chunk
	Addr  Addressing
	Args  []Expr
	Value Expr
	Mem   Expr
	hash  uint32
}

// NewStoreExpr returns a new instance of StoreExpr.
func NewStoreExpr(chunk Chunk, addr Addressing, args []Expr, value, mem Expr) *StoreExpr {
	assert(len(args) == addr.Mode.Arity(), "store %s: arity mismatch: %d", addr, len(args))
	e := &StoreExpr{Chunk: chunk, Addr: addr, Args: args, Value: value, Mem: mem}
	e.hash = computeExprHash(e)
	return e
}

// String returns the string representation of the expression.
func (e *StoreExpr) String() string {
	return fmt.Sprintf("(store %s %s %s %s %s)", e.Chunk, e.Addr, ExprList(e.Args), e.Value, e.Mem)
}

// SetPredExpr represents the boolean result of a condition.
type SetPredExpr struct {
	Cond Condition
	Args []Expr
	Mem  Expr
	hash uint32
}

// NewSetPredExpr returns a new instance of SetPredExpr.
func NewSetPredExpr(cond Condition, args []Expr, mem Expr) *SetPredExpr {
	assert(len(args) == cond.Code.Arity(), "setpred %s: arity mismatch: %d", cond, len(args))
	e := &SetPredExpr{Cond: cond, Args: args, Mem: mem}
	e.hash = computeExprHash(e)
	return e
}

// String returns the string representation of the expression.
func (e *SetPredExpr) String() string {
	return fmt.Sprintf("(setpred %s %s %s)", e.Cond, ExprList(e.Args), e.Mem)
}

// ExprList represents an ordered list of argument expressions.
type ExprList []Expr

// String returns the string representation of the list.
func (a ExprList) String() string {
	var buf bytes.Buffer
	buf.WriteRune('[')
	for i := range a {
		buf.WriteString(a[i].String())
		if i < len(a)-1 {
			buf.WriteRune(' ')
		}
	}
	buf.WriteRune(']')
	return buf.String()
}

// CompareExpr returns an integer comparing two expressions.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func CompareExpr(a, b Expr) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == b {
		return 0
	}

	if ak, bk := exprKind(a), exprKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}

	switch a := a.(type) {
	case *BaseExpr:
		return CompareResource(a.Resource, b.(*BaseExpr).Resource)
	case *OpExpr:
		return compareOpExpr(a, b.(*OpExpr))
	case *LoadExpr:
		return compareLoadExpr(a, b.(*LoadExpr))
	case *StoreExpr:
		return compareStoreExpr(a, b.(*StoreExpr))
	case *SetPredExpr:
		return compareSetPredExpr(a, b.(*SetPredExpr))
	default:
		panic("unreachable")
	}
}

func compareOpExpr(a, b *OpExpr) int {
	if cmp := compareOperation(a.Op, b.Op); cmp != 0 {
		return cmp
	} else if cmp := compareExprList(a.Args, b.Args); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Mem, b.Mem)
}

func compareLoadExpr(a, b *LoadExpr) int {
	if cmp := compareUint64(uint64(a.Chunk), uint64(b.Chunk)); cmp != 0 {
		return cmp
	} else if cmp := compareAddressing(a.Addr, b.Addr); cmp != 0 {
		return cmp
	} else if cmp := compareExprList(a.Args, b.Args); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Mem, b.Mem)
}

func compareStoreExpr(a, b *StoreExpr) int {
	if cmp := compareUint64(uint64(a.Chunk), uint64(b.Chunk)); cmp != 0 {
		return cmp
	} else if cmp := compareAddressing(a.Addr, b.Addr); cmp != 0 {
		return cmp
	} else if cmp := compareExprList(a.Args, b.Args); cmp != 0 {
		return cmp
	} else if cmp := CompareExpr(a.Value, b.Value); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Mem, b.Mem)
}

func compareSetPredExpr(a, b *SetPredExpr) int {
	if cmp := compareCondition(a.Cond, b.Cond); cmp != 0 {
		return cmp
	} else if cmp := compareExprList(a.Args, b.Args); cmp != 0 {
		return cmp
	}
	return CompareExpr(a.Mem, b.Mem)
}

func compareExprList(a, b []Expr) int {
	if cmp := compareInt(len(a), len(b)); cmp != 0 {
		return cmp
	}
	for i := range a {
		if cmp := CompareExpr(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// EqualExpr returns true if a and b are structurally equal. Cached hashes
// are checked first so unequal expressions are usually rejected without a
// full traversal.
func EqualExpr(a, b Expr) bool {
	if a == b {
		return true
	} else if exprHash(a) != exprHash(b) {
		return false
	}
	return CompareExpr(a, b) == 0
}

// exprKind returns a numeric value for the type of expression.
// Only used internally for equality checks and sorting.
func exprKind(expr Expr) int {
	switch expr.(type) {
	case *BaseExpr:
		return 1
	case *OpExpr:
		return 2
	case *LoadExpr:
		return 3
	case *StoreExpr:
		return 4
	case *SetPredExpr:
		return 5
	default:
		panic("unreachable")
	}
}

// exprHash returns the structural hash of the expression. Expressions built
// through their constructors carry a precomputed hash.
func exprHash(expr Expr) uint32 {
	var h uint32
	switch expr := expr.(type) {
	case nil:
		return 0
	case *BaseExpr:
		h = expr.hash
	case *OpExpr:
		h = expr.hash
	case *LoadExpr:
		h = expr.hash
	case *StoreExpr:
		h = expr.hash
	case *SetPredExpr:
		h = expr.hash
	}
	if h != 0 {
		return h
	}
	return computeExprHash(expr)
}

// computeExprHash hashes the node's own fields and the hashes of its children.
func computeExprHash(expr Expr) uint32 {
	w := newHashWriter(uint64(exprKind(expr)))
	switch expr := expr.(type) {
	case *BaseExpr:
		w.write(expr.Resource.Encode())
	case *OpExpr:
		w.write(uint64(expr.Op.Code), expr.Op.Imm)
		w.writeExprs(expr.Args)
		w.write(uint64(exprHash(expr.Mem)))
	case *LoadExpr:
		w.write(uint64(expr.Chunk), uint64(expr.Addr.Mode), expr.Addr.Imm)
		w.writeExprs(expr.Args)
		w.write(uint64(exprHash(expr.Mem)))
	case *StoreExpr:
		w.write(uint64(expr.Chunk), uint64(expr.Addr.Mode), expr.Addr.Imm)
		w.writeExprs(expr.Args)
		w.write(uint64(exprHash(expr.Value)), uint64(exprHash(expr.Mem)))
	case *SetPredExpr:
		w.write(uint64(expr.Cond.Code), expr.Cond.Imm)
		w.writeExprs(expr.Args)
		w.write(uint64(exprHash(expr.Mem)))
	}
	if h := w.sum(); h != 0 {
		return h
	}
	return 1
}

type hashWriter struct {
	buf [8]byte
	h   hash.Hash32
}

func newHashWriter(kind uint64) *hashWriter {
	w := &hashWriter{h: fnv.New32a()}
	w.write(kind)
	return w
}

func (w *hashWriter) write(values ...uint64) {
	for _, v := range values {
		for i := range w.buf {
			w.buf[i] = byte(v >> (8 * uint(i)))
		}
		w.h.Write(w.buf[:])
	}
}

func (w *hashWriter) writeExprs(a []Expr) {
	w.write(uint64(len(a)))
	for _, e := range a {
		w.write(uint64(exprHash(e)))
	}
}

func (w *hashWriter) sum() uint32 { return w.h.Sum32() }

// exprHasher hashes expressions structurally. Implements immutable.Hasher.
type exprHasher struct{}

// Hash returns the structural hash of an expression.
func (h *exprHasher) Hash(key interface{}) uint32 {
	return exprHash(key.(Expr))
}

// Equal returns true if a and b are structurally equal expressions.
func (h *exprHasher) Equal(a, b interface{}) bool {
	return EqualExpr(a.(Expr), b.(Expr))
}

// ExprVisitor represents a visitor that can be passed to WalkExpr().
type ExprVisitor interface {
	// Executed for every visited node. Returning nil skips the children.
	Visit(expr Expr) ExprVisitor
}

// WalkExpr traverses the expression depth-first. Shared sub-expressions are
// visited once for every path that reaches them.
func WalkExpr(v ExprVisitor, expr Expr) {
	if v = v.Visit(expr); v == nil {
		return
	}

	switch expr := expr.(type) {
	case *BaseExpr:
		// nop
	case *OpExpr:
		walkExprList(v, expr.Args)
		WalkExpr(v, expr.Mem)
	case *LoadExpr:
		walkExprList(v, expr.Args)
		WalkExpr(v, expr.Mem)
	case *StoreExpr:
		walkExprList(v, expr.Args)
		WalkExpr(v, expr.Value)
		WalkExpr(v, expr.Mem)
	case *SetPredExpr:
		walkExprList(v, expr.Args)
		WalkExpr(v, expr.Mem)
	default:
		panic("unreachable")
	}
}

func walkExprList(v ExprVisitor, a []Expr) {
	for _, e := range a {
		WalkExpr(v, e)
	}
}

// FindResources returns the resources read by the expressions, in order.
func FindResources(exprs ...Expr) []Resource {
	v := &resourceExprVisitor{m: make(map[Resource]struct{})}
	for _, expr := range exprs {
		WalkExpr(v, expr)
	}

	a := make([]Resource, 0, len(v.m))
	for r := range v.m {
		a = append(a, r)
	}
	sortResources(a)
	return a
}

type resourceExprVisitor struct {
	m map[Resource]struct{}
}

func (v *resourceExprVisitor) Visit(expr Expr) ExprVisitor {
	if expr, ok := expr.(*BaseExpr); ok {
		v.m[expr.Resource] = struct{}{}
	}
	return v
}
