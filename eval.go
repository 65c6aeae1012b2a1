package schedval

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"
)

// Memory represents a persistent byte-addressed memory. Unwritten bytes
// read as zero.
type Memory struct {
	m *immutable.SortedMap // uint64 -> byte, zero bytes are not stored
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{m: immutable.NewSortedMap(&uint64Comparer{})}
}

// Len returns the number of non-zero bytes.
func (m *Memory) Len() int { return m.m.Len() }

// Load reads a little-endian value of the given width.
func (m *Memory) Load(addr uint64, chunk Chunk) uint64 {
	var v uint64
	for i := uint64(0); i < uint64(chunk); i++ {
		if b, ok := m.m.Get(addr + i); ok {
			v |= uint64(b.(byte)) << (8 * i)
		}
	}
	return v
}

// Store returns a new memory with the low bytes of v written at addr.
func (m *Memory) Store(addr uint64, chunk Chunk, v uint64) *Memory {
	other := m.m
	for i := uint64(0); i < uint64(chunk); i++ {
		if b := byte(v >> (8 * i)); b != 0 {
			other = other.Set(addr+i, b)
		} else {
			other = other.Delete(addr + i)
		}
	}
	return &Memory{m: other}
}

// Equal returns true if both memories hold the same bytes.
func (m *Memory) Equal(other *Memory) bool {
	if m.m.Len() != other.m.Len() {
		return false
	}
	itr, otherItr := m.m.Iterator(), other.m.Iterator()
	for !itr.Done() {
		k0, v0 := itr.Next()
		k1, v1 := otherItr.Next()
		if k0.(uint64) != k1.(uint64) || v0.(byte) != v1.(byte) {
			return false
		}
	}
	return true
}

// String returns the string representation of the memory.
func (m *Memory) String() string {
	var buf bytes.Buffer
	buf.WriteRune('{')
	itr := m.m.Iterator()
	for i := 0; !itr.Done(); i++ {
		k, v := itr.Next()
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%d:%d", k.(uint64), v.(byte))
	}
	buf.WriteRune('}')
	return buf.String()
}

// uint64Comparer compares two 64-bit unsigned integers. Implements immutable.Comparer.
type uint64Comparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a uint64.
func (c *uint64Comparer) Compare(a, b interface{}) int {
	return compareUint64(a.(uint64), b.(uint64))
}

// State represents the concrete machine state at a block boundary.
// Registers missing from Regs hold zero. Predicates missing from Preds are
// undefined.
type State struct {
	Regs  map[Reg]uint64
	Preds map[PredReg]bool
	Mem   *Memory
}

// NewState returns a state with every register zero, no predicate defined,
// and empty memory.
func NewState() *State {
	return &State{
		Regs:  make(map[Reg]uint64),
		Preds: make(map[PredReg]bool),
		Mem:   NewMemory(),
	}
}

// Clone returns a copy of the state. Memory is shared since it is persistent.
func (s *State) Clone() *State {
	other := &State{
		Regs:  make(map[Reg]uint64, len(s.Regs)),
		Preds: make(map[PredReg]bool, len(s.Preds)),
		Mem:   s.Mem,
	}
	for k, v := range s.Regs {
		other.Regs[k] = v
	}
	for k, v := range s.Preds {
		other.Preds[k] = v
	}
	return other
}

// Reg returns the value of a register.
func (s *State) Reg(r Reg) uint64 { return s.Regs[r] }

// assignment returns the defined predicates as an assignment over atoms.
func (s *State) assignment() Assignment {
	a := make(Assignment, len(s.Preds))
	for k, v := range s.Preds {
		a[int(k)] = v
	}
	return a
}

// String returns the string representation of the state.
func (s *State) String() string {
	var buf bytes.Buffer

	regs := make([]int, 0, len(s.Regs))
	for r, v := range s.Regs {
		if v != 0 {
			regs = append(regs, int(r))
		}
	}
	sort.Ints(regs)
	for _, r := range regs {
		fmt.Fprintf(&buf, "%s=%d ", Reg(r), s.Regs[Reg(r)])
	}

	preds := make([]int, 0, len(s.Preds))
	for p := range s.Preds {
		preds = append(preds, int(p))
	}
	sort.Ints(preds)
	for _, p := range preds {
		fmt.Fprintf(&buf, "%s=%v ", PredReg(p), s.Preds[PredReg(p)])
	}

	fmt.Fprintf(&buf, "mem=%s", s.Mem)
	return buf.String()
}

// EqualState returns true if both states agree on every register, every
// predicate and memory.
func EqualState(a, b *State) bool {
	for r, v := range a.Regs {
		if b.Regs[r] != v {
			return false
		}
	}
	for r, v := range b.Regs {
		if a.Regs[r] != v {
			return false
		}
	}

	if len(a.Preds) != len(b.Preds) {
		return false
	}
	for p, v := range a.Preds {
		if other, ok := b.Preds[p]; !ok || other != v {
			return false
		}
	}

	return a.Mem.Equal(b.Mem)
}

// ExecSeq executes the body of a sequential block. Returns the final state
// and the exit instruction.
func ExecSeq(seq *SeqBlock, s *State) (*State, CFInstr, error) {
	s, err := execInstrs(seq.Body, s)
	if err != nil {
		return nil, nil, err
	}
	return s, seq.Exit, nil
}

// ExecPar executes a scheduled block. Steps run in order, as do the lanes
// of a step and the instructions of a lane.
func ExecPar(par *ParBlock, s *State) (*State, CFInstr, error) {
	s, err := execInstrs(par.Flatten(), s)
	if err != nil {
		return nil, nil, err
	}
	return s, par.Exit, nil
}

func execInstrs(instrs []Instr, s *State) (*State, error) {
	s = s.Clone()
	for _, instr := range instrs {
		if err := execInstr(instr, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func execInstr(instr Instr, s *State) error {
	if guard := InstrGuard(instr); guard != nil {
		switch EvaluatePartial(guard, s.assignment()) {
		case TriFalse:
			return nil
		case TriDontCare:
			return errors.Wrapf(ErrUndefinedPredicate, "%s", instr)
		}
	}

	switch instr := instr.(type) {
	case *NopInstr:
		return nil

	case *OpInstr:
		v, err := instr.Op.Eval(regValues(s, instr.Args))
		if err != nil {
			return err
		}
		s.Regs[instr.Dst] = v
		return nil

	case *LoadInstr:
		addr, err := instr.Addr.Eval(regValues(s, instr.Args))
		if err != nil {
			return err
		}
		s.Regs[instr.Dst] = s.Mem.Load(addr, instr.Chunk)
		return nil

	case *StoreInstr:
		addr, err := instr.Addr.Eval(regValues(s, instr.Args))
		if err != nil {
			return err
		}
		s.Mem = s.Mem.Store(addr, instr.Chunk, s.Reg(instr.Src))
		return nil

	case *SetPredInstr:
		v, err := instr.Cond.Eval(regValues(s, instr.Args))
		if err != nil {
			return err
		}
		s.Preds[instr.Dst] = v
		return nil

	default:
		panic("unreachable")
	}
}

func regValues(s *State, regs []Reg) []uint64 {
	a := make([]uint64, len(regs))
	for i, r := range regs {
		a[i] = s.Reg(r)
	}
	return a
}

// EvalForest evaluates every mapped resource of f against the entry state
// and returns the exit state.
func EvalForest(f *Forest, s *State) (*State, error) {
	ev := NewExprEvaluator(s, f.Atoms())
	other := s.Clone()

	for _, r := range f.Resources() {
		pe, _ := f.Lookup(r)
		e, err := ev.Select(pe)
		if err != nil {
			return nil, errors.Wrap(err, r.String())
		}

		switch r.Kind {
		case ResourceMem:
			if other.Mem, err = ev.EvalMem(e); err != nil {
				return nil, err
			}
		case ResourceReg:
			v, err := ev.EvalValue(e)
			if err != nil {
				return nil, err
			}
			other.Regs[Reg(r.ID)] = v
		case ResourcePred:
			v, err := ev.EvalCond(e)
			if err != nil {
				return nil, err
			}
			other.Preds[PredReg(r.ID)] = v
		}
	}
	return other, nil
}

// ExprEvaluator evaluates expressions against a block entry state.
type ExprEvaluator struct {
	state *State
	atoms *AtomTable
}

// NewExprEvaluator returns an evaluator for the entry state s. Guard atoms
// allocated in atoms are evaluated from their expressions; every other
// atom is the entry value of the predicate register with the same number.
func NewExprEvaluator(s *State, atoms *AtomTable) *ExprEvaluator {
	return &ExprEvaluator{state: s, atoms: atoms}
}

// Select returns the expression chosen by the first guard that holds.
func (ev *ExprEvaluator) Select(pe *PredExpr) (Expr, error) {
	for _, g := range pe.entries {
		v, err := ev.EvalGuard(g.Guard)
		if err != nil {
			return nil, err
		} else if v {
			return g.Expr, nil
		}
	}
	return nil, fmt.Errorf("no guard holds: %s", pe)
}

// EvalGuard evaluates a guard over atoms.
func (ev *ExprEvaluator) EvalGuard(p Pred) (bool, error) {
	a := make(Assignment)
	for _, id := range PredAtoms(p) {
		if ev.atoms != nil && id >= ev.atoms.Floor() {
			e := ev.atoms.Expr(id)
			if e == nil {
				return false, fmt.Errorf("unknown atom: %d", id)
			}
			v, err := ev.EvalCond(e)
			if err != nil {
				return false, err
			}
			a[id] = v
		} else if v, ok := ev.state.Preds[PredReg(id)]; ok {
			a[id] = v
		}
	}

	switch EvaluatePartial(p, a) {
	case TriTrue:
		return true, nil
	case TriFalse:
		return false, nil
	default:
		return false, ErrUndefinedPredicate
	}
}

// EvalValue evaluates an expression producing a register value.
func (ev *ExprEvaluator) EvalValue(e Expr) (uint64, error) {
	switch e := e.(type) {
	case *BaseExpr:
		if e.Resource.Kind != ResourceReg {
			return 0, fmt.Errorf("not a register value: %s", e)
		}
		return ev.state.Reg(Reg(e.Resource.ID)), nil
	case *OpExpr:
		args, err := ev.evalArgs(e.Args)
		if err != nil {
			return 0, err
		}
		return e.Op.Eval(args)
	case *LoadExpr:
		args, err := ev.evalArgs(e.Args)
		if err != nil {
			return 0, err
		}
		addr, err := e.Addr.Eval(args)
		if err != nil {
			return 0, err
		}
		mem, err := ev.EvalMem(e.Mem)
		if err != nil {
			return 0, err
		}
		return mem.Load(addr, e.Chunk), nil
	default:
		return 0, fmt.Errorf("not a register value: %s", e)
	}
}

// EvalMem evaluates an expression producing a memory.
func (ev *ExprEvaluator) EvalMem(e Expr) (*Memory, error) {
	switch e := e.(type) {
	case *BaseExpr:
		if e.Resource.Kind != ResourceMem {
			return nil, fmt.Errorf("not a memory value: %s", e)
		}
		return ev.state.Mem, nil
	case *StoreExpr:
		args, err := ev.evalArgs(e.Args)
		if err != nil {
			return nil, err
		}
		addr, err := e.Addr.Eval(args)
		if err != nil {
			return nil, err
		}
		v, err := ev.EvalValue(e.Value)
		if err != nil {
			return nil, err
		}
		mem, err := ev.EvalMem(e.Mem)
		if err != nil {
			return nil, err
		}
		return mem.Store(addr, e.Chunk, v), nil
	default:
		return nil, fmt.Errorf("not a memory value: %s", e)
	}
}

// EvalCond evaluates an expression producing a predicate value.
func (ev *ExprEvaluator) EvalCond(e Expr) (bool, error) {
	switch e := e.(type) {
	case *BaseExpr:
		if e.Resource.Kind != ResourcePred {
			return false, fmt.Errorf("not a predicate value: %s", e)
		}
		v, ok := ev.state.Preds[PredReg(e.Resource.ID)]
		if !ok {
			return false, ErrUndefinedPredicate
		}
		return v, nil
	case *SetPredExpr:
		args, err := ev.evalArgs(e.Args)
		if err != nil {
			return false, err
		}
		return e.Cond.Eval(args)
	default:
		return false, fmt.Errorf("not a predicate value: %s", e)
	}
}

func (ev *ExprEvaluator) evalArgs(a []Expr) ([]uint64, error) {
	args := make([]uint64, len(a))
	for i := range a {
		v, err := ev.EvalValue(a[i])
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
