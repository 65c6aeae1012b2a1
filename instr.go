package schedval

import (
	"bytes"
	"fmt"
	"strings"
)

// Instr represents a non-branching instruction. Guards are formulas over
// predicate registers, numbered from one; a nil guard always executes.
type Instr interface {
	instr()
	String() string
}

func (*NopInstr) instr()     {}
func (*OpInstr) instr()      {}
func (*LoadInstr) instr()    {}
func (*StoreInstr) instr()   {}
func (*SetPredInstr) instr() {}

// NopInstr does nothing.
type NopInstr struct{}

// String returns the string representation of the instruction.
func (i *NopInstr) String() string { return "(nop)" }

// OpInstr writes the result of an operation to a register.
type OpInstr struct {
	Guard Pred
	Op    Operation
	Args  []Reg
	Dst   Reg
}

// String returns the string representation of the instruction.
func (i *OpInstr) String() string {
	return guardString(i.Guard, fmt.Sprintf("(op %s %s%s)", i.Op, i.Dst, regsString(i.Args)))
}

// LoadInstr reads memory into a register.
type LoadInstr struct {
	Guard Pred
	Chunk Chunk
	Addr  Addressing
	Args  []Reg
	Dst   Reg
}

// String returns the string representation of the instruction.
func (i *LoadInstr) String() string {
	return guardString(i.Guard, fmt.Sprintf("(load %s %s %s%s)", i.Chunk, i.Addr, i.Dst, regsString(i.Args)))
}

// StoreInstr writes a register to memory.
type StoreInstr struct {
	Guard Pred
	Chunk Chunk
	Addr  Addressing
	Args  []Reg
	Src   Reg
}

// String returns the string representation of the instruction.
func (i *StoreInstr) String() string {
	return guardString(i.Guard, fmt.Sprintf("(store %s %s %s%s)", i.Chunk, i.Addr, i.Src, regsString(i.Args)))
}

// SetPredInstr writes the result of a condition to a predicate register.
type SetPredInstr struct {
	Guard Pred
	Cond  Condition
	Args  []Reg
	Dst   PredReg
}

// String returns the string representation of the instruction.
func (i *SetPredInstr) String() string {
	return guardString(i.Guard, fmt.Sprintf("(setpred %s %s%s)", i.Dst, i.Cond, regsString(i.Args)))
}

func guardString(guard Pred, s string) string {
	if guard == nil {
		return s
	}
	return fmt.Sprintf("(if %s %s)", guard, s)
}

func regsString(a []Reg) string {
	var buf bytes.Buffer
	for _, r := range a {
		buf.WriteRune(' ')
		buf.WriteString(r.String())
	}
	return buf.String()
}

// InstrGuard returns the guard of an instruction.
func InstrGuard(instr Instr) Pred {
	switch instr := instr.(type) {
	case *OpInstr:
		return instr.Guard
	case *LoadInstr:
		return instr.Guard
	case *StoreInstr:
		return instr.Guard
	case *SetPredInstr:
		return instr.Guard
	default:
		return nil
	}
}

// MaxPredReg returns the largest predicate register referenced by the
// instructions, either in a guard or as a destination.
func MaxPredReg(instrs []Instr) int {
	var max int
	for _, instr := range instrs {
		max = maxInt(max, MaxAtom(InstrGuard(instr)))
		if instr, ok := instr.(*SetPredInstr); ok {
			max = maxInt(max, int(instr.Dst))
		}
	}
	return max
}

// Node identifies a block in the control flow graph.
type Node uint32

// CFInstr represents the control flow instruction ending a block.
type CFInstr interface {
	cfinstr()
	String() string
}

func (*CallInstr) cfinstr()      {}
func (*TailCallInstr) cfinstr()  {}
func (*CondInstr) cfinstr()      {}
func (*JumpTableInstr) cfinstr() {}
func (*ReturnInstr) cfinstr()    {}
func (*GotoInstr) cfinstr()      {}

// CallInstr calls a function and continues at Succ.
type CallInstr struct {
	Fn   string
	Args []Reg
	Dst  Reg
	Succ Node
}

// String returns the string representation of the instruction.
func (i *CallInstr) String() string {
	return fmt.Sprintf("(call %s %s (%s) %d)", i.Fn, i.Dst, strings.TrimSpace(regsString(i.Args)), i.Succ)
}

// TailCallInstr calls a function in tail position.
type TailCallInstr struct {
	Fn   string
	Args []Reg
}

// String returns the string representation of the instruction.
func (i *TailCallInstr) String() string {
	return fmt.Sprintf("(tailcall %s (%s))", i.Fn, strings.TrimSpace(regsString(i.Args)))
}

// CondInstr branches on a condition.
type CondInstr struct {
	Cond    Condition
	Args    []Reg
	IfTrue  Node
	IfFalse Node
}

// String returns the string representation of the instruction.
func (i *CondInstr) String() string {
	return fmt.Sprintf("(cond %s (%s) %d %d)", i.Cond, strings.TrimSpace(regsString(i.Args)), i.IfTrue, i.IfFalse)
}

// JumpTableInstr jumps to the target indexed by a register.
type JumpTableInstr struct {
	Arg     Reg
	Targets []Node
}

// String returns the string representation of the instruction.
func (i *JumpTableInstr) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "(jumptable %s", i.Arg)
	for _, n := range i.Targets {
		fmt.Fprintf(&buf, " %d", n)
	}
	buf.WriteRune(')')
	return buf.String()
}

// ReturnInstr returns from the function, optionally with a value.
type ReturnInstr struct {
	HasValue bool
	Value    Reg
}

// String returns the string representation of the instruction.
func (i *ReturnInstr) String() string {
	if i.HasValue {
		return fmt.Sprintf("(return %s)", i.Value)
	}
	return "(return)"
}

// GotoInstr falls through to another block.
type GotoInstr struct {
	Target Node
}

// String returns the string representation of the instruction.
func (i *GotoInstr) String() string {
	return fmt.Sprintf("(goto %d)", i.Target)
}

// CompareCFInstr returns an integer comparing two control flow instructions.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
func CompareCFInstr(a, b CFInstr) int {
	if a == nil && b != nil {
		return -1
	} else if a != nil && b == nil {
		return 1
	} else if a == nil && b == nil {
		return 0
	}

	if ak, bk := cfKind(a), cfKind(b); ak < bk {
		return -1
	} else if ak > bk {
		return 1
	}

	switch a := a.(type) {
	case *CallInstr:
		b := b.(*CallInstr)
		if cmp := strings.Compare(a.Fn, b.Fn); cmp != 0 {
			return cmp
		} else if cmp := compareRegs(a.Args, b.Args); cmp != 0 {
			return cmp
		} else if cmp := compareUint64(uint64(a.Dst), uint64(b.Dst)); cmp != 0 {
			return cmp
		}
		return compareUint64(uint64(a.Succ), uint64(b.Succ))
	case *TailCallInstr:
		b := b.(*TailCallInstr)
		if cmp := strings.Compare(a.Fn, b.Fn); cmp != 0 {
			return cmp
		}
		return compareRegs(a.Args, b.Args)
	case *CondInstr:
		b := b.(*CondInstr)
		if cmp := compareCondition(a.Cond, b.Cond); cmp != 0 {
			return cmp
		} else if cmp := compareRegs(a.Args, b.Args); cmp != 0 {
			return cmp
		} else if cmp := compareUint64(uint64(a.IfTrue), uint64(b.IfTrue)); cmp != 0 {
			return cmp
		}
		return compareUint64(uint64(a.IfFalse), uint64(b.IfFalse))
	case *JumpTableInstr:
		b := b.(*JumpTableInstr)
		if cmp := compareUint64(uint64(a.Arg), uint64(b.Arg)); cmp != 0 {
			return cmp
		} else if cmp := compareInt(len(a.Targets), len(b.Targets)); cmp != 0 {
			return cmp
		}
		for i := range a.Targets {
			if cmp := compareUint64(uint64(a.Targets[i]), uint64(b.Targets[i])); cmp != 0 {
				return cmp
			}
		}
		return 0
	case *ReturnInstr:
		b := b.(*ReturnInstr)
		if cmp := compareBool(a.HasValue, b.HasValue); cmp != 0 || !a.HasValue {
			return cmp
		}
		return compareUint64(uint64(a.Value), uint64(b.Value))
	case *GotoInstr:
		return compareUint64(uint64(a.Target), uint64(b.(*GotoInstr).Target))
	default:
		panic("unreachable")
	}
}

// EqualCFInstr returns true if a and b are the same control flow instruction.
func EqualCFInstr(a, b CFInstr) bool {
	return CompareCFInstr(a, b) == 0
}

func cfKind(instr CFInstr) int {
	switch instr.(type) {
	case *CallInstr:
		return 1
	case *TailCallInstr:
		return 2
	case *CondInstr:
		return 3
	case *JumpTableInstr:
		return 4
	case *ReturnInstr:
		return 5
	case *GotoInstr:
		return 6
	default:
		panic("unreachable")
	}
}

func compareRegs(a, b []Reg) int {
	if cmp := compareInt(len(a), len(b)); cmp != 0 {
		return cmp
	}
	for i := range a {
		if cmp := compareUint64(uint64(a[i]), uint64(b[i])); cmp != 0 {
			return cmp
		}
	}
	return 0
}

// SeqBlock represents a sequential block: a list of instructions and the
// control flow instruction ending it.
type SeqBlock struct {
	Body []Instr
	Exit CFInstr
}

// String returns the string representation of the block.
func (b *SeqBlock) String() string {
	var buf bytes.Buffer
	buf.WriteString("(seq")
	for _, instr := range b.Body {
		fmt.Fprintf(&buf, " %s", instr)
	}
	fmt.Fprintf(&buf, " %s)", b.Exit)
	return buf.String()
}

// Lane represents instructions executed in order within one step.
type Lane []Instr

// Step represents lanes issued together.
type Step []Lane

// ParBlock represents a scheduled block: a list of steps, each of which is
// a list of lanes, and the control flow instruction ending it.
type ParBlock struct {
	Steps []Step
	Exit  CFInstr
}

// Flatten returns the concatenation of every lane of every step.
func (b *ParBlock) Flatten() []Instr {
	var a []Instr
	for _, step := range b.Steps {
		for _, lane := range step {
			a = append(a, lane...)
		}
	}
	return a
}

// IsEmpty returns true if the block contains no instructions.
func (b *ParBlock) IsEmpty() bool {
	for _, step := range b.Steps {
		for _, lane := range step {
			if len(lane) > 0 {
				return false
			}
		}
	}
	return true
}

// String returns the string representation of the block.
func (b *ParBlock) String() string {
	var buf bytes.Buffer
	buf.WriteString("(par")
	for _, step := range b.Steps {
		buf.WriteString(" (step")
		for _, lane := range step {
			buf.WriteString(" (lane")
			for _, instr := range lane {
				fmt.Fprintf(&buf, " %s", instr)
			}
			buf.WriteRune(')')
		}
		buf.WriteRune(')')
	}
	fmt.Fprintf(&buf, " %s)", b.Exit)
	return buf.String()
}
