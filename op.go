package schedval

import (
	"fmt"
)

// OpCode represents a pure register operation.
type OpCode int

// Operation codes.
const (
	op_begin = OpCode(iota)
	OpMove
	OpConst
	OpAdd
	OpAddImm
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShru
	OpNeg
	OpNot
	op_end
)

var opCodes = [...]string{
	OpMove:   "move",
	OpConst:  "const",
	OpAdd:    "add",
	OpAddImm: "addimm",
	OpSub:    "sub",
	OpMul:    "mul",
	OpAnd:    "and",
	OpOr:     "or",
	OpXor:    "xor",
	OpShl:    "shl",
	OpShru:   "shru",
	OpNeg:    "neg",
	OpNot:    "not",
}

// String returns the string representation of the operation code.
func (c OpCode) String() string {
	if c >= 0 && c < OpCode(len(opCodes)) && opCodes[c] != "" {
		return opCodes[c]
	}
	return fmt.Sprintf("OpCode<%d>", c)
}

// IsValid returns true if c is a known operation code.
func (c OpCode) IsValid() bool {
	return c > op_begin && c < op_end
}

// Arity returns the number of register arguments the operation reads.
func (c OpCode) Arity() int {
	switch c {
	case OpConst:
		return 0
	case OpMove, OpAddImm, OpNeg, OpNot:
		return 1
	default:
		return 2
	}
}

// HasImm returns true if the operation carries an immediate.
func (c OpCode) HasImm() bool {
	return c == OpConst || c == OpAddImm
}

// ParseOpCode returns the operation code with the given name.
func ParseOpCode(s string) (OpCode, bool) {
	for i, name := range opCodes {
		if name != "" && name == s {
			return OpCode(i), true
		}
	}
	return 0, false
}

// Operation represents an operation code with its immediate.
type Operation struct {
	Code OpCode
	Imm  uint64
}

// String returns the string representation of the operation.
func (op Operation) String() string {
	if op.Code.HasImm() {
		return fmt.Sprintf("(%s %d)", op.Code, op.Imm)
	}
	return op.Code.String()
}

// Eval computes the operation over concrete arguments.
func (op Operation) Eval(args []uint64) (uint64, error) {
	if len(args) != op.Code.Arity() {
		return 0, fmt.Errorf("%s: expected %d arguments, got %d", op.Code, op.Code.Arity(), len(args))
	}

	switch op.Code {
	case OpMove:
		return args[0], nil
	case OpConst:
		return op.Imm, nil
	case OpAdd:
		return args[0] + args[1], nil
	case OpAddImm:
		return args[0] + op.Imm, nil
	case OpSub:
		return args[0] - args[1], nil
	case OpMul:
		return args[0] * args[1], nil
	case OpAnd:
		return args[0] & args[1], nil
	case OpOr:
		return args[0] | args[1], nil
	case OpXor:
		return args[0] ^ args[1], nil
	case OpShl:
		return args[0] << (args[1] & 63), nil
	case OpShru:
		return args[0] >> (args[1] & 63), nil
	case OpNeg:
		return -args[0], nil
	case OpNot:
		return ^args[0], nil
	default:
		return 0, fmt.Errorf("invalid operation: %s", op.Code)
	}
}

func compareOperation(a, b Operation) int {
	if cmp := compareInt(int(a.Code), int(b.Code)); cmp != 0 {
		return cmp
	}
	return compareUint64(a.Imm, b.Imm)
}

// CondCode represents a comparison used to set a predicate or branch.
type CondCode int

// Condition codes.
const (
	cond_begin = CondCode(iota)
	CondEq
	CondNe
	CondLt
	CondLtu
	CondLe
	CondLeu
	CondEqImm
	CondNeImm
	CondLtImm
	CondLtuImm
	cond_end
)

var condCodes = [...]string{
	CondEq:     "eq",
	CondNe:     "ne",
	CondLt:     "lt",
	CondLtu:    "ltu",
	CondLe:     "le",
	CondLeu:    "leu",
	CondEqImm:  "eqimm",
	CondNeImm:  "neimm",
	CondLtImm:  "ltimm",
	CondLtuImm: "ltuimm",
}

// String returns the string representation of the condition code.
func (c CondCode) String() string {
	if c >= 0 && c < CondCode(len(condCodes)) && condCodes[c] != "" {
		return condCodes[c]
	}
	return fmt.Sprintf("CondCode<%d>", c)
}

// IsValid returns true if c is a known condition code.
func (c CondCode) IsValid() bool {
	return c > cond_begin && c < cond_end
}

// HasImm returns true if the condition compares against an immediate.
func (c CondCode) HasImm() bool {
	return c >= CondEqImm && c <= CondLtuImm
}

// Arity returns the number of register arguments the condition reads.
func (c CondCode) Arity() int {
	if c.HasImm() {
		return 1
	}
	return 2
}

// ParseCondCode returns the condition code with the given name.
func ParseCondCode(s string) (CondCode, bool) {
	for i, name := range condCodes {
		if name != "" && name == s {
			return CondCode(i), true
		}
	}
	return 0, false
}

// Condition represents a condition code with its immediate.
type Condition struct {
	Code CondCode
	Imm  uint64
}

// String returns the string representation of the condition.
func (c Condition) String() string {
	if c.Code.HasImm() {
		return fmt.Sprintf("(%s %d)", c.Code, c.Imm)
	}
	return c.Code.String()
}

// Eval computes the condition over concrete arguments.
func (c Condition) Eval(args []uint64) (bool, error) {
	if len(args) != c.Code.Arity() {
		return false, fmt.Errorf("%s: expected %d arguments, got %d", c.Code, c.Code.Arity(), len(args))
	}

	switch c.Code {
	case CondEq:
		return args[0] == args[1], nil
	case CondNe:
		return args[0] != args[1], nil
	case CondLt:
		return int64(args[0]) < int64(args[1]), nil
	case CondLtu:
		return args[0] < args[1], nil
	case CondLe:
		return int64(args[0]) <= int64(args[1]), nil
	case CondLeu:
		return args[0] <= args[1], nil
	case CondEqImm:
		return args[0] == c.Imm, nil
	case CondNeImm:
		return args[0] != c.Imm, nil
	case CondLtImm:
		return int64(args[0]) < int64(c.Imm), nil
	case CondLtuImm:
		return args[0] < c.Imm, nil
	default:
		return false, fmt.Errorf("invalid condition: %s", c.Code)
	}
}

func compareCondition(a, b Condition) int {
	if cmp := compareInt(int(a.Code), int(b.Code)); cmp != 0 {
		return cmp
	}
	return compareUint64(a.Imm, b.Imm)
}

// AddrMode represents how a memory address is built from its arguments.
type AddrMode int

// Addressing modes.
const (
	AddrIndexed  = AddrMode(iota + 1) // arg0 + imm
	AddrIndexed2                      // arg0 + arg1
	AddrGlobal                        // imm
)

var addrModes = [...]string{
	AddrIndexed:  "indexed",
	AddrIndexed2: "indexed2",
	AddrGlobal:   "global",
}

// String returns the string representation of the addressing mode.
func (m AddrMode) String() string {
	if m >= 0 && m < AddrMode(len(addrModes)) && addrModes[m] != "" {
		return addrModes[m]
	}
	return fmt.Sprintf("AddrMode<%d>", m)
}

// IsValid returns true if m is a known addressing mode.
func (m AddrMode) IsValid() bool {
	return m >= AddrIndexed && m <= AddrGlobal
}

// Arity returns the number of register arguments the mode reads.
func (m AddrMode) Arity() int {
	switch m {
	case AddrIndexed:
		return 1
	case AddrIndexed2:
		return 2
	default:
		return 0
	}
}

// HasImm returns true if the mode carries an immediate.
func (m AddrMode) HasImm() bool {
	return m == AddrIndexed || m == AddrGlobal
}

// ParseAddrMode returns the addressing mode with the given name.
func ParseAddrMode(s string) (AddrMode, bool) {
	for i, name := range addrModes {
		if name != "" && name == s {
			return AddrMode(i), true
		}
	}
	return 0, false
}

// Addressing represents an addressing mode with its immediate.
type Addressing struct {
	Mode AddrMode
	Imm  uint64
}

// String returns the string representation of the addressing.
func (a Addressing) String() string {
	if a.Mode.HasImm() {
		return fmt.Sprintf("(%s %d)", a.Mode, a.Imm)
	}
	return a.Mode.String()
}

// Eval computes the address from concrete arguments.
func (a Addressing) Eval(args []uint64) (uint64, error) {
	if len(args) != a.Mode.Arity() {
		return 0, fmt.Errorf("%s: expected %d arguments, got %d", a.Mode, a.Mode.Arity(), len(args))
	}

	switch a.Mode {
	case AddrIndexed:
		return args[0] + a.Imm, nil
	case AddrIndexed2:
		return args[0] + args[1], nil
	case AddrGlobal:
		return a.Imm, nil
	default:
		return 0, fmt.Errorf("invalid addressing mode: %s", a.Mode)
	}
}

func compareAddressing(a, b Addressing) int {
	if cmp := compareInt(int(a.Mode), int(b.Mode)); cmp != 0 {
		return cmp
	}
	return compareUint64(a.Imm, b.Imm)
}

// Chunk represents the width, in bytes, of a memory access.
type Chunk uint

// Supported chunks.
const (
	Chunk8  = Chunk(1)
	Chunk16 = Chunk(2)
	Chunk32 = Chunk(4)
	Chunk64 = Chunk(8)
)

// IsValid returns true if c is a supported chunk.
func (c Chunk) IsValid() bool {
	return c == Chunk8 || c == Chunk16 || c == Chunk32 || c == Chunk64
}

// String returns the string representation of the chunk.
func (c Chunk) String() string {
	return fmt.Sprintf("int%d", c*8)
}

// ParseChunk returns the chunk with the given name.
func ParseChunk(s string) (Chunk, bool) {
	for _, c := range []Chunk{Chunk8, Chunk16, Chunk32, Chunk64} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

func compareUint64(a, b uint64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
