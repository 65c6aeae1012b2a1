package syntax

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benbjohnson/schedval"
	"github.com/pkg/errors"
)

// ParseFile parses every function in the file at path.
func ParseFile(path string) ([]*schedval.Function, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fns, err := Parse(string(buf))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return fns, nil
}

// Parse parses every function in src.
func Parse(src string) ([]*schedval.Function, error) {
	exprs, err := ReadAll(src)
	if err != nil {
		return nil, err
	}

	var p parser
	fns := make([]*schedval.Function, 0, len(exprs))
	for _, e := range exprs {
		fn, err := p.parseFunction(e)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// ParseInstr parses a single instruction.
func ParseInstr(src string) (schedval.Instr, error) {
	e, err := readOne(src)
	if err != nil {
		return nil, err
	}
	var p parser
	return p.parseInstr(e)
}

// ParsePred parses a single predicate formula.
func ParsePred(src string) (schedval.Pred, error) {
	e, err := readOne(src)
	if err != nil {
		return nil, err
	}
	var p parser
	return p.parsePred(e)
}

func readOne(src string) (SExp, error) {
	exprs, err := ReadAll(src)
	if err != nil {
		return nil, err
	} else if len(exprs) != 1 {
		return nil, &Error{Pos: Pos{Line: 1, Col: 1}, Msg: fmt.Sprintf("expected one expression, found %d", len(exprs))}
	}
	return exprs[0], nil
}

type parser struct{}

func errorf(e SExp, format string, args ...interface{}) error {
	return &Error{Pos: e.Pos(), Msg: fmt.Sprintf(format, args...)}
}

// list returns e as a list with the given head and at least n elements.
func (p *parser) list(e SExp, head string, n int) (*List, error) {
	l, ok := e.(*List)
	if !ok || l.Head() != head {
		return nil, errorf(e, "expected (%s ...), found %s", head, e)
	} else if l.Len() < n {
		return nil, errorf(e, "%s: expected at least %d elements, found %d", head, n, l.Len())
	}
	return l, nil
}

func (p *parser) symbol(e SExp) (string, error) {
	sym, ok := e.(*Symbol)
	if !ok {
		return "", errorf(e, "expected symbol, found %s", e)
	}
	return sym.Value, nil
}

func (p *parser) parseFunction(e SExp) (*schedval.Function, error) {
	l, err := p.list(e, "function", 2)
	if err != nil {
		return nil, err
	}
	name, err := p.symbol(l.Elements[1])
	if err != nil {
		return nil, err
	}

	fn := schedval.NewFunction(name)
	for _, elem := range l.Elements[2:] {
		if err := p.parseBlock(fn, elem); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func (p *parser) parseBlock(fn *schedval.Function, e SExp) error {
	l, err := p.list(e, "block", 3)
	if err != nil {
		return err
	}
	node, err := p.parseNode(l.Elements[1])
	if err != nil {
		return err
	} else if _, ok := fn.Seq[node]; ok {
		return errorf(e, "duplicate block: %d", node)
	} else if _, ok := fn.Par[node]; ok {
		return errorf(e, "duplicate block: %d", node)
	}

	for _, elem := range l.Elements[2:] {
		switch elem := elem.(type) {
		case *List:
			switch elem.Head() {
			case "seq":
				if fn.Seq[node] != nil {
					return errorf(elem, "block %d: duplicate seq", node)
				}
				if fn.Seq[node], err = p.parseSeq(elem); err != nil {
					return err
				}
				continue
			case "par":
				if fn.Par[node] != nil {
					return errorf(elem, "block %d: duplicate par", node)
				}
				if fn.Par[node], err = p.parsePar(elem); err != nil {
					return err
				}
				continue
			}
		}
		return errorf(elem, "expected (seq ...) or (par ...), found %s", elem)
	}
	return nil
}

func (p *parser) parseSeq(l *List) (*schedval.SeqBlock, error) {
	if l.Len() < 2 {
		return nil, errorf(l, "seq: missing exit instruction")
	}

	var b schedval.SeqBlock
	for _, elem := range l.Elements[1 : l.Len()-1] {
		instr, err := p.parseInstr(elem)
		if err != nil {
			return nil, err
		}
		b.Body = append(b.Body, instr)
	}

	exit, err := p.parseExit(l.Elements[l.Len()-1])
	if err != nil {
		return nil, err
	}
	b.Exit = exit
	return &b, nil
}

func (p *parser) parsePar(l *List) (*schedval.ParBlock, error) {
	if l.Len() < 2 {
		return nil, errorf(l, "par: missing exit instruction")
	}

	var b schedval.ParBlock
	for _, elem := range l.Elements[1 : l.Len()-1] {
		sl, err := p.list(elem, "step", 1)
		if err != nil {
			return nil, err
		}

		var step schedval.Step
		for _, laneElem := range sl.Elements[1:] {
			ll, err := p.list(laneElem, "lane", 1)
			if err != nil {
				return nil, err
			}

			var lane schedval.Lane
			for _, instrElem := range ll.Elements[1:] {
				instr, err := p.parseInstr(instrElem)
				if err != nil {
					return nil, err
				}
				lane = append(lane, instr)
			}
			step = append(step, lane)
		}
		b.Steps = append(b.Steps, step)
	}

	exit, err := p.parseExit(l.Elements[l.Len()-1])
	if err != nil {
		return nil, err
	}
	b.Exit = exit
	return &b, nil
}

func (p *parser) parseInstr(e SExp) (schedval.Instr, error) {
	l, ok := e.(*List)
	if !ok {
		return nil, errorf(e, "expected instruction, found %s", e)
	}

	switch l.Head() {
	case "nop":
		if l.Len() != 1 {
			return nil, errorf(e, "nop: unexpected arguments")
		}
		return &schedval.NopInstr{}, nil

	case "if":
		if l.Len() != 3 {
			return nil, errorf(e, "if: expected (if PRED INSTR)")
		}
		guard, err := p.parsePred(l.Elements[1])
		if err != nil {
			return nil, err
		}
		instr, err := p.parseInstr(l.Elements[2])
		if err != nil {
			return nil, err
		}
		return p.guard(l.Elements[2], instr, guard)

	case "op":
		if l.Len() < 3 {
			return nil, errorf(e, "op: expected (op OPER DST ARG...)")
		}
		op, err := p.parseOperation(l.Elements[1])
		if err != nil {
			return nil, err
		}
		dst, err := p.parseReg(l.Elements[2])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegs(l.Elements[3:])
		if err != nil {
			return nil, err
		} else if len(args) != op.Code.Arity() {
			return nil, errorf(e, "%s: expected %d arguments, found %d", op.Code, op.Code.Arity(), len(args))
		}
		return &schedval.OpInstr{Op: op, Args: args, Dst: dst}, nil

	case "load", "store":
		if l.Len() < 4 {
			return nil, errorf(e, "%s: expected (%s CHUNK ADDR REG ARG...)", l.Head(), l.Head())
		}
		chunk, err := p.parseChunk(l.Elements[1])
		if err != nil {
			return nil, err
		}
		addr, err := p.parseAddressing(l.Elements[2])
		if err != nil {
			return nil, err
		}
		reg, err := p.parseReg(l.Elements[3])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegs(l.Elements[4:])
		if err != nil {
			return nil, err
		} else if len(args) != addr.Mode.Arity() {
			return nil, errorf(e, "%s: expected %d arguments, found %d", addr.Mode, addr.Mode.Arity(), len(args))
		}
		if l.Head() == "load" {
			return &schedval.LoadInstr{Chunk: chunk, Addr: addr, Args: args, Dst: reg}, nil
		}
		return &schedval.StoreInstr{Chunk: chunk, Addr: addr, Args: args, Src: reg}, nil

	case "setpred":
		if l.Len() < 3 {
			return nil, errorf(e, "setpred: expected (setpred DST COND ARG...)")
		}
		dst, err := p.parsePredReg(l.Elements[1])
		if err != nil {
			return nil, err
		}
		cond, err := p.parseCondition(l.Elements[2])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegs(l.Elements[3:])
		if err != nil {
			return nil, err
		} else if len(args) != cond.Code.Arity() {
			return nil, errorf(e, "%s: expected %d arguments, found %d", cond.Code, cond.Code.Arity(), len(args))
		}
		return &schedval.SetPredInstr{Cond: cond, Args: args, Dst: dst}, nil

	default:
		return nil, errorf(e, "unknown instruction: %s", e)
	}
}

// guard returns instr with its guard set.
func (p *parser) guard(e SExp, instr schedval.Instr, guard schedval.Pred) (schedval.Instr, error) {
	if schedval.InstrGuard(instr) != nil {
		return nil, errorf(e, "instruction already guarded: %s", instr)
	}

	switch instr := instr.(type) {
	case *schedval.NopInstr:
		return instr, nil
	case *schedval.OpInstr:
		instr.Guard = guard
	case *schedval.LoadInstr:
		instr.Guard = guard
	case *schedval.StoreInstr:
		instr.Guard = guard
	case *schedval.SetPredInstr:
		instr.Guard = guard
	}
	return instr, nil
}

func (p *parser) parseExit(e SExp) (schedval.CFInstr, error) {
	l, ok := e.(*List)
	if !ok {
		return nil, errorf(e, "expected exit instruction, found %s", e)
	}

	switch l.Head() {
	case "goto":
		if l.Len() != 2 {
			return nil, errorf(e, "goto: expected (goto N)")
		}
		n, err := p.parseNode(l.Elements[1])
		if err != nil {
			return nil, err
		}
		return &schedval.GotoInstr{Target: n}, nil

	case "return":
		switch l.Len() {
		case 1:
			return &schedval.ReturnInstr{}, nil
		case 2:
			r, err := p.parseReg(l.Elements[1])
			if err != nil {
				return nil, err
			}
			return &schedval.ReturnInstr{HasValue: true, Value: r}, nil
		default:
			return nil, errorf(e, "return: expected (return [R])")
		}

	case "call":
		if l.Len() != 5 {
			return nil, errorf(e, "call: expected (call FN DST (ARG...) N)")
		}
		name, err := p.symbol(l.Elements[1])
		if err != nil {
			return nil, err
		}
		dst, err := p.parseReg(l.Elements[2])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegList(l.Elements[3])
		if err != nil {
			return nil, err
		}
		succ, err := p.parseNode(l.Elements[4])
		if err != nil {
			return nil, err
		}
		return &schedval.CallInstr{Fn: name, Args: args, Dst: dst, Succ: succ}, nil

	case "tailcall":
		if l.Len() != 3 {
			return nil, errorf(e, "tailcall: expected (tailcall FN (ARG...))")
		}
		name, err := p.symbol(l.Elements[1])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegList(l.Elements[2])
		if err != nil {
			return nil, err
		}
		return &schedval.TailCallInstr{Fn: name, Args: args}, nil

	case "cond":
		if l.Len() != 5 {
			return nil, errorf(e, "cond: expected (cond COND (ARG...) N N)")
		}
		cond, err := p.parseCondition(l.Elements[1])
		if err != nil {
			return nil, err
		}
		args, err := p.parseRegList(l.Elements[2])
		if err != nil {
			return nil, err
		} else if len(args) != cond.Code.Arity() {
			return nil, errorf(e, "%s: expected %d arguments, found %d", cond.Code, cond.Code.Arity(), len(args))
		}
		ifTrue, err := p.parseNode(l.Elements[3])
		if err != nil {
			return nil, err
		}
		ifFalse, err := p.parseNode(l.Elements[4])
		if err != nil {
			return nil, err
		}
		return &schedval.CondInstr{Cond: cond, Args: args, IfTrue: ifTrue, IfFalse: ifFalse}, nil

	case "jumptable":
		if l.Len() < 2 {
			return nil, errorf(e, "jumptable: expected (jumptable R N...)")
		}
		arg, err := p.parseReg(l.Elements[1])
		if err != nil {
			return nil, err
		}
		instr := &schedval.JumpTableInstr{Arg: arg}
		for _, elem := range l.Elements[2:] {
			n, err := p.parseNode(elem)
			if err != nil {
				return nil, err
			}
			instr.Targets = append(instr.Targets, n)
		}
		return instr, nil

	default:
		return nil, errorf(e, "unknown exit instruction: %s", e)
	}
}

func (p *parser) parsePred(e SExp) (schedval.Pred, error) {
	switch e := e.(type) {
	case *Symbol:
		switch e.Value {
		case "true":
			return schedval.NewPredConst(true), nil
		case "false":
			return schedval.NewPredConst(false), nil
		}
		id, err := p.parsePredReg(e)
		if err != nil {
			return nil, err
		}
		return schedval.NewPredLit(int(id)), nil

	case *List:
		switch e.Head() {
		case "not":
			if e.Len() != 2 {
				return nil, errorf(e, "not: expected (not P)")
			}
			arg, err := p.parsePred(e.Elements[1])
			if err != nil {
				return nil, err
			}
			return schedval.Negate(arg), nil

		case "and", "or":
			var result schedval.Pred = schedval.NewPredConst(e.Head() == "and")
			for _, elem := range e.Elements[1:] {
				arg, err := p.parsePred(elem)
				if err != nil {
					return nil, err
				}
				if e.Head() == "and" {
					result = schedval.NewPredAnd(result, arg)
				} else {
					result = schedval.NewPredOr(result, arg)
				}
			}
			return result, nil
		}
	}
	return nil, errorf(e, "expected predicate, found %s", e)
}

// parseNamed returns the name and optional immediate of SYM or (SYM IMM).
func (p *parser) parseNamed(e SExp) (name string, imm uint64, hasImm bool, err error) {
	switch e := e.(type) {
	case *Symbol:
		return e.Value, 0, false, nil
	case *List:
		if e.Len() != 2 {
			return "", 0, false, errorf(e, "expected (name imm), found %s", e)
		}
		if name, err = p.symbol(e.Elements[0]); err != nil {
			return "", 0, false, err
		}
		if imm, err = p.parseImm(e.Elements[1]); err != nil {
			return "", 0, false, err
		}
		return name, imm, true, nil
	}
	return "", 0, false, errorf(e, "unexpected %s", e)
}

func (p *parser) parseOperation(e SExp) (schedval.Operation, error) {
	name, imm, hasImm, err := p.parseNamed(e)
	if err != nil {
		return schedval.Operation{}, err
	}
	code, ok := schedval.ParseOpCode(name)
	if !ok {
		return schedval.Operation{}, errorf(e, "unknown operation: %s", name)
	} else if code.HasImm() != hasImm {
		return schedval.Operation{}, errorf(e, "%s: immediate mismatch", name)
	}
	return schedval.Operation{Code: code, Imm: imm}, nil
}

func (p *parser) parseCondition(e SExp) (schedval.Condition, error) {
	name, imm, hasImm, err := p.parseNamed(e)
	if err != nil {
		return schedval.Condition{}, err
	}
	code, ok := schedval.ParseCondCode(name)
	if !ok {
		return schedval.Condition{}, errorf(e, "unknown condition: %s", name)
	} else if code.HasImm() != hasImm {
		return schedval.Condition{}, errorf(e, "%s: immediate mismatch", name)
	}
	return schedval.Condition{Code: code, Imm: imm}, nil
}

func (p *parser) parseAddressing(e SExp) (schedval.Addressing, error) {
	name, imm, hasImm, err := p.parseNamed(e)
	if err != nil {
		return schedval.Addressing{}, err
	}
	mode, ok := schedval.ParseAddrMode(name)
	if !ok {
		return schedval.Addressing{}, errorf(e, "unknown addressing mode: %s", name)
	} else if mode.HasImm() != hasImm {
		return schedval.Addressing{}, errorf(e, "%s: immediate mismatch", name)
	}
	return schedval.Addressing{Mode: mode, Imm: imm}, nil
}

func (p *parser) parseChunk(e SExp) (schedval.Chunk, error) {
	name, err := p.symbol(e)
	if err != nil {
		return 0, err
	}
	chunk, ok := schedval.ParseChunk(name)
	if !ok {
		return 0, errorf(e, "unknown chunk: %s", name)
	}
	return chunk, nil
}

func (p *parser) parseImm(e SExp) (uint64, error) {
	s, err := p.symbol(e)
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, errorf(e, "invalid immediate: %s", s)
		}
		return uint64(v), nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errorf(e, "invalid immediate: %s", s)
	}
	return v, nil
}

func (p *parser) parseNode(e SExp) (schedval.Node, error) {
	s, err := p.symbol(e)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errorf(e, "invalid node: %s", s)
	}
	return schedval.Node(v), nil
}

func (p *parser) parseReg(e SExp) (schedval.Reg, error) {
	v, err := p.parseNumbered(e, "r")
	return schedval.Reg(v), err
}

func (p *parser) parsePredReg(e SExp) (schedval.PredReg, error) {
	v, err := p.parseNumbered(e, "p")
	if err == nil && v == 0 {
		return 0, errorf(e, "predicate registers are numbered from 1: %s", e)
	}
	return schedval.PredReg(v), err
}

func (p *parser) parseNumbered(e SExp, prefix string) (uint32, error) {
	s, err := p.symbol(e)
	if err != nil {
		return 0, err
	} else if !strings.HasPrefix(s, prefix) {
		return 0, errorf(e, "expected %sN, found %s", prefix, s)
	}
	v, err := strconv.ParseUint(s[len(prefix):], 10, 32)
	if err != nil {
		return 0, errorf(e, "expected %sN, found %s", prefix, s)
	}
	return uint32(v), nil
}

func (p *parser) parseRegs(a []SExp) ([]schedval.Reg, error) {
	regs := make([]schedval.Reg, 0, len(a))
	for _, e := range a {
		r, err := p.parseReg(e)
		if err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, nil
}

func (p *parser) parseRegList(e SExp) ([]schedval.Reg, error) {
	l, ok := e.(*List)
	if !ok {
		return nil, errorf(e, "expected (ARG...), found %s", e)
	}
	return p.parseRegs(l.Elements)
}
