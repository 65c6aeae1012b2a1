//go:build z3

package z3

import (
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/benbjohnson/schedval"
	"github.com/pkg/errors"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
#include <stdio.h>
*/
import "C"

// Ensure solver implements interface.
var _ schedval.Solver = (*Solver)(nil)

// Solver represents a solver that uses an embedded Z3 solver. The bound
// passed to Solve is used as the Z3 resource limit.
type Solver struct {
	ctx   *Context
	stats Stats
}

// NewSolver returns a new instance of Solver.
func NewSolver() *Solver {
	return &Solver{
		ctx: NewContext(),
	}
}

// Close deletes the underlying Z3 context.
func (s *Solver) Close() error {
	return s.ctx.Close()
}

// Stats returns statistics for the solver.
func (s *Solver) Stats() Stats {
	return s.stats
}

func (s *Solver) Solve(bound int, p schedval.Pred) (satisfiable bool, witness schedval.Assignment, err error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	solver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, solver)

	if err := s.ctx.setResourceLimit(solver, bound); err != nil {
		return false, nil, err
	}

	z3Pred, err := s.ctx.toAST(p)
	if err != nil {
		return false, nil, err
	}
	C.Z3_solver_assert(s.ctx.raw, solver, z3Pred)
	if err := s.ctx.err("Z3_solver_assert"); err != nil {
		return false, nil, err
	}

	// Check equations with the solver.
	// Exit immediately if unsatisfiable or the solver encountered an error.
	ret := C.Z3_solver_check(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		return false, nil, err
	} else if ret == C.Z3_L_FALSE {
		return false, nil, nil
	} else if ret == C.Z3_L_UNDEF {
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, solver))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, nil, schedval.ErrSolverTimeout
		case strings.Contains(reason, "canceled"):
			return false, nil, schedval.ErrSolverCanceled
		case strings.Contains(reason, "resource limits reached"):
			return false, nil, schedval.ErrSolverResourceLimit
		case strings.Contains(reason, "unknown"):
			return false, nil, schedval.ErrSolverUnknown
		default:
			return false, nil, errors.Errorf("z3: %s", reason)
		}
	}

	// Calculate a model for the given formula.
	model := C.Z3_solver_get_model(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}

	witness, err = s.ctx.eval(model, schedval.PredAtoms(p))
	if err != nil {
		return true, nil, err
	}
	return true, witness, nil
}

// Context represents a Z3 context object that is used for constructing expressions.
type Context struct {
	raw C.Z3_context
}

// NewContext returns a new instance of Context.
func NewContext() *Context {
	config := C.Z3_mk_config()
	defer C.Z3_del_config(config)

	raw := C.Z3_mk_context(config)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &Context{raw: raw}
}

// Close deletes the underlying Z3 context.
func (ctx *Context) Close() error {
	C.Z3_del_context(ctx.raw)
	return ctx.err("Z3_del_context")
}

// err returns the error for the last API call. Returns nil if last call was successful.
func (ctx *Context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

// setResourceLimit sets the "rlimit" parameter of the solver.
func (ctx *Context) setResourceLimit(solver C.Z3_solver, bound int) error {
	params := C.Z3_mk_params(ctx.raw)
	if err := ctx.err("Z3_mk_params"); err != nil {
		return err
	}
	C.Z3_params_inc_ref(ctx.raw, params)
	defer C.Z3_params_dec_ref(ctx.raw, params)

	name := C.CString("rlimit")
	defer C.free(unsafe.Pointer(name))

	sym := C.Z3_mk_string_symbol(ctx.raw, name)
	if err := ctx.err("Z3_mk_string_symbol"); err != nil {
		return err
	}
	C.Z3_params_set_uint(ctx.raw, params, sym, C.uint(bound))
	if err := ctx.err("Z3_params_set_uint"); err != nil {
		return err
	}
	C.Z3_solver_set_params(ctx.raw, solver, params)
	return ctx.err("Z3_solver_set_params")
}

// toAST returns a new instance of Z3_ast from a predicate formula.
func (ctx *Context) toAST(p schedval.Pred) (C.Z3_ast, error) {
	switch p := p.(type) {
	case nil:
		return ctx.makeTrue()
	case *schedval.PredConst:
		if p.Value {
			return ctx.makeTrue()
		}
		return ctx.makeFalse()
	case *schedval.PredLit:
		return ctx.toLitAST(p)
	case *schedval.PredAnd:
		return ctx.toBinaryAST(p.LHS, p.RHS, true)
	case *schedval.PredOr:
		return ctx.toBinaryAST(p.LHS, p.RHS, false)
	default:
		return nil, errors.Errorf("z3: unexpected formula type: %T", p)
	}
}

func (ctx *Context) toLitAST(p *schedval.PredLit) (C.Z3_ast, error) {
	atom, err := ctx.makeAtom(p.ID)
	if err != nil {
		return nil, err
	} else if !p.Neg {
		return atom, nil
	}
	return C.Z3_mk_not(ctx.raw, atom), ctx.err("Z3_mk_not")
}

func (ctx *Context) toBinaryAST(lhs, rhs schedval.Pred, and bool) (C.Z3_ast, error) {
	var args [2]C.Z3_ast
	var err error
	if args[0], err = ctx.toAST(lhs); err != nil {
		return nil, err
	} else if args[1], err = ctx.toAST(rhs); err != nil {
		return nil, err
	}

	if and {
		return C.Z3_mk_and(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_and")
	}
	return C.Z3_mk_or(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_or")
}

func (ctx *Context) makeTrue() (C.Z3_ast, error) {
	return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
}

func (ctx *Context) makeFalse() (C.Z3_ast, error) {
	return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
}

// makeAtom returns the boolean constant for a predicate atom.
func (ctx *Context) makeAtom(id int) (C.Z3_ast, error) {
	name := C.CString(atomName(id))
	defer C.free(unsafe.Pointer(name))

	sym := C.Z3_mk_string_symbol(ctx.raw, name)
	if err := ctx.err("Z3_mk_string_symbol"); err != nil {
		return nil, err
	}
	boolSort := C.Z3_mk_bool_sort(ctx.raw)
	if err := ctx.err("Z3_mk_bool_sort"); err != nil {
		return nil, err
	}
	return C.Z3_mk_const(ctx.raw, sym, boolSort), ctx.err("Z3_mk_const")
}

// eval returns the model value of each atom. Atoms not constrained by the
// model are reported as false.
func (ctx *Context) eval(model C.Z3_model, atoms []int) (schedval.Assignment, error) {
	a := make(schedval.Assignment, len(atoms))
	for _, id := range atoms {
		atom, err := ctx.makeAtom(id)
		if err != nil {
			return nil, err
		}

		var out C.Z3_ast
		if !C.Z3_model_eval(ctx.raw, model, atom, true, &out) {
			return nil, errors.Errorf("z3: cannot evaluate %s", atomName(id))
		} else if err := ctx.err("Z3_model_eval"); err != nil {
			return nil, err
		}
		a[id] = C.Z3_get_bool_value(ctx.raw, out) == C.Z3_L_TRUE
	}
	return a, nil
}

func atomName(id int) string {
	return fmt.Sprintf("p%d", id)
}

// Error represents an error from the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}

// Possible error codes.
const (
	ErrorCodeOK = iota
	ErrorCodeSortError
	ErrorCodeIOB
	ErrorCodeInvalidArg
	ErrorCodeParserError
	ErrorCodeNoParser
	ErrorCodeInvalidPattern
	ErrorCodeMemoutFail
	ErrorCodeFileAccessError
	ErrorCodeInternalFatal
	ErrorCodeInvalidUsage
	ErrorCodeDecRefError
	ErrorCodeException
)

type Stats struct {
	SolveN    int
	SolveTime time.Duration
}
