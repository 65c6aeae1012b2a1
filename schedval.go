package schedval

import (
	"errors"
	"fmt"
)

// DefaultBound is the default step budget handed to the solver for a
// single predicated value comparison.
const DefaultBound = 10000

var (
	ErrSolverTimeout       = errors.New("Solver timeout")
	ErrSolverCanceled      = errors.New("Solver canceled")
	ErrSolverResourceLimit = errors.New("Solver resource limit")
	ErrSolverUnknown       = errors.New("Solver unknown error")
)

var (
	ErrEmptyPredExpr      = errors.New("schedval: empty predicated expression")
	ErrUndefinedPredicate = errors.New("schedval: undefined predicate")
	ErrExitMismatch       = errors.New("schedval: control flow instruction mismatch")
	ErrBodyMismatch       = errors.New("schedval: empty body mismatch")
	ErrBlockMissing       = errors.New("schedval: block missing from schedule")
	ErrTranslation        = errors.New("schedval: could not prove schedule equivalence")
)

// MismatchError is returned when the values of a resource could not be
// proven equal between two forests. The solver may have found a
// counterexample or run out of budget; the two cases are not distinguished.
type MismatchError struct {
	Resource Resource
}

// Error returns the error as a string.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("schedval: could not prove equivalence of %s", e.Resource)
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
