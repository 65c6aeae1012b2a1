package schedval

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Function represents the blocks of a function before and after scheduling.
type Function struct {
	Name string
	Seq  map[Node]*SeqBlock
	Par  map[Node]*ParBlock
}

// NewFunction returns a function with no blocks.
func NewFunction(name string) *Function {
	return &Function{
		Name: name,
		Seq:  make(map[Node]*SeqBlock),
		Par:  make(map[Node]*ParBlock),
	}
}

// Nodes returns every node of the function in ascending order.
func (fn *Function) Nodes() []Node {
	m := make(map[Node]struct{}, len(fn.Seq))
	for n := range fn.Seq {
		m[n] = struct{}{}
	}
	for n := range fn.Par {
		m[n] = struct{}{}
	}

	a := make([]Node, 0, len(m))
	for n := range m {
		a = append(a, n)
	}
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	return a
}

// Driver validates every block of a function.
type Driver struct {
	Oracle *Oracle

	// Larger bounds tried, in order, after a block is rejected.
	Bounds []int
}

// NewDriver returns a new instance of Driver.
func NewDriver(oracle *Oracle) *Driver {
	return &Driver{Oracle: oracle}
}

// Validate checks every block of fn in node order. Returns an error wrapping
// ErrTranslation for the first rejected block.
func (d *Driver) Validate(fn *Function) error {
	for _, n := range fn.Nodes() {
		seq, par := fn.Seq[n], fn.Par[n]
		if seq == nil || par == nil {
			return errors.Wrapf(ErrBlockMissing, "%s: block %d", fn.Name, n)
		}

		if err := d.ValidateBlock(seq, par); err != nil {
			log.Debugf("[driver] %s: block %d rejected: %s", fn.Name, n, err)
			return &TranslationError{Function: fn.Name, Node: n, Err: err}
		}
	}
	return nil
}

// ValidateBlock checks a single block with the oracle bound, then with each
// retry bound. Structural rejections are not retried.
func (d *Driver) ValidateBlock(seq *SeqBlock, par *ParBlock) error {
	err := d.Oracle.Verify(seq, par)
	if _, ok := err.(*MismatchError); !ok {
		return err
	}

	for _, bound := range d.Bounds {
		if bound <= d.Oracle.Bound {
			continue
		}
		log.Debugf("[driver] retrying with bound %d", bound)

		o := *d.Oracle
		o.Bound = bound
		if err = o.Verify(seq, par); err == nil {
			return nil
		}
	}
	return err
}

// TranslationError is returned when a block of a function is rejected.
type TranslationError struct {
	Function string
	Node     Node
	Err      error
}

// Error returns the error as a string.
func (e *TranslationError) Error() string {
	return errors.Wrapf(e.Err, "%s: %s: block %d", ErrTranslation, e.Function, e.Node).Error()
}

// Cause returns ErrTranslation so that errors.Cause identifies the failure.
func (e *TranslationError) Cause() error { return ErrTranslation }

// Unwrap returns the reason the block was rejected.
func (e *TranslationError) Unwrap() error { return e.Err }
