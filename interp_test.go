package schedval_test

import (
	"testing"

	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/sat"
)

func TestInterp_Update(t *testing.T) {
	t.Run("Nop", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.NopInstr{})
		if f.Len() != 0 {
			t.Fatalf("unexpected forest:\n%s", f.Dump())
		}
	})

	t.Run("Op", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.OpInstr{
			Op:   schedval.Operation{Code: schedval.OpAdd},
			Args: []schedval.Reg{2, 3},
			Dst:  1,
		})
		pe := f.Get(schedval.RegResource(1))
		if pe.Len() != 1 || pe.Entry(0).Guard != nil {
			t.Fatalf("unexpected value: %s", pe)
		} else if got, exp := pe.Entry(0).Expr.String(), "(op add [(base r2) (base r3)] (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})

	t.Run("Load", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.LoadInstr{
			Chunk: schedval.Chunk32,
			Addr:  schedval.Addressing{Mode: schedval.AddrIndexed, Imm: 4},
			Args:  []schedval.Reg{2},
			Dst:   1,
		})
		if got, exp := f.Get(schedval.RegResource(1)).Entry(0).Expr.String(), "(load int32 (indexed 4) [(base r2)] (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})

	t.Run("Store", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.StoreInstr{
			Chunk: schedval.Chunk8,
			Addr:  schedval.Addressing{Mode: schedval.AddrGlobal, Imm: 16},
			Src:   1,
		})
		if f.Len() != 1 {
			t.Fatalf("unexpected forest:\n%s", f.Dump())
		} else if got, exp := f.Get(schedval.MemResource()).Entry(0).Expr.String(), "(store int8 (global 16) [] (base r1) (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})

	t.Run("MergeCardinality", func(t *testing.T) {
		f := schedval.NewForest().
			Set(schedval.RegResource(2), schedval.MustPredExpr(
				schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: baseReg(5)},
				schedval.Guarded{Guard: schedval.NewPredNotLit(1), Expr: baseReg(6)},
			)).
			Set(schedval.RegResource(3), schedval.MustPredExpr(
				schedval.Guarded{Guard: schedval.NewPredLit(2), Expr: baseReg(7)},
				schedval.Guarded{Guard: schedval.NewPredLit(3), Expr: baseReg(8)},
				schedval.Guarded{Expr: baseReg(9)},
			))

		f = schedval.NewInterp(4).Update(f, &schedval.OpInstr{
			Op:   schedval.Operation{Code: schedval.OpAdd},
			Args: []schedval.Reg{2, 3},
			Dst:  1,
		})
		if n := f.Get(schedval.RegResource(1)).Len(); n != 6 {
			t.Fatalf("unexpected entry count: %d", n)
		}
	})

	t.Run("GuardFalse", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.OpInstr{
			Guard: schedval.NewPredConst(false),
			Op:    schedval.Operation{Code: schedval.OpConst, Imm: 1},
			Dst:   1,
		})
		if f.Len() != 0 {
			t.Fatalf("unexpected forest:\n%s", f.Dump())
		}
	})

	t.Run("GuardTrue", func(t *testing.T) {
		f := schedval.NewInterp(1).Update(schedval.NewForest(), &schedval.OpInstr{
			Guard: schedval.NewPredConst(true),
			Op:    schedval.Operation{Code: schedval.OpConst, Imm: 1},
			Dst:   1,
		})
		if pe := f.Get(schedval.RegResource(1)); pe.Len() != 1 || pe.Entry(0).Guard != nil {
			t.Fatalf("unexpected value: %s", pe)
		}
	})

	t.Run("GuardEntryPredicate", func(t *testing.T) {
		f := schedval.NewInterp(2).Update(schedval.NewForest(), &schedval.OpInstr{
			Guard: schedval.NewPredNotLit(1),
			Op:    schedval.Operation{Code: schedval.OpConst, Imm: 1},
			Dst:   1,
		})
		if got, exp := f.Get(schedval.RegResource(1)).String(), "{(not p1) => (op (const 1) [] (base mem)); p1 => (base r1)}"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
}

// Ensure a sequence of guarded writes keeps the guards of a value mutually
// exclusive and exhaustive.
func TestInterp_Update_Partition(t *testing.T) {
	guards := []schedval.Pred{
		schedval.NewPredLit(1),
		schedval.NewPredLit(2),
		schedval.NewPredAnd(schedval.NewPredLit(1), schedval.NewPredLit(3)),
		schedval.NewPredOr(schedval.NewPredNotLit(2), schedval.NewPredLit(3)),
	}

	it := schedval.NewInterp(4)
	f := schedval.NewForest()
	for i, g := range guards {
		f = it.Update(f, &schedval.OpInstr{
			Guard: g,
			Op:    schedval.Operation{Code: schedval.OpConst, Imm: uint64(i)},
			Dst:   1,
		})
	}

	// The last write covers every case the writes of 0, 2 and the entry
	// value could still be taken in.
	pe := f.Get(schedval.RegResource(1))
	if pe.Len() != 2 {
		t.Fatalf("unexpected value: %s", pe)
	}

	solver := sat.New()
	a := pe.Guards()
	for i := range a {
		if ok, _, err := solver.Solve(schedval.DefaultBound, a[i]); err != nil {
			t.Fatal(err)
		} else if !ok {
			t.Fatalf("entry %d is unreachable: %s", i, pe)
		}
	}
	for i := range a {
		for j := i + 1; j < len(a); j++ {
			if ok, witness, err := solver.Solve(schedval.DefaultBound, schedval.NewPredAnd(a[i], a[j])); err != nil {
				t.Fatal(err)
			} else if ok {
				t.Fatalf("guards %d and %d overlap under %v: %s", i, j, witness, pe)
			}
		}
	}

	var any schedval.Pred = schedval.NewPredConst(false)
	for _, g := range a {
		any = schedval.NewPredOr(any, g)
	}
	if ok, witness, err := solver.Solve(schedval.DefaultBound, schedval.Negate(any)); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Fatalf("no guard holds under %v: %s", witness, pe)
	}
}

// Ensure self-dependent updates of a guarded value do not multiply entries.
func TestInterp_AbstractSequence_Chain(t *testing.T) {
	body := []schedval.Instr{op(schedval.NewPredLit(1), schedval.OpConst, 7, 1)}
	for i := 0; i < 8; i++ {
		body = append(body, op(nil, schedval.OpAdd, 0, 1, 1, 1))
	}

	f := schedval.AbstractSequence(schedval.NewForest(), body)
	pe := f.Get(schedval.RegResource(1))
	if pe.Len() != 2 {
		t.Fatalf("unexpected entry count: %d", pe.Len())
	} else if got := pe.Entry(0).Guard.String(); got != "p1" {
		t.Fatalf("unexpected guard: %s", got)
	} else if got := pe.Entry(1).Guard.String(); got != "(not p1)" {
		t.Fatalf("unexpected guard: %s", got)
	}

	// Writing the same value on both paths leaves a single entry.
	f = schedval.AbstractSequence(f, []schedval.Instr{
		op(schedval.NewPredLit(1), schedval.OpConst, 3, 2),
		op(schedval.NewPredNotLit(1), schedval.OpConst, 3, 2),
	})
	if pe := f.Get(schedval.RegResource(2)); pe.Len() != 1 || pe.Entry(0).Guard != nil {
		t.Fatalf("unexpected value: %s", pe)
	}

	if !schedval.NewOracle(sat.New()).Check(
		&schedval.SeqBlock{Body: body, Exit: ret()},
		par(ret(), body...),
	) {
		t.Fatal("expected equivalence")
	}
}

func TestInterp_SetPred(t *testing.T) {
	setpred := &schedval.SetPredInstr{
		Cond: schedval.Condition{Code: schedval.CondEq},
		Args: []schedval.Reg{1, 2},
		Dst:  1,
	}
	move := &schedval.OpInstr{
		Guard: schedval.NewPredLit(1),
		Op:    schedval.Operation{Code: schedval.OpMove},
		Args:  []schedval.Reg{4},
		Dst:   3,
	}

	t.Run("Atom", func(t *testing.T) {
		f := schedval.AbstractSequence(schedval.NewForest(), []schedval.Instr{setpred, move})

		atoms := f.Atoms()
		if atoms == nil || atoms.Floor() != 2 || atoms.Len() != 1 {
			t.Fatalf("unexpected atom table: %#v", atoms)
		} else if got, exp := atoms.Expr(2).String(), "(setpred eq [(base r1) (base r2)] (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}

		pe := f.Get(schedval.RegResource(3))
		if pe.Len() != 2 {
			t.Fatalf("unexpected value: %s", pe)
		} else if got := pe.Entry(0).Guard.String(); got != "p2" {
			t.Fatalf("unexpected guard: %s", got)
		} else if got := pe.Entry(1).Guard.String(); got != "(not p2)" {
			t.Fatalf("unexpected guard: %s", got)
		}
	})

	t.Run("SharedAtom", func(t *testing.T) {
		it := schedval.NewInterp(2)
		fa := it.AbstractSequence(schedval.NewForest(), []schedval.Instr{setpred, move})
		fb := it.AbstractSequence(schedval.NewForest(), []schedval.Instr{setpred, move})
		if it.Atoms().Len() != 1 {
			t.Fatalf("unexpected atom count: %d", it.Atoms().Len())
		} else if schedval.ComparePredExpr(fa.Get(schedval.RegResource(3)), fb.Get(schedval.RegResource(3))) != 0 {
			t.Fatalf("unexpected values: %s != %s", fa.Get(schedval.RegResource(3)), fb.Get(schedval.RegResource(3)))
		}
	})

	t.Run("Unmapped", func(t *testing.T) {
		pe := schedval.AbstractSequence(schedval.NewForest(), []schedval.Instr{setpred}).Get(schedval.PredResource(1))
		if _, ok := pe.Entry(0).Expr.(*schedval.SetPredExpr); !ok || pe.Len() != 1 {
			t.Fatalf("unexpected value: %s", pe)
		}
	})
}
