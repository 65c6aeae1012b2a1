package schedval_test

import (
	"testing"

	"github.com/benbjohnson/schedval"
	"github.com/google/go-cmp/cmp"
)

func base(r schedval.Resource) schedval.Expr { return schedval.NewBaseExpr(r) }

func baseReg(r schedval.Reg) schedval.Expr { return base(schedval.RegResource(r)) }

func baseMem() schedval.Expr { return base(schedval.MemResource()) }

func opExpr(code schedval.OpCode, imm uint64, mem schedval.Expr, args ...schedval.Expr) schedval.Expr {
	return schedval.NewOpExpr(schedval.Operation{Code: code, Imm: imm}, args, mem)
}

func TestExpr_String(t *testing.T) {
	t.Run("Op", func(t *testing.T) {
		e := opExpr(schedval.OpAdd, 0, baseMem(), baseReg(2), baseReg(3))
		if got, exp := e.String(), "(op add [(base r2) (base r3)] (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
	t.Run("Store", func(t *testing.T) {
		e := schedval.NewStoreExpr(schedval.Chunk32, schedval.Addressing{Mode: schedval.AddrGlobal, Imm: 8}, nil, baseReg(1), baseMem())
		if got, exp := e.String(), "(store int32 (global 8) [] (base r1) (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
	t.Run("SetPred", func(t *testing.T) {
		e := schedval.NewSetPredExpr(schedval.Condition{Code: schedval.CondEqImm, Imm: 4}, []schedval.Expr{baseReg(1)}, baseMem())
		if got, exp := e.String(), "(setpred (eqimm 4) [(base r1)] (base mem))"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
}

func TestEqualExpr(t *testing.T) {
	t.Run("Structural", func(t *testing.T) {
		a := opExpr(schedval.OpAddImm, 1, baseMem(), opExpr(schedval.OpAdd, 0, baseMem(), baseReg(2), baseReg(3)))
		b := opExpr(schedval.OpAddImm, 1, baseMem(), opExpr(schedval.OpAdd, 0, baseMem(), baseReg(2), baseReg(3)))
		if !schedval.EqualExpr(a, b) {
			t.Fatal("expected equal")
		} else if schedval.CompareExpr(a, b) != 0 {
			t.Fatal("expected zero comparison")
		}
	})
	t.Run("Imm", func(t *testing.T) {
		a := opExpr(schedval.OpAddImm, 1, baseMem(), baseReg(2))
		b := opExpr(schedval.OpAddImm, 2, baseMem(), baseReg(2))
		if schedval.EqualExpr(a, b) {
			t.Fatal("expected not equal")
		}
	})
	t.Run("ArgOrder", func(t *testing.T) {
		a := opExpr(schedval.OpSub, 0, baseMem(), baseReg(2), baseReg(3))
		b := opExpr(schedval.OpSub, 0, baseMem(), baseReg(3), baseReg(2))
		if schedval.EqualExpr(a, b) {
			t.Fatal("expected not equal")
		}
	})
	t.Run("Mem", func(t *testing.T) {
		store := schedval.NewStoreExpr(schedval.Chunk8, schedval.Addressing{Mode: schedval.AddrGlobal}, nil, baseReg(1), baseMem())
		a := opExpr(schedval.OpMove, 0, baseMem(), baseReg(2))
		b := opExpr(schedval.OpMove, 0, store, baseReg(2))
		if schedval.EqualExpr(a, b) {
			t.Fatal("expected memory snapshot to distinguish operations")
		}
	})
}

func TestCompareExpr(t *testing.T) {
	t.Run("Kind", func(t *testing.T) {
		if cmp := schedval.CompareExpr(baseReg(9), opExpr(schedval.OpConst, 0, baseMem())); cmp != -1 {
			t.Fatalf("unexpected comparison: %d", cmp)
		}
	})
	t.Run("Resource", func(t *testing.T) {
		if cmp := schedval.CompareExpr(baseReg(2), baseMem()); cmp != 1 {
			t.Fatalf("unexpected comparison: %d", cmp)
		}
	})
	t.Run("Antisymmetric", func(t *testing.T) {
		a := opExpr(schedval.OpAdd, 0, baseMem(), baseReg(1), baseReg(2))
		b := opExpr(schedval.OpAdd, 0, baseMem(), baseReg(1), baseReg(3))
		if x, y := schedval.CompareExpr(a, b), schedval.CompareExpr(b, a); x != -y || x == 0 {
			t.Fatalf("unexpected comparison: %d, %d", x, y)
		}
	})
}

func TestFindResources(t *testing.T) {
	e := schedval.NewLoadExpr(schedval.Chunk32, schedval.Addressing{Mode: schedval.AddrIndexed2},
		[]schedval.Expr{baseReg(3), opExpr(schedval.OpNeg, 0, baseMem(), baseReg(1))},
		baseMem(),
	)
	var names []string
	for _, r := range schedval.FindResources(e, base(schedval.PredResource(1))) {
		names = append(names, r.String())
	}
	if diff := cmp.Diff(names, []string{"mem", "r1", "p1", "r3"}); diff != "" {
		t.Fatal(diff)
	}
}
