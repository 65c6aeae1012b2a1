package schedval_test

import (
	"testing"

	"github.com/benbjohnson/schedval"
)

func TestNewPredExpr(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if _, err := schedval.NewPredExpr(); err != schedval.ErrEmptyPredExpr {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("NilExpr", func(t *testing.T) {
		if _, err := schedval.NewPredExpr(schedval.Guarded{Guard: schedval.NewPredLit(1)}); err != schedval.ErrEmptyPredExpr {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("OK", func(t *testing.T) {
		pe, err := schedval.NewPredExpr(
			schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: baseReg(1)},
			schedval.Guarded{Expr: baseReg(2)},
		)
		if err != nil {
			t.Fatal(err)
		} else if got, exp := pe.String(), "{p1 => (base r1); _ => (base r2)}"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
}

func TestPredExpr_Select(t *testing.T) {
	pe := schedval.MustPredExpr(
		schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: baseReg(1)},
		schedval.Guarded{Guard: schedval.NewPredLit(2), Expr: baseReg(2)},
		schedval.Guarded{Guard: schedval.NewPredConst(true), Expr: baseReg(3)},
	)

	t.Run("FirstMatch", func(t *testing.T) {
		if got := pe.Select(schedval.Assignment{1: true, 2: true}); !schedval.EqualExpr(got, baseReg(1)) {
			t.Fatalf("unexpected selection: %s", got)
		}
	})
	t.Run("Second", func(t *testing.T) {
		if got := pe.Select(schedval.Assignment{2: true}); !schedval.EqualExpr(got, baseReg(2)) {
			t.Fatalf("unexpected selection: %s", got)
		}
	})
	t.Run("Fallback", func(t *testing.T) {
		if got := pe.Select(nil); !schedval.EqualExpr(got, baseReg(3)) {
			t.Fatalf("unexpected selection: %s", got)
		}
	})
	t.Run("None", func(t *testing.T) {
		pe := schedval.Singleton(schedval.NewPredLit(1), baseReg(1))
		if got := pe.Select(nil); got != nil {
			t.Fatalf("unexpected selection: %s", got)
		}
	})
}

func TestPredExpr_Prune(t *testing.T) {
	t.Run("Partial", func(t *testing.T) {
		pe := schedval.MustPredExpr(
			schedval.Guarded{Guard: schedval.NewPredConst(false), Expr: baseReg(1)},
			schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: baseReg(2)},
		)
		other, ok := pe.Prune()
		if !ok {
			t.Fatal("expected entries")
		} else if other.Len() != 1 || !schedval.EqualExpr(other.Entry(0).Expr, baseReg(2)) {
			t.Fatalf("unexpected value: %s", other)
		} else if pe.Len() != 2 {
			t.Fatal("expected original to be unchanged")
		}
	})
	t.Run("All", func(t *testing.T) {
		pe := schedval.Singleton(schedval.NewPredConst(false), baseReg(1))
		if _, ok := pe.Prune(); ok {
			t.Fatal("expected no entries")
		}
	})
}

func TestPredExpr_Coalesce(t *testing.T) {
	p1, n1 := schedval.NewPredLit(1), schedval.NewPredNotLit(1)

	t.Run("Unsatisfiable", func(t *testing.T) {
		pe := schedval.MustPredExpr(
			schedval.Guarded{Guard: schedval.NewPredAnd(p1, n1), Expr: baseReg(1)},
			schedval.Guarded{Guard: p1, Expr: baseReg(2)},
		)
		if other, ok := pe.Coalesce(); !ok {
			t.Fatal("expected entries")
		} else if got, exp := other.String(), "{p1 => (base r2)}"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})

	t.Run("Equal", func(t *testing.T) {
		pe := schedval.MustPredExpr(
			schedval.Guarded{Guard: p1, Expr: baseReg(2)},
			schedval.Guarded{Guard: n1, Expr: baseReg(2)},
		)
		if other, ok := pe.Coalesce(); !ok {
			t.Fatal("expected entries")
		} else if other.Len() != 1 || other.Entry(0).Guard != nil {
			t.Fatalf("unexpected value: %s", other)
		}
	})

	// The folded entry must not capture cases taken by the entry in between.
	t.Run("FirstMatch", func(t *testing.T) {
		pe := schedval.MustPredExpr(
			schedval.Guarded{Guard: p1, Expr: baseReg(2)},
			schedval.Guarded{Guard: schedval.NewPredLit(2), Expr: baseReg(3)},
			schedval.Guarded{Expr: baseReg(2)},
		)
		other, ok := pe.Coalesce()
		if !ok {
			t.Fatal("expected entries")
		} else if other.Len() != 2 {
			t.Fatalf("unexpected value: %s", other)
		}
		for _, a := range []schedval.Assignment{{}, {1: true}, {2: true}, {1: true, 2: true}} {
			if !schedval.EqualExpr(pe.Select(a), other.Select(a)) {
				t.Fatalf("selection differs under %v: %s != %s", a, pe, other)
			}
		}
	})

	t.Run("None", func(t *testing.T) {
		if _, ok := schedval.Singleton(schedval.NewPredAnd(p1, n1), baseReg(1)).Coalesce(); ok {
			t.Fatal("expected no entries")
		}
	})
}

func TestProduct(t *testing.T) {
	a := schedval.MustPredExpr(
		schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: baseReg(1)},
		schedval.Guarded{Guard: schedval.NewPredNotLit(1), Expr: baseReg(2)},
	)
	b := schedval.MustPredExpr(
		schedval.Guarded{Guard: schedval.NewPredLit(2), Expr: baseReg(3)},
		schedval.Guarded{Guard: schedval.NewPredLit(3), Expr: baseReg(4)},
		schedval.Guarded{Expr: baseReg(5)},
	)

	t.Run("Cardinality", func(t *testing.T) {
		product := schedval.Product(a, b)
		if len(product) != 6 {
			t.Fatalf("unexpected length: %d", len(product))
		}
		for _, gl := range product {
			if len(gl.Exprs) != 2 {
				t.Fatalf("unexpected width: %d", len(gl.Exprs))
			}
		}
	})
	t.Run("Guards", func(t *testing.T) {
		product := schedval.Product(a, b)
		if got, exp := product[0].Guard.String(), "(and p1 p2)"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		} else if got, exp := product[2].Guard.String(), "p1"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		} else if got, exp := product[4].Guard.String(), "(and (not p1) p3)"; got != exp {
			t.Fatalf("got=%s, expected %s", got, exp)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		product := schedval.Product()
		if len(product) != 1 || product[0].Guard != nil || len(product[0].Exprs) != 0 {
			t.Fatalf("unexpected product: %#v", product)
		}
	})
}

func TestComparePredExpr(t *testing.T) {
	a := schedval.Singleton(schedval.NewPredLit(1), baseReg(1))
	b := schedval.Singleton(schedval.NewPredLit(1), baseReg(1))
	c := schedval.Singleton(schedval.NewPredLit(1), baseReg(2))
	if schedval.ComparePredExpr(a, b) != 0 {
		t.Fatal("expected equal")
	} else if schedval.ComparePredExpr(a, c) != -1 {
		t.Fatal("expected less")
	}
}
