//go:build z3

package z3_test

import (
	"testing"

	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/z3"
	"github.com/google/go-cmp/cmp"
)

func TestSolver_Solve(t *testing.T) {
	t.Run("Constant", func(t *testing.T) {
		t.Run("True", func(t *testing.T) {
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			if satisfiable, _, err := s.Solve(schedval.DefaultBound, schedval.NewPredConst(true)); err != nil {
				t.Fatal(err)
			} else if !satisfiable {
				t.Fatal("expected satisfiable")
			}
		})
		t.Run("False", func(t *testing.T) {
			s := z3.NewSolver()
			defer MustCloseSolver(s)
			if satisfiable, _, err := s.Solve(schedval.DefaultBound, schedval.NewPredConst(false)); err != nil {
				t.Fatal(err)
			} else if satisfiable {
				t.Fatal("expected unsatisfiable")
			}
		})
	})

	t.Run("Witness", func(t *testing.T) {
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		p := schedval.NewPredAnd(schedval.NewPredLit(1), schedval.NewPredNotLit(2))
		if satisfiable, witness, err := s.Solve(schedval.DefaultBound, p); err != nil {
			t.Fatal(err)
		} else if !satisfiable {
			t.Fatal("expected satisfiable")
		} else if diff := cmp.Diff(witness, schedval.Assignment{1: true, 2: false}); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Contradiction", func(t *testing.T) {
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		p := schedval.NewPredAnd(
			schedval.NewPredOr(schedval.NewPredLit(1), schedval.NewPredLit(2)),
			schedval.NewPredAnd(schedval.NewPredNotLit(1), schedval.NewPredNotLit(2)),
		)
		if satisfiable, _, err := s.Solve(schedval.DefaultBound, p); err != nil {
			t.Fatal(err)
		} else if satisfiable {
			t.Fatal("expected unsatisfiable")
		}
	})

	t.Run("Check", func(t *testing.T) {
		s := z3.NewSolver()
		defer MustCloseSolver(s)

		a := schedval.NewForest().Set(schedval.RegResource(2), schedval.MustPredExpr(
			schedval.Guarded{Guard: schedval.NewPredLit(1), Expr: schedval.NewBaseExpr(schedval.RegResource(3))},
			schedval.Guarded{Guard: schedval.NewPredNotLit(1), Expr: schedval.NewBaseExpr(schedval.RegResource(2))},
		))
		if !schedval.Check(s, schedval.DefaultBound, a, a) {
			t.Fatal("expected equivalent")
		}
	})
}

func MustCloseSolver(s *z3.Solver) {
	if err := s.Close(); err != nil {
		panic(err)
	}
}
