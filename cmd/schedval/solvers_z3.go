//go:build z3

package main

import (
	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/z3"
)

func init() {
	solvers["z3"] = func() (schedval.Solver, func()) {
		s := z3.NewSolver()
		return s, func() { s.Close() }
	}
}
