package main

import (
	"sort"
	"strings"

	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/sat"
)

// solvers maps solver names to constructors. Each constructor returns the
// solver and a function releasing it.
var solvers = map[string]func() (schedval.Solver, func()){
	"dpll": func() (schedval.Solver, func()) {
		return sat.New(), func() {}
	},
	"truthtable": func() (schedval.Solver, func()) {
		return sat.NewTruthTable(), func() {}
	},
}

func solverNames() string {
	a := make([]string, 0, len(solvers))
	for name := range solvers {
		a = append(a, name)
	}
	sort.Strings(a)
	return strings.Join(a, "|")
}
