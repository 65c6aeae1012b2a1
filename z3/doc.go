// Package z3 implements schedval.Solver on top of the Z3 theorem prover.
//
// The solver requires libz3 and is only compiled with the z3 build tag.
package z3
