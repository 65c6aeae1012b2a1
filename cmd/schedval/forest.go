package main

import (
	"fmt"
	"io"

	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/syntax"
	"github.com/spf13/cobra"
)

// NewForestCommand returns the "forest" subcommand.
func NewForestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "forest FILE",
		Short: "Print the forests of every block in a file.",
		Args:  cobra.ExactArgs(1),
		RunE:  runForest,
	}
}

func runForest(cmd *cobra.Command, args []string) error {
	o, closeFn, err := newOracle(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	fns, err := syntax.ParseFile(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, fn := range fns {
		fmt.Fprintf(w, "function %s\n", fn.Name)
		for _, n := range fn.Nodes() {
			seq, par := fn.Seq[n], fn.Par[n]
			if seq == nil || par == nil {
				fmt.Fprintf(w, "block %d: %s\n", n, schedval.ErrBlockMissing)
				continue
			}

			fa, fb := o.Forests(seq, par)
			fmt.Fprintf(w, "block %d\n", n)
			writeForest(w, "seq", fa)
			writeForest(w, "par", fb)
			if err := o.Verify(seq, par); err != nil {
				fmt.Fprintf(w, "verdict: %s\n", err)
			} else {
				fmt.Fprintln(w, "verdict: ok")
			}
		}
	}
	return nil
}

func writeForest(w io.Writer, label string, f *schedval.Forest) {
	fmt.Fprintf(w, "%s:\n", label)
	if f.Len() == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	fmt.Fprint(w, f.Dump())
}
