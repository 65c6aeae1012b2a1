package main

import (
	"fmt"

	"github.com/benbjohnson/schedval"
	"github.com/benbjohnson/schedval/syntax"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCheckCommand returns the "check" subcommand.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] FILE...",
		Short: "Validate every function in the given files.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().IntSlice("retry", nil, "larger bounds to retry rejected blocks with")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	o, closeFn, err := newOracle(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	d := schedval.NewDriver(o)
	if d.Bounds, err = cmd.Flags().GetIntSlice("retry"); err != nil {
		return err
	}

	var rejected int
	for _, path := range args {
		fns, err := syntax.ParseFile(path)
		if err != nil {
			return err
		}
		log.Debugf("[check] %s: %d functions", path, len(fns))

		for _, fn := range fns {
			if err := d.Validate(fn); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL\t%s\t%s\n", fn.Name, err)
				rejected++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\n", fn.Name)
		}
	}

	if rejected > 0 {
		return errors.Errorf("%d function(s) rejected", rejected)
	}
	return nil
}
