package main

import (
	"github.com/benbjohnson/schedval"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the schedval command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedval",
		Short: "Validate predicated block schedules.",
		Long: `Schedval checks that every scheduled block of a function is equivalent to
its sequential original.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if getFlag(cmd, "verbose") {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolP("verbose", "v", false, "log rejection reasons")
	cmd.PersistentFlags().String("solver", "dpll", "decision procedure: "+solverNames())
	cmd.PersistentFlags().Int("bound", schedval.DefaultBound, "solver step budget per comparison")

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewForestCommand())
	return cmd
}

// newOracle returns an oracle configured from the persistent flags. The
// returned function releases the solver.
func newOracle(cmd *cobra.Command) (*schedval.Oracle, func(), error) {
	name, _ := cmd.Flags().GetString("solver")
	open, ok := solvers[name]
	if !ok {
		return nil, nil, errors.Errorf("unknown solver: %q", name)
	}
	solver, closeFn := open()

	o := schedval.NewOracle(solver)
	o.Bound = getInt(cmd, "bound")
	if o.Bound <= 0 {
		closeFn()
		return nil, nil, errors.Errorf("bound must be positive: %d", o.Bound)
	}
	return o, closeFn, nil
}

func getFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(err)
	}
	return v
}

func getInt(cmd *cobra.Command, name string) int {
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(err)
	}
	return v
}
