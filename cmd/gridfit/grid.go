package main

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/gridfit/config"
)

func newGridCmd() *cobra.Command {
	var levels int

	cmd := &cobra.Command{
		Use:   "grid JOB",
		Short: "Print the grid geometry of every resolution level of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.LoadFile(args[0])
			if err != nil {
				return err
			}
			g, err := job.BuildGrid()
			if err != nil {
				return err
			}
			n := levels
			if n <= 0 {
				n = max(job.Solve.Levels, 1)
			}

			out := cmd.OutOrStdout()
			for k := n - 1; k >= 0; k-- {
				lg := g.Coarsen(1 << k)
				printer.Fprintf(out, "level %d: %s, %d nodes\n", k, lg, lg.Size())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&levels, "levels", 0, "Number of resolution levels (default from the job)")
	return cmd
}
