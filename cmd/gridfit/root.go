package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/gridfit"
)

// newRootCmd builds the command tree. Every invocation gets fresh flag
// state, which keeps the commands testable.
func newRootCmd() *cobra.Command {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:           "gridfit",
		Short:         "Fit smooth surfaces to points, bounds, trends and faults",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), verbose, quiet)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-step diagnostics")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log warnings and errors only")

	root.AddCommand(newFitCmd(), newGridCmd(), newVersionCmd())
	return root
}

func setupLogging(w io.Writer, verbose, quiet bool) {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	gridfit.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gridfit version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridfit %s\n", gridfit.Version)
		},
	}
}
