package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gridfit"
	"github.com/gogpu/gridfit/config"
	"github.com/gogpu/gridfit/rasterio"
)

// defaultPreviewWidth is used when neither the job nor the flags set one.
const defaultPreviewWidth = 512

type fitFlags struct {
	tiff         string
	preview      string
	previewWidth int
	metrics      string
	levels       int
	workers      int
}

func newFitCmd() *cobra.Command {
	var fl fitFlags

	cmd := &cobra.Command{
		Use:   "fit JOB",
		Short: "Run a fit job and write the solved surface",
		Long: `Runs the functionals of a job in declaration order over one or more
resolution levels and writes the solved surface.

Output paths given as flags override the job's output section.

Examples:
  gridfit fit depth.yaml --tiff depth.tif
  gridfit fit depth.yaml --preview depth.png --preview-width 1024
  gridfit fit depth.yaml --levels 4 --metrics-file fit.prom`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(cmd, args[0], fl)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.tiff, "tiff", "", "Write the surface as a 16-bit TIFF")
	f.StringVar(&fl.preview, "preview", "", "Write a color PNG preview")
	f.IntVar(&fl.previewWidth, "preview-width", 0, "Preview width in pixels")
	f.StringVar(&fl.metrics, "metrics-file", "", "Write solve metrics in Prometheus text format")
	f.IntVar(&fl.levels, "levels", 0, "Override the number of resolution levels")
	f.IntVar(&fl.workers, "workers", 0, "Override the number of pool workers")
	return cmd
}

func runFit(cmd *cobra.Command, path string, fl fitFlags) error {
	job, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	out := job.Output
	if fl.tiff != "" {
		out.TIFF = fl.tiff
	}
	if fl.preview != "" {
		out.Preview = fl.preview
	}
	if fl.previewWidth > 0 {
		out.PreviewWidth = fl.previewWidth
	}
	if out.PreviewWidth == 0 {
		out.PreviewWidth = defaultPreviewWidth
	}
	if fl.metrics != "" {
		out.Metrics = fl.metrics
	}

	reg := prometheus.NewRegistry()
	opts := []gridfit.SessionOption{gridfit.WithMetrics(gridfit.NewMetrics(reg))}
	if fl.levels > 0 {
		opts = append(opts, gridfit.WithLevels(fl.levels))
	}
	if fl.workers > 0 {
		opts = append(opts, gridfit.WithWorkers(fl.workers))
	}

	s, g, err := job.NewSession(opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := s.Fit(cmd.Context(), g)
	if err != nil {
		return fmt.Errorf("fit %s: %w", job.Name, err)
	}
	printReport(cmd.OutOrStdout(), job.Name, res, time.Since(start))

	return writeOutputs(cmd, out, res.Surface, reg)
}

// writeOutputs writes the requested files concurrently.
func writeOutputs(cmd *cobra.Command, out config.OutputSpec, surf *gridfit.Surface, reg *prometheus.Registry) error {
	g, _ := errgroup.WithContext(cmd.Context())
	if out.TIFF != "" {
		g.Go(func() error {
			if err := rasterio.SaveTIFF(out.TIFF, surf); err != nil {
				return fmt.Errorf("write tiff: %w", err)
			}
			return nil
		})
	}
	if out.Preview != "" {
		g.Go(func() error {
			if err := rasterio.SavePreview(out.Preview, surf, out.PreviewWidth); err != nil {
				return fmt.Errorf("write preview: %w", err)
			}
			return nil
		})
	}
	if out.Metrics != "" {
		g.Go(func() error {
			if err := prometheus.WriteToTextfile(out.Metrics, reg); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range []string{out.TIFF, out.Preview, out.Metrics} {
		if p != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
		}
	}
	return nil
}

func printReport(w io.Writer, name string, res *gridfit.Result, elapsed time.Duration) {
	printer.Fprintf(w, "job %s: %d levels in %v\n", name, len(res.Report.Levels), elapsed.Round(time.Millisecond))
	for k, lr := range res.Report.Levels {
		printer.Fprintf(w, "  level %d: %s\n", k, lr.Grid)
		for _, st := range lr.Steps {
			status := "ok"
			if st.Err != nil {
				status = "skipped: " + st.Err.Error()
			}
			printer.Fprintf(w, "    %-32s solved %d, undefined %d (%v) %s\n",
				st.Name, st.Solved, st.Undefined, st.Duration.Round(time.Microsecond), status)
		}
		printer.Fprintf(w, "    total: solved %d, undefined %d, unknown %d\n", lr.Solved, lr.Undefined, lr.Unknown)
	}
	if lo, hi, ok := res.Surface.MinMax(); ok {
		printer.Fprintf(w, "  range: [%g, %g], %d defined nodes\n", lo, hi, res.Surface.Defined())
	}
}
