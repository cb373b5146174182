package gridfit

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Surface Fitting
// =============================================================================

// Metrics records solve statistics. A nil *Metrics records nothing.
type Metrics struct {
	// steps counts functional outcomes.
	// Labels: outcome (solved, skipped, canceled)
	steps *prometheus.CounterVec

	// solves counts iterative solves.
	// Labels: status (converged, not_converged)
	solves *prometheus.CounterVec

	// iterations measures solver iterations per solve.
	iterations prometheus.Histogram

	// regions counts isolated areas solved independently.
	regions prometheus.Counter

	// stepDuration measures the time spent minimizing one functional.
	stepDuration prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridfit",
			Name:      "functional_steps_total",
			Help:      "Functional minimization outcomes",
		}, []string{"outcome"}),
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridfit",
			Name:      "solves_total",
			Help:      "Iterative linear solves by status",
		}, []string{"status"}),
		iterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridfit",
			Name:      "solver_iterations",
			Help:      "Solver iterations per solve",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		regions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gridfit",
			Name:      "isolated_regions_total",
			Help:      "Isolated areas solved independently",
		}),
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridfit",
			Name:      "functional_duration_seconds",
			Help:      "Time spent minimizing one functional",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
}

func (m *Metrics) observeSolve(iters int, err error) {
	if m == nil {
		return
	}
	status := "converged"
	if err != nil {
		status = "not_converged"
	}
	m.solves.WithLabelValues(status).Inc()
	m.iterations.Observe(float64(iters))
}

func (m *Metrics) observeStep(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "solved"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	case err != nil:
		outcome = "skipped"
	}
	m.steps.WithLabelValues(outcome).Inc()
	m.stepDuration.Observe(d.Seconds())
}

func (m *Metrics) observeRegions(n int) {
	if m == nil {
		return
	}
	m.regions.Add(float64(n))
}
