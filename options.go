package gridfit

import "runtime"

// SessionOption configures a Session during creation.
// Use functional options to customize solve behavior.
//
// Example:
//
//	// Default single-level fit
//	s := gridfit.NewSession()
//
//	// Three resolution levels, four workers for isolated areas
//	s := gridfit.NewSession(gridfit.WithLevels(3), gridfit.WithWorkers(4))
type SessionOption func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	workers            int
	solver             Solver
	levels             int
	metrics            *Metrics
	isolatedAreas      bool
	reprojectFaults    bool
	reprojectUndefined bool
	penaltyIterations  int
}

// defaultSessionOptions returns the default session options.
func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		workers:            runtime.GOMAXPROCS(0),
		solver:             nil, // conjugate gradients if nil
		levels:             1,
		isolatedAreas:      true,
		reprojectFaults:    true,
		reprojectUndefined: true,
		penaltyIterations:  DefaultPenaltyIterations,
	}
}

// DefaultPenaltyIterations bounds the solve/re-assemble loop used to
// enforce conditions.
const DefaultPenaltyIterations = 8

// WithWorkers sets the number of pool workers used for isolated area
// sub-solves. Values below 1 mean GOMAXPROCS.
func WithWorkers(n int) SessionOption {
	return func(o *sessionOptions) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithSolver replaces the default conjugate gradient solver.
func WithSolver(s Solver) SessionOption {
	return func(o *sessionOptions) {
		o.solver = s
	}
}

// WithLevels sets the number of resolution levels. Level k solves on the
// target grid coarsened by 2^k; the finest level is always the target grid.
func WithLevels(n int) SessionOption {
	return func(o *sessionOptions) {
		o.levels = max(n, 1)
	}
}

// WithMetrics records solve statistics into m.
func WithMetrics(m *Metrics) SessionOption {
	return func(o *sessionOptions) {
		o.metrics = m
	}
}

// WithIsolatedAreas enables or disables solving areas separated by faults
// and undefined nodes independently before the whole-grid pass.
func WithIsolatedAreas(enabled bool) SessionOption {
	return func(o *sessionOptions) {
		o.isolatedAreas = enabled
	}
}

// WithReprojectFaults enables or disables the partial re-solve near faults
// after a resolution change.
func WithReprojectFaults(enabled bool) SessionOption {
	return func(o *sessionOptions) {
		o.reprojectFaults = enabled
	}
}

// WithReprojectUndefinedAreas enables or disables the partial re-solve
// around undefined areas after a resolution change.
func WithReprojectUndefinedAreas(enabled bool) SessionOption {
	return func(o *sessionOptions) {
		o.reprojectUndefined = enabled
	}
}

// WithPenaltyIterations bounds the number of penalty iterations used to
// enforce conditions.
func WithPenaltyIterations(n int) SessionOption {
	return func(o *sessionOptions) {
		o.penaltyIterations = max(n, 1)
	}
}

// FunctionalOption configures a functional during creation.
type FunctionalOption func(*functionalOptions)

type functionalOptions struct {
	name     string
	weighted bool
}

// WithName overrides the functional name used in logs and reports.
func WithName(name string) FunctionalOption {
	return func(o *functionalOptions) {
		o.name = name
	}
}

// WithWeightedMean makes a point binding average the points of one cell
// with inverse distance weights instead of a plain mean.
func WithWeightedMean() FunctionalOption {
	return func(o *functionalOptions) {
		o.weighted = true
	}
}

func applyFunctionalOptions(name string, opts []FunctionalOption) functionalOptions {
	o := functionalOptions{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
