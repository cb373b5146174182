// Package cg implements a Jacobi-preconditioned conjugate gradient solve
// over a sparse.Operator.
//
// The solver runs over the full node vector. Rows gated off by the operator
// must carry zero right-hand side entries; their components of x are then
// never moved, so x can be the live solution vector with known nodes
// already in place.
package cg

import (
	"errors"
	"math"

	"github.com/gogpu/gridfit/sparse"
)

// ErrNotConverged is returned when the residual does not fall below the
// tolerance within the iteration budget.
var ErrNotConverged = errors.New("cg: not converged")

// Default solver parameters.
const (
	DefaultTolerance = 1e-9
	DefaultMaxIter   = 10000
)

// Solver solves A x = b for symmetric positive semi-definite operators.
type Solver struct {
	// Tolerance is the relative residual ||r|| / ||b|| to reach.
	Tolerance float64

	// MaxIter bounds the iteration count. Zero means max(DefaultMaxIter, 2N).
	MaxIter int
}

// New returns a solver with default parameters.
func New() *Solver {
	return &Solver{Tolerance: DefaultTolerance}
}

// Solve improves x in place so that op*x ≈ b. x is used as the initial
// guess. It returns the number of iterations performed. Solve keeps no
// state between calls and is safe for concurrent use.
func (s *Solver) Solve(op sparse.Operator, b, x []float64) (int, error) {
	n := op.Rows()
	if len(b) < n || len(x) < n {
		return 0, errors.New("cg: vector shorter than operator")
	}

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = max(DefaultMaxIter, 2*n)
	}

	inv := make([]float64, n)
	sparse.Diag(op, inv)
	for i, d := range inv {
		if d > 0 {
			inv[i] = 1 / d
		} else {
			inv[i] = 0
		}
	}

	r := make([]float64, n)
	z := make([]float64, n)
	p := make([]float64, n)
	q := make([]float64, n)

	sparse.Apply(op, x, q)
	var bnorm float64
	for i := range n {
		r[i] = b[i] - q[i]
		if inv[i] == 0 {
			// Row without coupling: nothing can move it.
			r[i] = 0
		}
		bnorm += b[i] * b[i]
	}
	bnorm = math.Sqrt(bnorm)
	if bnorm == 0 {
		bnorm = 1
	}

	var rz float64
	for i := range n {
		z[i] = inv[i] * r[i]
		p[i] = z[i]
		rz += r[i] * z[i]
	}

	for it := 0; it < maxIter; it++ {
		if norm(r) <= tol*bnorm {
			return it, nil
		}

		sparse.Apply(op, p, q)
		var pq float64
		for i := range n {
			pq += p[i] * q[i]
		}
		if pq <= 0 {
			// Direction inside the null space: the remaining residual
			// cannot be reduced further.
			if norm(r) <= math.Sqrt(tol)*bnorm {
				return it, nil
			}
			return it, ErrNotConverged
		}

		alpha := rz / pq
		for i := range n {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
		}

		var rzNext float64
		for i := range n {
			z[i] = inv[i] * r[i]
			rzNext += r[i] * z[i]
		}
		beta := rzNext / rz
		rz = rzNext
		for i := range n {
			p[i] = z[i] + beta*p[i]
		}
	}

	if norm(r) <= tol*bnorm {
		return maxIter, nil
	}
	return maxIter, ErrNotConverged
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
