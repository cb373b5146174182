package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gridfit"
)

// Functional types accepted in a job.
const (
	TypePoints         = "points"
	TypeValue          = "value"
	TypeInequality     = "inequality"
	TypeAreaInequality = "area_inequality"
	TypeTrend          = "trend"
	TypeCompleter      = "completer"
	TypeFault          = "fault"
)

// Bound directions of inequalities.
const (
	BoundLEQ = "leq"
	BoundGEQ = "geq"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidJob}, args...)...)
}

// Validate checks the job and returns every problem found, joined.
func (j *Job) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	for name, p := range j.Points {
		for k, row := range p.XYZ {
			if len(row) != 3 {
				add(invalid("points %q: row %d has %d values, want 3", name, k, len(row)))
				break
			}
		}
	}
	for name, c := range j.Curves {
		if len(c.XY) < 2 {
			add(invalid("curve %q: %d vertices, want at least 2", name, len(c.XY)))
		}
		for k, row := range c.XY {
			if len(row) != 2 {
				add(invalid("curve %q: vertex %d has %d values, want 2", name, k, len(row)))
				break
			}
		}
	}
	for name, curves := range j.Areas {
		if len(curves) == 0 {
			add(invalid("area %q: no boundary curve", name))
		}
		for _, c := range curves {
			spec, ok := j.Curves[c]
			switch {
			case !ok:
				add(invalid("area %q: unknown curve %q", name, c))
			case len(spec.XY) < 3:
				add(invalid("area %q: curve %q has %d vertices, want at least 3", name, c, len(spec.XY)))
			}
		}
	}
	for name, s := range j.Surfaces {
		if s.Grid.FromPoints != "" {
			add(invalid("surface %q: grid must be explicit", name))
			continue
		}
		g := s.Grid.explicit()
		if err := g.Validate(); err != nil {
			add(invalid("surface %q: %w", name, err))
			continue
		}
		if len(s.Values) != g.Size() {
			add(invalid("surface %q: %d values for %d nodes", name, len(s.Values), g.Size()))
		}
	}

	add(j.validateGrid())

	if len(j.Functionals) == 0 {
		add(invalid("no functionals"))
	}
	hasTarget := false
	for k, f := range j.Functionals {
		where := fmt.Sprintf("functionals[%d]", k)
		add(j.validateFunctional(where, f, false))
		switch {
		case isCondition(f.Type) && !hasTarget:
			add(invalid("%s: %s has no functional before it to attach to", where, f.Type))
		case !isCondition(f.Type) && f.Type != TypeFault:
			hasTarget = true
		}
	}

	if j.Solve.Levels < 0 || j.Solve.Workers < 0 || j.Solve.PenaltyIterations < 0 {
		add(invalid("solve: negative setting"))
	}
	if j.Output.PreviewWidth < 0 {
		add(invalid("output: negative preview width"))
	}
	return errors.Join(errs...)
}

func (j *Job) validateGrid() error {
	gs := j.Grid
	if gs.FromPoints == "" {
		if err := gs.explicit().Validate(); err != nil {
			return invalid("grid: %w", err)
		}
		return nil
	}
	p, ok := j.Points[gs.FromPoints]
	switch {
	case !ok:
		return invalid("grid: unknown points %q", gs.FromPoints)
	case len(p.XYZ) == 0:
		return invalid("grid: points %q are empty", gs.FromPoints)
	case gs.NX < 2 || gs.NY < 2:
		return invalid("grid: nx and ny must be at least 2, got %d, %d", gs.NX, gs.NY)
	}
	return nil
}

func isCondition(typ string) bool {
	return typ == TypeInequality || typ == TypeAreaInequality
}

func (j *Job) validateFunctional(where string, f FunctionalSpec, nested bool) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, invalid(where+": "+format, args...))
	}

	switch f.Type {
	case TypePoints:
		if _, ok := j.Points[f.Points]; !ok {
			add("unknown points %q", f.Points)
		}
	case TypeValue:
	case TypeInequality, TypeAreaInequality:
		if nested {
			add("%s cannot be a co-contributor", f.Type)
		}
		if f.Bound != BoundLEQ && f.Bound != BoundGEQ {
			add("bound %q, want %s or %s", f.Bound, BoundLEQ, BoundGEQ)
		}
		if f.Mult != nil && !(*f.Mult > 0) {
			add("mult %g must be positive", *f.Mult)
		}
		if f.Type == TypeAreaInequality {
			if _, ok := j.Areas[f.Area]; !ok {
				add("unknown area %q", f.Area)
			}
		}
	case TypeTrend, TypeCompleter:
		if f.Type == TypeTrend {
			if _, ok := j.Surfaces[f.Surface]; !ok {
				add("unknown surface %q", f.Surface)
			}
		}
		d1, d2 := f.weights()
		if d1 < 0 || d2 < 0 || d1+d2 == 0 {
			add("weights d1=%g d2=%g, want non-negative and not both zero", d1, d2)
		}
	case TypeFault:
		if nested {
			add("fault cannot be a co-contributor")
		}
		if _, ok := j.Curves[f.Curve]; !ok {
			add("unknown curve %q", f.Curve)
		}
	default:
		add("unknown type %q", f.Type)
	}

	if len(f.Add) > 0 && !slices.Contains([]string{TypePoints, TypeValue, TypeTrend, TypeCompleter}, f.Type) {
		add("%s takes no co-contributors", f.Type)
	}
	if f.Weight < 0 {
		add("negative weight %g", f.Weight)
	}
	for k, a := range f.Add {
		if err := j.validateFunctional(fmt.Sprintf("%s.add[%d]", where, k), a, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// weights returns the trend weights with defaults applied.
func (f FunctionalSpec) weights() (d1, d2 float64) {
	d1, d2 = 1, 2
	if f.D1 != nil {
		d1 = *f.D1
	}
	if f.D2 != nil {
		d2 = *f.D2
	}
	return d1, d2
}

func (gs GridSpec) explicit() *gridfit.Grid {
	return &gridfit.Grid{
		StartX: gs.StartX, EndX: gs.EndX, StepX: gs.StepX,
		StartY: gs.StartY, EndY: gs.EndY, StepY: gs.StepY,
	}
}
