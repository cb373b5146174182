package gridfit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gridfit/bitmask"
	"github.com/gogpu/gridfit/internal/parallel"
)

// conditionTarget is implemented by every functional that accepts
// conditions.
type conditionTarget interface {
	AddCondition(c Condition)
}

// Session runs an ordered list of functionals over one or more resolution
// levels. A Session is not safe for concurrent use; Fit may be called
// repeatedly.
type Session struct {
	opts        sessionOptions
	functionals []Functional
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	o := defaultSessionOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Session{opts: o}
}

// Add appends f to the session. A condition is attached to the most
// recently added functional that determines nodes; ErrNoTarget is returned
// when there is none.
func (s *Session) Add(f Functional) error {
	if f == nil {
		return errors.New("gridfit: nil functional")
	}
	c, ok := f.(Condition)
	if !ok {
		s.functionals = append(s.functionals, f)
		return nil
	}

	for k := len(s.functionals) - 1; k >= 0; k-- {
		target := s.functionals[k]
		if _, modifier := target.(FaultGeometry); modifier {
			continue
		}
		if t, ok := target.(conditionTarget); ok {
			t.AddCondition(c)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoTarget, f.Name())
}

// Functionals returns the functionals in evaluation order.
func (s *Session) Functionals() []Functional {
	out := make([]Functional, len(s.functionals))
	copy(out, s.functionals)
	return out
}

// Result is the outcome of a fit.
type Result struct {
	// Surface holds the solution on the target grid; nodes left unsolved
	// are Undefined.
	Surface *Surface

	// Solved and Undefined are the final node states.
	Solved    *bitmask.Mask
	Undefined *bitmask.Mask

	Report Report
}

// Report lists what happened on every level.
type Report struct {
	Levels []LevelReport
}

// LevelReport describes one resolution level.
type LevelReport struct {
	Grid  *Grid
	Steps []StepReport

	// Node counts after the last functional.
	Solved, Undefined, Unknown int
}

// StepReport describes one functional on one level. Err is set when the
// functional was skipped.
type StepReport struct {
	Name     string
	Err      error
	Duration time.Duration

	// Node counts after the functional's commit.
	Solved, Undefined int
}

// Skipped returns the steps that failed on the finest level.
func (r *Report) Skipped() []StepReport {
	if len(r.Levels) == 0 {
		return nil
	}
	var out []StepReport
	for _, st := range r.Levels[len(r.Levels)-1].Steps {
		if st.Err != nil {
			out = append(out, st)
		}
	}
	return out
}

// Fit solves the session on grid. Every level starts from the previous
// level's solution projected onto its grid. Fit returns an error only for
// an invalid grid, cancellation or a mask conflict; functionals that fail
// are skipped and listed in the report.
func (s *Session) Fit(ctx context.Context, grid *Grid) (*Result, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	pool := parallel.NewWorkerPool(s.opts.workers)
	defer pool.Close()

	sc := newSolveContext(s.opts, pool)
	sc.functionals = s.functionals

	res := &Result{}
	var prev *Surface
	for k := s.opts.levels - 1; k >= 0; k-- {
		lg := grid
		if k > 0 {
			lg = grid.Coarsen(1 << k)
		}
		if sc.SetGrid(lg) {
			for _, f := range s.functionals {
				f.DropCaches()
			}
		}
		if prev != nil {
			for pos, v := range prev.Project(lg).Values {
				if v != Undefined {
					sc.X[pos] = v
				}
			}
		}

		Logger().Info("level", "level", k, "grid", lg.String())
		lr, err := s.runLevel(ctx, sc)
		res.Report.Levels = append(res.Report.Levels, lr)
		if err != nil {
			return nil, err
		}
		prev = sc.Surface()
	}

	res.Surface = prev
	res.Solved = sc.Solved.Clone()
	res.Undefined = sc.Undefined.Clone()
	return res, nil
}

func (s *Session) runLevel(ctx context.Context, sc *SolveContext) (LevelReport, error) {
	lr := LevelReport{Grid: sc.Grid}
	for _, f := range s.functionals {
		if err := ctx.Err(); err != nil {
			return lr, err
		}

		start := time.Now()
		err := f.Minimize(ctx, sc)
		st := StepReport{Name: f.Name(), Duration: time.Since(start)}
		sc.metrics.observeStep(st.Duration, err)

		switch {
		case err != nil && ctx.Err() != nil:
			return lr, ctx.Err()
		case err != nil:
			Logger().Warn("functional skipped", "functional", f.Name(), "err", err)
			st.Err = err
		default:
			f.CommitMasks(sc, sc.Solved, sc.Undefined, false)
			if pos := sc.CheckMasks(); pos >= 0 {
				return lr, &MaskConflictError{Functional: f.Name(), Pos: pos}
			}
		}

		st.Solved = sc.Solved.TrueCount()
		st.Undefined = sc.Undefined.TrueCount()
		lr.Steps = append(lr.Steps, st)
		Logger().Debug("functional done", "functional", f.Name(), "solved", st.Solved,
			"undefined", st.Undefined, "duration", st.Duration)
	}
	lr.Solved = sc.Solved.TrueCount()
	lr.Undefined = sc.Undefined.TrueCount()
	lr.Unknown = sc.Unknown()
	return lr, nil
}
