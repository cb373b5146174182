package config

import (
	"fmt"

	"github.com/gogpu/gridfit"
)

// adder is implemented by functionals accepting co-contributors.
type adder interface {
	Add(f gridfit.Functional, weight float64)
}

// builder converts named data once so that functionals referring to the
// same data share it.
type builder struct {
	job      *Job
	points   map[string]*gridfit.PointSet
	curves   map[string]*gridfit.Curve
	areas    map[string]*gridfit.Area
	surfaces map[string]*gridfit.Surface
}

func newBuilder(j *Job) *builder {
	return &builder{
		job:      j,
		points:   make(map[string]*gridfit.PointSet),
		curves:   make(map[string]*gridfit.Curve),
		areas:    make(map[string]*gridfit.Area),
		surfaces: make(map[string]*gridfit.Surface),
	}
}

func nodata(v float64, nd *float64) float64 {
	if nd != nil && v == *nd {
		return gridfit.Undefined
	}
	return v
}

func (b *builder) pointSet(name string) *gridfit.PointSet {
	if p, ok := b.points[name]; ok {
		return p
	}
	spec := b.job.Points[name]
	p := &gridfit.PointSet{
		X:    make([]float64, len(spec.XYZ)),
		Y:    make([]float64, len(spec.XYZ)),
		Z:    make([]float64, len(spec.XYZ)),
		Name: name,
	}
	for k, row := range spec.XYZ {
		p.X[k], p.Y[k], p.Z[k] = row[0], row[1], nodata(row[2], spec.NoData)
	}
	b.points[name] = p
	return p
}

func (b *builder) curve(name string) *gridfit.Curve {
	if c, ok := b.curves[name]; ok {
		return c
	}
	spec := b.job.Curves[name]
	c := &gridfit.Curve{
		X:    make([]float64, len(spec.XY)),
		Y:    make([]float64, len(spec.XY)),
		Name: name,
	}
	for k, row := range spec.XY {
		c.X[k], c.Y[k] = row[0], row[1]
	}
	b.curves[name] = c
	return c
}

func (b *builder) area(name string) *gridfit.Area {
	if a, ok := b.areas[name]; ok {
		return a
	}
	names := b.job.Areas[name]
	curves := make([]*gridfit.Curve, len(names))
	for k, c := range names {
		curves[k] = b.curve(c)
	}
	a := gridfit.NewArea(name, curves...)
	b.areas[name] = a
	return a
}

func (b *builder) surface(name string) *gridfit.Surface {
	if s, ok := b.surfaces[name]; ok {
		return s
	}
	spec := b.job.Surfaces[name]
	s := &gridfit.Surface{
		Grid:   spec.Grid.explicit(),
		Values: make([]float64, len(spec.Values)),
		Name:   name,
	}
	for k, v := range spec.Values {
		s.Values[k] = nodata(v, spec.NoData)
	}
	b.surfaces[name] = s
	return s
}

func (b *builder) functional(f FunctionalSpec) gridfit.Functional {
	var opts []gridfit.FunctionalOption
	if f.Name != "" {
		opts = append(opts, gridfit.WithName(f.Name))
	}
	mult := 1.0
	if f.Mult != nil {
		mult = *f.Mult
	}
	d1, d2 := f.weights()

	var out gridfit.Functional
	switch f.Type {
	case TypePoints:
		if f.Weighted {
			opts = append(opts, gridfit.WithWeightedMean())
		}
		out = gridfit.NewPoints(b.pointSet(f.Points), opts...)
	case TypeValue:
		v := f.Value
		if f.Undefined {
			v = gridfit.Undefined
		}
		out = gridfit.NewValue(v, opts...)
	case TypeInequality:
		out = gridfit.NewInequality(f.Value, f.Bound == BoundLEQ, mult, opts...)
	case TypeAreaInequality:
		out = gridfit.NewAreaInequality(f.Value, b.area(f.Area), f.Bound == BoundLEQ, mult, !f.Outside, opts...)
	case TypeTrend:
		out = gridfit.NewTrend(d1, d2, b.surface(f.Surface), opts...)
	case TypeCompleter:
		out = gridfit.NewCompleter(d1, d2, opts...)
	case TypeFault:
		out = gridfit.NewFault(b.curve(f.Curve), opts...)
	}

	if a, ok := out.(adder); ok {
		for _, spec := range f.Add {
			w := spec.Weight
			if w == 0 {
				w = 1
			}
			a.Add(b.functional(spec), w)
		}
	}
	return out
}

// BuildGrid returns the target grid of the job.
func (j *Job) BuildGrid() (*gridfit.Grid, error) {
	return j.buildGrid(newBuilder(j))
}

func (j *Job) buildGrid(b *builder) (*gridfit.Grid, error) {
	gs := j.Grid
	if gs.FromPoints != "" {
		return gridfit.GridForPoints(b.pointSet(gs.FromPoints), gs.NX, gs.NY)
	}
	g := gs.explicit()
	g.Name = j.Name
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Build returns the target grid and the functionals in declaration order.
// The job must have passed Validate.
func (j *Job) Build() (*gridfit.Grid, []gridfit.Functional, error) {
	b := newBuilder(j)
	g, err := j.buildGrid(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: grid: %w", ErrInvalidJob, err)
	}
	fs := make([]gridfit.Functional, len(j.Functionals))
	for k, spec := range j.Functionals {
		fs[k] = b.functional(spec)
	}
	return g, fs, nil
}

// SessionOptions returns the session options of the job's solve section.
func (j *Job) SessionOptions() []gridfit.SessionOption {
	s := j.Solve
	var opts []gridfit.SessionOption
	if s.Levels > 0 {
		opts = append(opts, gridfit.WithLevels(s.Levels))
	}
	if s.Workers > 0 {
		opts = append(opts, gridfit.WithWorkers(s.Workers))
	}
	if s.PenaltyIterations > 0 {
		opts = append(opts, gridfit.WithPenaltyIterations(s.PenaltyIterations))
	}
	if s.IsolatedAreas != nil {
		opts = append(opts, gridfit.WithIsolatedAreas(*s.IsolatedAreas))
	}
	if s.ReprojectFaults != nil {
		opts = append(opts, gridfit.WithReprojectFaults(*s.ReprojectFaults))
	}
	if s.ReprojectUndef != nil {
		opts = append(opts, gridfit.WithReprojectUndefinedAreas(*s.ReprojectUndef))
	}
	return opts
}

// NewSession builds the job into a session ready to fit on the returned
// grid. opts are applied after the job's own solve settings.
func (j *Job) NewSession(opts ...gridfit.SessionOption) (*gridfit.Session, *gridfit.Grid, error) {
	g, fs, err := j.Build()
	if err != nil {
		return nil, nil, err
	}
	s := gridfit.NewSession(append(j.SessionOptions(), opts...)...)
	for _, f := range fs {
		if err := s.Add(f); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
		}
	}
	return s, g, nil
}
