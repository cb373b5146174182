// Package config loads fit jobs from YAML files.
//
// A job names its data sets (points, curves, areas, surfaces) once and then
// lists the functionals in evaluation order, referring to the data by name:
//
//	name: depth
//	grid: {start_x: 0, end_x: 100, step_x: 1, start_y: 0, end_y: 50, step_y: 1}
//	solve: {levels: 3, workers: 4}
//	points:
//	  wells:
//	    xyz: [[10, 10, 120.5], [40, 25, 131]]
//	curves:
//	  f1:
//	    xy: [[50, -1], [50, 51]]
//	functionals:
//	  - type: points
//	    points: wells
//	  - type: inequality
//	    value: 100
//	    bound: geq
//	  - type: fault
//	    curve: f1
//	  - type: completer
//	    d1: 1
//	    d2: 2
//
// Malformed jobs are reported by Load and Validate; nothing is built from
// a job that failed validation.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gridfit"
)

// ErrInvalidJob is wrapped by every validation error.
var ErrInvalidJob = errors.New("config: invalid job")

// Job is a complete fit description.
type Job struct {
	Name        string                 `yaml:"name"`
	Grid        GridSpec               `yaml:"grid"`
	Solve       SolveSpec              `yaml:"solve"`
	Points      map[string]PointsSpec  `yaml:"points"`
	Curves      map[string]CurveSpec   `yaml:"curves"`
	Areas       map[string][]string    `yaml:"areas"`
	Surfaces    map[string]SurfaceSpec `yaml:"surfaces"`
	Functionals []FunctionalSpec       `yaml:"functionals"`
	Output      OutputSpec             `yaml:"output"`
}

// GridSpec is either an explicit geometry or a node count spanning a point
// set.
type GridSpec struct {
	StartX float64 `yaml:"start_x"`
	EndX   float64 `yaml:"end_x"`
	StepX  float64 `yaml:"step_x"`
	StartY float64 `yaml:"start_y"`
	EndY   float64 `yaml:"end_y"`
	StepY  float64 `yaml:"step_y"`

	// FromPoints names a point set; the grid then spans its bounds with
	// NX×NY nodes.
	FromPoints string `yaml:"from_points"`
	NX         int    `yaml:"nx"`
	NY         int    `yaml:"ny"`
}

// SolveSpec holds the session tuning. Zero values keep the defaults.
type SolveSpec struct {
	Levels            int   `yaml:"levels"`
	Workers           int   `yaml:"workers"`
	PenaltyIterations int   `yaml:"penalty_iterations"`
	IsolatedAreas     *bool `yaml:"isolated_areas"`
	ReprojectFaults   *bool `yaml:"reproject_faults"`
	ReprojectUndef    *bool `yaml:"reproject_undefined"`
}

// PointsSpec is an inline point set. Values equal to NoData are undefined.
type PointsSpec struct {
	XYZ    [][]float64 `yaml:"xyz"`
	NoData *float64    `yaml:"nodata"`
}

// CurveSpec is an inline polyline.
type CurveSpec struct {
	XY [][]float64 `yaml:"xy"`
}

// SurfaceSpec is an inline surface. Values run along X first, starting at
// the lowest Y row.
type SurfaceSpec struct {
	Grid   GridSpec  `yaml:"grid"`
	Values []float64 `yaml:"values"`
	NoData *float64  `yaml:"nodata"`
}

// FunctionalSpec describes one functional. Which fields apply depends on
// Type.
type FunctionalSpec struct {
	// Type is one of points, value, inequality, area_inequality, trend,
	// completer, fault.
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	Points   string `yaml:"points"`
	Weighted bool   `yaml:"weighted"`

	// Value is the fill constant or the bound. Undefined fills with the
	// undefined sentinel.
	Value     float64 `yaml:"value"`
	Undefined bool    `yaml:"undefined"`

	// Bound is leq or geq.
	Bound   string   `yaml:"bound"`
	Mult    *float64 `yaml:"mult"`
	Area    string   `yaml:"area"`
	Outside bool     `yaml:"outside"`

	Surface string   `yaml:"surface"`
	D1      *float64 `yaml:"d1"`
	D2      *float64 `yaml:"d2"`

	Curve string `yaml:"curve"`

	// Add lists co-contributors folded into this functional's system.
	Add []FunctionalSpec `yaml:"add"`

	// Weight is the weight of a co-contributor. Zero means 1.
	Weight float64 `yaml:"weight"`
}

// OutputSpec lists the files written after a fit.
type OutputSpec struct {
	TIFF         string `yaml:"tiff"`
	Preview      string `yaml:"preview"`
	PreviewWidth int    `yaml:"preview_width"`
	Metrics      string `yaml:"metrics"`
}

// Load decodes and validates a job.
func Load(r io.Reader) (*Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// LoadFile reads a job from path. Failures are logged and returned; the
// job is nil in that case.
func LoadFile(path string) (*Job, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		gridfit.Logger().Error("job not readable", "path", path, "err", err)
		return nil, err
	}
	defer f.Close()

	job, err := Load(f)
	if err != nil {
		gridfit.Logger().Error("job rejected", "path", path, "err", err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if job.Name == "" {
		job.Name = path
	}
	return job, nil
}
