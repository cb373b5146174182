// Package gridfit fits a smooth surface on a regular 2D grid to scattered
// points, inequality bounds, trend surfaces and fault lines.
//
// # Overview
//
// A fit is an ordered list of functionals. Each functional contributes a
// sparse linear system restricted to the grid nodes that are still unknown,
// solves it (or writes values directly when nothing depends on it) and then
// marks the nodes it determined as solved or undefined. Earlier
// functionals take precedence: a later one only ever acts on nodes that
// are still unknown when it runs.
//
// # Quick Start
//
//	grid, _ := gridfit.NewGrid(0, 100, 1, 0, 100, 1)
//
//	s := gridfit.NewSession(gridfit.WithLevels(3))
//	s.Add(gridfit.NewPoints(wells))
//	s.Add(gridfit.NewInequality(0, false, 1)) // attached to the points
//	s.Add(gridfit.NewCompleter(1, 2))
//
//	res, err := s.Fit(ctx, grid)
//
// # Node state
//
// Every node is unknown, solved or undefined, never two of these at once.
// The transition is monotonic within one pass: once solved or undefined a
// node is not returned to unknown.
//
// # Co-contributors and conditions
//
// A functional can be combined with others through Add, which folds their
// systems into one weighted sum. Conditions (inequalities) are attached with
// AddCondition or by Session.Add and are enforced as soft penalties over a
// few solve iterations.
//
// # Multi-resolution
//
// With WithLevels(n) the session solves progressively finer grids, each
// coarsened by a power of two, and uses the projected coarse solution as
// the starting point of the next level.
package gridfit

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
