// Package analysis summarizes particle event logs without rendering them.
//
// The package streams a log once and derives:
//
//   - [Summary]: timestep count, particle counts, time span and mean event interval
//   - [Sample]: per-timestep share of particles inside the main square and mean speed
//   - [Snapshot]: an ASCII scatter of one timestep's particle positions
//
// # Diffusion
//
// The share of particles with x <= boardSize starts near 1 for a gas released
// from the square and falls as particles escape into the antechamber:
//
//	sum, err := analysis.Inspect(parser, 0.09)
//	shares := sum.Shares()
package analysis
