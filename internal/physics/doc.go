// Package physics implements the sub-stepped Verlet particle solver.
//
// An [Engine] owns a dense particle store, a list of distance links, a
// circular boundary and a uniform spatial grid. Each call to [Engine.Update]
// splits the frame delta into a fixed number of sub-steps and runs, in order:
//
//  1. gravity and position Verlet integration of every non-pinned particle
//  2. one pass over the links
//  3. the boundary clamp
//  4. a full re-bucket of the grid
//  5. broad and narrow phase collision resolution
//  6. the boundary clamp again, for particles the collisions pushed outside
//
// Links and collisions are each resolved once per sub-step. Chains and dense
// piles therefore settle over several frames rather than converging exactly
// within one.
//
// Builds tagged verletdebug panic on degenerate geometry (two particles at the
// same position); other builds skip the correction and count it in
// [dynamo.Stats].
package physics
