// Package sim is the step engine: a compute pipeline that reads the
// current generation of a grid.Store and writes the next one.
//
// Each step dispatches ceil(width/8) x ceil(height/8) workgroups of 8x8
// invocations. The life-like transition counts the eight neighbours on a
// torus, applies a B/S rule, and decays the trail of dead cells.
package sim
