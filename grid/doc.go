// Package grid holds the automaton state: the cell layout shared with the
// shaders, the ping-pong Store that owns the two cell buffers, seed
// patterns, and CPU-side rendering of snapshots.
package grid
