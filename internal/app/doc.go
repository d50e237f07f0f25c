// Package app wires command-line configuration to a running simulation:
// seeding the grid, opening a device, and driving the frame loop either
// headless or inside a gogpu window.
package app
