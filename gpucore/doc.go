// Package gpucore defines the device abstraction shared by every cells
// backend.
//
// Resources are referenced by opaque IDs. Each backend keeps a mapping
// between IDs and its own objects, so the engines above this package never
// see a backend type:
//
//	          +--------------------------+
//	          | render / grid / sim /    |
//	          | present (engines)        |
//	          +------------+-------------+
//	                       |  gpucore.Device, gpucore.Surface
//	         +-------------+-------------+
//	         |                           |
//	+--------v--------+         +--------v--------+
//	| backend/native  |         |  backend/soft   |
//	|  (hal.Device)   |         |  (Go kernels)   |
//	+--------+--------+         +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	+-----------------+
//
// # Shaders
//
// A shader module always carries WGSL source. It may also carry Go kernels
// keyed by entry point; backends that cannot run WGSL (the soft device)
// execute those instead. Kernels must compute exactly what the WGSL does.
//
// # Ordering
//
// Command buffers passed to [Device.Submit] execute in submission order, and
// writes made by one are visible to every command buffer submitted after it.
// Submission does not wait for completion; use [Device.WaitIdle] for that.
package gpucore
