// Package cells runs a cellular automaton on the GPU and shows every
// generation on screen.
//
// # Overview
//
// The grid lives in two GPU storage buffers used as a ping-pong pair. Each
// frame a compute pass reads one buffer and writes the other, the roles flip,
// and a render pass draws the buffer that was just written as a full-screen
// quad. Nothing is read back to the CPU during normal operation.
//
// # Architecture
//
// The module is organized into:
//   - cells: error taxonomy and logger shared by every sub-package
//   - gpucore: ID-handle device and surface abstraction
//   - backend/native: gogpu/wgpu HAL device (Vulkan, or a device shared by the host)
//   - backend: registry of named devices (native, soft)
//   - backend/soft: CPU device and surface, used headless and in tests
//   - render: device context (frame acquisition, surface configuration)
//   - grid: double-buffered grid store and initial patterns
//   - sim: compute step engine and automaton rules
//   - present: full-screen quad presentation engine
//   - loop: frame loop state machine
//   - integration/gogpuhost: bridge from a gogpu window to the frame loop
//   - cmd/cells: command-line program (window or headless)
//
// # Quick Start
//
//	go run ./cmd/cells -title Cells -rule B3/S23
//
//	// Headless, CPU device, 200 generations to a PNG:
//	go run ./cmd/cells -headless -backend soft -frames 200 -out life.png
//
// # Logging
//
// By default nothing is logged. Call [SetLogger] to route lifecycle and
// recovery messages to a [log/slog] handler.
package cells
