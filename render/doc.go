// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the device context shared by the simulation and the
// presentation engines.
//
// A Context pairs a gpucore.Device with the gpucore.Surface frames are
// presented to. It owns the swapchain configuration and every resource the
// engines create, and releases them in reverse creation order.
//
// # Frames
//
// A frame is acquired with AcquireFrame, drawn into, and handed back with
// Present. Only one frame may be outstanding. Acquire failures keep the
// error taxonomy of the cells package:
//
//   - ErrSurfaceLost, ErrSurfaceOutdated: call Recover and retry next tick
//   - ErrTimeout, ErrOutOfMemory: fatal
//
// # Resizing
//
// Reconfigure is idempotent: a call with the configured size does nothing,
// and a zero width or height (a minimized window) is ignored so the last
// valid configuration stays in place.
//
// # Shaders
//
// WGSL is compiled and validated with naga before a module is created. The
// SPIR-V is handed to devices that accept it, and entry points and workgroup
// sizes are checked against the pipeline description.
package render
