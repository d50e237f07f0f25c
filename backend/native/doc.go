// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements gpucore.Device on the wgpu HAL.
//
// A Device is either opened standalone (Open, with a HAL backend such as
// github.com/gogpu/wgpu/hal/vulkan registered by import) or wraps the
// device of a host window (FromProvider). Shader modules are created from
// SPIR-V when the descriptor carries it and from WGSL otherwise.
//
// Build with the nogpu tag to leave the package empty; the native backend is
// then not registered.
package native
