// Package soft implements gpucore.Device and gpucore.Surface on the CPU.
//
// Shader modules run through the Go kernels attached to them
// (gpucore.ShaderModuleDesc.Kernels); the WGSL is kept only for reference.
// Compute workgroups and raster rows are spread over a worker pool.
// Submission executes the command buffer before returning, so queue order
// and visibility hold trivially and WaitIdle never blocks.
//
// The surface renders into in-memory images and can inject acquire errors,
// which makes it the device of choice for headless runs and tests.
package soft
