package gpucore

// Kernels holds CPU implementations of shader entry points, keyed by entry
// point name.
type Kernels struct {
	Compute  map[string]ComputeKernel
	Fragment map[string]FragmentKernel
}

// Bindings gives a kernel access to the buffers bound for the current
// dispatch or draw.
type Bindings interface {
	// Buffer returns the bytes of the range bound at (group, binding), or nil
	// when nothing is bound there. Kernels may write into ranges bound as
	// read-write storage.
	Buffer(group, binding uint32) []byte
}

// ComputeKernel runs one invocation. gid is the global invocation ID.
// Invocations of one dispatch may run concurrently and must only write
// disjoint bytes.
type ComputeKernel func(b Bindings, gid [3]uint32)

// FragmentInput is what a CPU fragment kernel receives for one pixel.
type FragmentInput struct {
	// FragCoord is the framebuffer position of the pixel center.
	FragCoord [2]float32

	// UV is the interpolated vertex attribute at shader location 1.
	UV [2]float32
}

// FragmentKernel returns the RGBA color of one pixel, each channel in [0,1].
// CPU rasterization passes the position attribute (location 0) through
// unchanged, as a pass-through vertex stage would.
type FragmentKernel func(b Bindings, in FragmentInput) [4]float32
