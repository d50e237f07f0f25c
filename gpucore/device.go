package gpucore

import "time"

// Device abstracts over the GPU backends.
//
// Implementations are used from a single control goroutine; they need not
// be safe for concurrent use.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource still referenced by submitted work is undefined
//     until the work completes (see WaitIdle)
//   - IDs become invalid after destruction and are never reused
type Device interface {
	// === Capabilities ===

	// Name returns a human-readable adapter name for logging.
	Name() string

	// Limits returns the device limits.
	Limits() Limits

	// === Buffer Management ===

	// CreateBuffer creates a zero-initialized buffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer writes data to a buffer through the queue. The write is
	// ordered before any command buffer submitted afterwards.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// ReadBuffer copies a buffer range back to the CPU. It waits for all
	// submitted work to finish first.
	ReadBuffer(id BufferID, offset, size uint64) ([]byte, error)

	// === Shaders and Pipelines ===

	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)

	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)
	DestroyPipelineLayout(id PipelineLayoutID)

	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)
	DestroyComputePipeline(id ComputePipelineID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)

	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)

	// === Command Recording and Execution ===

	// CreateCommandEncoder begins recording a command buffer.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit enqueues command buffers in order. It does not wait for the
	// GPU. Submitted buffers are consumed and must not be reused.
	Submit(cmds ...CommandBuffer) error

	// WaitIdle blocks until all submitted work completes or the timeout
	// elapses, in which case it returns ErrTimeout.
	WaitIdle(timeout time.Duration) error

	// Destroy releases the device itself. All other resources must have
	// been destroyed first.
	Destroy()
}

// CommandEncoder records passes into a command buffer.
//
// Usage:
//  1. Obtain an encoder from Device.CreateCommandEncoder
//  2. Record compute and render passes, ending each one
//  3. Call Finish and pass the result to Device.Submit
//
// The encoder is single-use.
type CommandEncoder interface {
	BeginComputePass(label string) ComputePassEncoder
	BeginRenderPass(desc *RenderPassDesc) RenderPassEncoder

	// Finish ends recording. Errors recorded by passes are reported here.
	Finish() (CommandBuffer, error)

	// Discard abandons recording and releases the encoder.
	Discard()
}

// ComputePassEncoder records compute commands.
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches compute workgroups.
	// x, y, z are the number of workgroups in each dimension.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	End()
}

// RenderPassEncoder records draw commands into one render pass.
type RenderPassEncoder interface {
	SetPipeline(pipeline RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	SetVertexBuffer(slot uint32, buffer BufferID)
	SetIndexBuffer(buffer BufferID, format IndexFormat)

	// DrawIndexed draws indexCount indices starting at index 0.
	DrawIndexed(indexCount, instanceCount uint32)

	End()
}

// CommandBuffer is a finished, submittable recording. Its concrete type
// belongs to the device that produced it.
type CommandBuffer interface {
	Label() string
}

// Surface is a presentation target owned by a window or an offscreen
// image. At most one texture may be acquired at a time.
type Surface interface {
	// Configure (re)creates the swapchain for cfg. Width and height are
	// never zero.
	Configure(cfg SurfaceConfig) error

	// Acquire returns a view of the next texture to render into. Failures
	// are ErrSurfaceLost, ErrSurfaceOutdated, ErrTimeout or
	// ErrOutOfMemory from the cells package, possibly wrapped.
	Acquire() (TextureViewID, error)

	// Present shows the texture behind view. The view is invalid afterwards.
	Present(view TextureViewID) error

	// Release gives up any swapchain resources.
	Release()
}
