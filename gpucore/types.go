package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ShaderModuleID is an opaque handle to a shader module.
type ShaderModuleID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// TextureViewID is an opaque handle to a render target view. Views of
// surface textures are owned by the surface, not by the device.
type TextureViewID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	BufferUsageMapRead  BufferUsage = 1 << 0
	BufferUsageMapWrite BufferUsage = 1 << 1
	BufferUsageCopySrc  BufferUsage = 1 << 2
	BufferUsageCopyDst  BufferUsage = 1 << 3
	BufferUsageIndex    BufferUsage = 1 << 4
	BufferUsageVertex   BufferUsage = 1 << 5
	BufferUsageUniform  BufferUsage = 1 << 6
	BufferUsageStorage  BufferUsage = 1 << 7
)

// TextureFormat specifies the pixel format of a render target.
type TextureFormat uint32

// Texture formats usable as surface targets.
const (
	TextureFormatRGBA8Unorm TextureFormat = iota + 1
	TextureFormatBGRA8Unorm
)

// String returns the WebGPU name of the format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatBGRA8Unorm:
		return "bgra8unorm"
	default:
		return "unknown"
	}
}

// ShaderStage is a bitmask of shader stages a binding is visible to.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
	ShaderStageCompute  ShaderStage = 1 << 2
)

// BindingType specifies the type of a buffer binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer
)

// IndexFormat is the element type of an index buffer.
type IndexFormat uint32

// Index formats.
const (
	IndexFormatUint16 IndexFormat = iota + 1
	IndexFormatUint32
)

// Size returns the size of one index in bytes.
func (f IndexFormat) Size() uint64 {
	if f == IndexFormatUint32 {
		return 4
	}
	return 2
}

// VertexFormat is the type of one vertex attribute.
type VertexFormat uint32

// Vertex formats.
const (
	VertexFormatFloat32x2 VertexFormat = iota + 1
	VertexFormatFloat32x4
)

// Size returns the size of the attribute in bytes.
func (f VertexFormat) Size() uint64 {
	if f == VertexFormatFloat32x4 {
		return 16
	}
	return 8
}

// Components returns the number of float32 components.
func (f VertexFormat) Components() int {
	return int(f.Size() / 4)
}

// CullMode selects which triangle faces are discarded.
type CullMode uint32

// Cull modes.
const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace uint32

// Front face winding orders.
const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// Color is a linear RGBA color used as a clear value.
type Color struct {
	R, G, B, A float64
}

// Limits describes the device limits the engines validate against when
// pipelines are created.
type Limits struct {
	MaxBufferSize                     uint64
	MaxStorageBufferBindingSize       uint64
	MaxUniformBufferBindingSize       uint64
	MaxComputeWorkgroupSizeX          uint32
	MaxComputeWorkgroupSizeY          uint32
	MaxComputeWorkgroupSizeZ          uint32
	MaxComputeInvocationsPerWorkgroup uint32
	MaxComputeWorkgroupsPerDimension  uint32
	MinUniformBufferOffsetAlignment   uint32
}

// DefaultLimits returns the WebGPU baseline limits.
func DefaultLimits() Limits {
	return Limits{
		MaxBufferSize:                     256 << 20,
		MaxStorageBufferBindingSize:       128 << 20,
		MaxUniformBufferBindingSize:       64 << 10,
		MaxComputeWorkgroupSizeX:          256,
		MaxComputeWorkgroupSizeY:          256,
		MaxComputeWorkgroupSizeZ:          64,
		MaxComputeInvocationsPerWorkgroup: 256,
		MaxComputeWorkgroupsPerDimension:  65535,
		MinUniformBufferOffsetAlignment:   256,
	}
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// ShaderModuleDesc describes a shader module.
type ShaderModuleDesc struct {
	// Label is an optional debug label.
	Label string

	// WGSL is the shader source.
	WGSL string

	// SPIRV is an optional precompiled form of WGSL. Devices that accept
	// SPIR-V use it instead of compiling the source again.
	SPIRV []uint32

	// Kernels holds Go implementations of the entry points for devices
	// that execute shaders on the CPU. May be nil for GPU-only modules.
	Kernels *Kernels
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single buffer binding in a layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Visibility is the set of stages that can access the binding.
	Visibility ShaderStage

	// Type is the type of buffer bound at this index.
	Type BindingType

	// MinBindingSize is the minimum buffer size, or 0 for no check.
	MinBindingSize uint64
}

// PipelineLayoutDesc describes a pipeline layout.
type PipelineLayoutDesc struct {
	Label            string
	BindGroupLayouts []BindGroupLayoutID
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// Module contains the compute shader.
	Module ShaderModuleID

	// EntryPoint is the name of the shader entry point function.
	EntryPoint string

	// WorkgroupSize must equal the @workgroup_size of the entry point.
	// Devices that run Go kernels use it to enumerate invocations.
	WorkgroupSize [3]uint32
}

// VertexAttribute describes one attribute inside a vertex buffer.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes the layout of one vertex buffer.
type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

// RenderPipelineDesc describes a render pipeline with one color target.
type RenderPipelineDesc struct {
	Label  string
	Layout PipelineLayoutID
	Module ShaderModuleID

	VertexEntryPoint   string
	FragmentEntryPoint string
	VertexBuffers      []VertexBufferLayout

	TargetFormat TextureFormat
	CullMode     CullMode
	FrontFace    FrontFace
}

// BindGroupEntry binds a buffer range to a binding index.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// RenderPassDesc describes a render pass with one color attachment that is
// cleared on load and stored on completion.
type RenderPassDesc struct {
	Label      string
	Target     TextureViewID
	ClearColor Color
}

// SurfaceConfig is the configuration of a presentation surface.
type SurfaceConfig struct {
	Width  uint32
	Height uint32
	Format TextureFormat
}
