//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Package errors for the hal backend.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrBackendUnavailable is returned when the requested hal backend is
	// not compiled in or fails to create an instance.
	ErrBackendUnavailable = errors.New("native: hal backend unavailable")

	// ErrNoHALDevice is returned by FromProvider when the provider does not
	// expose a hal device.
	ErrNoHALDevice = errors.New("native: provider does not expose a hal device")
)

// mapError translates hal errors into the cells taxonomy. Unknown errors are
// returned unchanged.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrSurfaceOutdated), errors.Is(err, hal.ErrZeroArea):
		return fmt.Errorf("%w (%v)", cells.ErrSurfaceOutdated, err)
	case errors.Is(err, hal.ErrSurfaceLost):
		return fmt.Errorf("%w (%v)", cells.ErrSurfaceLost, err)
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return fmt.Errorf("%w (%v)", cells.ErrTimeout, err)
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		return fmt.Errorf("%w (%v)", cells.ErrOutOfMemory, err)
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("%w (%v)", cells.ErrDeviceLost, err)
	default:
		return err
	}
}

// === Type Conversion Helpers ===

func convertLimits(l gputypes.Limits) gpucore.Limits {
	return gpucore.Limits{
		MaxBufferSize:                     l.MaxBufferSize,
		MaxStorageBufferBindingSize:       l.MaxStorageBufferBindingSize,
		MaxUniformBufferBindingSize:       l.MaxUniformBufferBindingSize,
		MaxComputeWorkgroupSizeX:          l.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupSizeY:          l.MaxComputeWorkgroupSizeY,
		MaxComputeWorkgroupSizeZ:          l.MaxComputeWorkgroupSizeZ,
		MaxComputeInvocationsPerWorkgroup: l.MaxComputeInvocationsPerWorkgroup,
		MaxComputeWorkgroupsPerDimension:  l.MaxComputeWorkgroupsPerDimension,
		MinUniformBufferOffsetAlignment:   l.MinUniformBufferOffsetAlignment,
	}
}

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage

	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}

	return result
}

func convertShaderStage(stage gpucore.ShaderStage) gputypes.ShaderStages {
	var result gputypes.ShaderStages
	if stage&gpucore.ShaderStageVertex != 0 {
		result |= gputypes.ShaderStageVertex
	}
	if stage&gpucore.ShaderStageFragment != 0 {
		result |= gputypes.ShaderStageFragment
	}
	if stage&gpucore.ShaderStageCompute != 0 {
		result |= gputypes.ShaderStageCompute
	}
	return result
}

// convertBindGroupLayoutEntry converts a gpucore buffer binding to gputypes.
func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) gputypes.BindGroupLayoutEntry {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: convertShaderStage(entry.Visibility),
	}

	var kind gputypes.BufferBindingType
	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		kind = gputypes.BufferBindingTypeUniform
	case gpucore.BindingTypeStorageBuffer:
		kind = gputypes.BufferBindingTypeStorage
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		kind = gputypes.BufferBindingTypeReadOnlyStorage
	}
	result.Buffer = &gputypes.BufferBindingLayout{
		Type:           kind,
		MinBindingSize: entry.MinBindingSize,
	}
	return result
}

// convertTextureFormat accepts only the formats a surface may be
// configured with.
func convertTextureFormat(format gpucore.TextureFormat) (gputypes.TextureFormat, error) {
	switch format {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("native: texture format %d: %w", format, cells.ErrUnsupportedFormat)
	}
}

// FormatFromGPUTypes maps a host surface format back to gpucore. It returns
// false for formats the renderer cannot target.
func FormatFromGPUTypes(format gputypes.TextureFormat) (gpucore.TextureFormat, bool) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return gpucore.TextureFormatRGBA8Unorm, true
	case gputypes.TextureFormatBGRA8Unorm:
		return gpucore.TextureFormatBGRA8Unorm, true
	default:
		return 0, false
	}
}

func convertVertexBuffers(layouts []gpucore.VertexBufferLayout) []gputypes.VertexBufferLayout {
	out := make([]gputypes.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
		for j, a := range l.Attributes {
			attrs[j] = gputypes.VertexAttribute{
				Format:         convertVertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		out[i] = gputypes.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}
	return out
}

func convertVertexFormat(f gpucore.VertexFormat) gputypes.VertexFormat {
	if f == gpucore.VertexFormatFloat32x4 {
		return gputypes.VertexFormatFloat32x4
	}
	return gputypes.VertexFormatFloat32x2
}

func convertIndexFormat(f gpucore.IndexFormat) gputypes.IndexFormat {
	if f == gpucore.IndexFormatUint32 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

func convertCullMode(m gpucore.CullMode) gputypes.CullMode {
	switch m {
	case gpucore.CullModeFront:
		return gputypes.CullModeFront
	case gpucore.CullModeBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

func convertFrontFace(f gpucore.FrontFace) gputypes.FrontFace {
	if f == gpucore.FrontFaceCW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}
