//go:build !nogpu

package native

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// =============================================================================
// Fixtures
// =============================================================================

// openNoop returns a hal device and queue from the noop backend.
func openNoop(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend returned no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return open.Device, open.Queue
}

func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	device, queue := openNoop(t)
	return NewFromHAL(device, queue, nil)
}

// stuckQueue never reports completion.
type stuckQueue struct {
	hal.Queue
}

func (stuckQueue) PollCompleted() uint64 { return 0 }

// failingQueue fails every submit with err.
type failingQueue struct {
	hal.Queue
	err error
}

func (q failingQueue) Submit([]hal.CommandBuffer) (uint64, error) { return 0, q.err }

// failingSurface fails AcquireTexture with err.
type failingSurface struct {
	hal.Surface
	err error
}

func (s failingSurface) AcquireTexture(hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	return nil, s.err
}

// =============================================================================
// Buffers
// =============================================================================

func TestDeviceWriteBuffer(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	id, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "grid", Size: 16, Usage: gpucore.BufferUsageStorage | gpucore.BufferUsageCopyDst})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := d.WriteBuffer(id, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("WriteBuffer: %v", err)
	}
	if err := d.WriteBuffer(id, 14, []byte{1, 2, 3, 4}); err == nil {
		t.Error("WriteBuffer past the end should fail")
	}
	if err := d.WriteBuffer(999, 0, []byte{1}); err == nil {
		t.Error("WriteBuffer on unknown buffer should fail")
	}
}

func TestDeviceReadBuffer(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	id, err := d.CreateBuffer(&gpucore.BufferDesc{Size: 32, Usage: gpucore.BufferUsageStorage | gpucore.BufferUsageCopySrc})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	got, err := d.ReadBuffer(id, 8, 16)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if len(got) != 16 {
		t.Errorf("len(ReadBuffer) = %d, want 16", len(got))
	}
	if _, err := d.ReadBuffer(id, 24, 16); err == nil {
		t.Error("ReadBuffer out of range should fail")
	}
}

func TestDeviceCreateBufferLimits(t *testing.T) {
	device, queue := openNoop(t)
	lim := gputypes.DefaultLimits()
	lim.MaxBufferSize = 1024
	d := NewFromHAL(device, queue, &lim)
	defer d.Destroy()

	_, err := d.CreateBuffer(&gpucore.BufferDesc{Size: 2048, Usage: gpucore.BufferUsageStorage})
	if !errors.Is(err, cells.ErrLimitsExceeded) {
		t.Errorf("CreateBuffer over limit error = %v, want ErrLimitsExceeded", err)
	}
	if !cells.IsConfiguration(err) {
		t.Errorf("IsConfiguration(%v) = false, want true", err)
	}
}

// =============================================================================
// Pipelines
// =============================================================================

func buildComputePipeline(t *testing.T, d *Device, workgroup [3]uint32) (gpucore.ComputePipelineID, error) {
	t.Helper()
	mod, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{Label: "step", WGSL: "@compute @workgroup_size(8, 8, 1) fn main() {}"})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	bgl, err := d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
			{Binding: 1, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeStorageBuffer},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	layout, err := d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}})
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	return d.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Layout:        layout,
		Module:        mod,
		EntryPoint:    "main",
		WorkgroupSize: workgroup,
	})
}

func TestDeviceComputePipelineLimits(t *testing.T) {
	tests := []struct {
		name      string
		workgroup [3]uint32
		wantErr   bool
	}{
		{"8x8", [3]uint32{8, 8, 1}, false},
		{"16x16", [3]uint32{16, 16, 1}, false},
		{"too many invocations", [3]uint32{32, 32, 1}, true},
		{"x over limit", [3]uint32{512, 1, 1}, true},
		{"zero", [3]uint32{0, 8, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newNoopDevice(t)
			defer d.Destroy()
			_, err := buildComputePipeline(t, d, tt.workgroup)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateComputePipeline error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, cells.ErrLimitsExceeded) {
				t.Errorf("error = %v, want ErrLimitsExceeded", err)
			}
		})
	}
}

func TestDeviceRenderPipelineFormat(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	mod, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{WGSL: "fn main() {}"})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	layout, err := d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{})
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	desc := &gpucore.RenderPipelineDesc{
		Layout:             layout,
		Module:             mod,
		VertexEntryPoint:   "vs_main",
		FragmentEntryPoint: "fs_main",
		TargetFormat:       gpucore.TextureFormatBGRA8Unorm,
		CullMode:           gpucore.CullModeBack,
	}
	if _, err := d.CreateRenderPipeline(desc); err != nil {
		t.Errorf("CreateRenderPipeline(BGRA8): %v", err)
	}
	desc.TargetFormat = 0
	if _, err := d.CreateRenderPipeline(desc); !errors.Is(err, cells.ErrUnsupportedFormat) {
		t.Errorf("CreateRenderPipeline(undefined) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDeviceEmptyShader(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	_, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{})
	if !errors.Is(err, cells.ErrShaderCompile) {
		t.Errorf("CreateShaderModule(empty) error = %v, want ErrShaderCompile", err)
	}
}

// =============================================================================
// Submission
// =============================================================================

func TestDeviceSubmitAndWait(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	pipeline, err := buildComputePipeline(t, d, [3]uint32{8, 8, 1})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	enc, err := d.CreateCommandEncoder("step")
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	pass := enc.BeginComputePass("step")
	pass.SetPipeline(pipeline)
	pass.Dispatch(2, 2, 1)
	pass.End()
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Submit(cmd); err == nil {
		t.Error("second Submit of the same buffer should fail")
	}
	if err := d.WaitIdle(time.Second); err != nil {
		t.Errorf("WaitIdle: %v", err)
	}
	if len(d.pending) != 0 {
		t.Errorf("pending = %d after WaitIdle, want 0", len(d.pending))
	}
}

func TestDeviceEncoderUnknownIDs(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()

	enc, err := d.CreateCommandEncoder("bad")
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	pass := enc.BeginComputePass("bad")
	pass.SetPipeline(42)
	pass.SetBindGroup(0, 43)
	pass.End()
	if _, err := enc.Finish(); err == nil {
		t.Error("Finish should report unknown pipeline and bind group")
	}
}

func TestDeviceWaitIdleTimeout(t *testing.T) {
	device, queue := openNoop(t)
	d := NewFromHAL(device, stuckQueue{queue}, nil)

	enc, err := d.CreateCommandEncoder("idle")
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := d.Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	err = d.WaitIdle(5 * time.Millisecond)
	if !errors.Is(err, cells.ErrTimeout) {
		t.Errorf("WaitIdle error = %v, want ErrTimeout", err)
	}
	if !cells.IsFatal(err) {
		t.Errorf("IsFatal(%v) = false, want true", err)
	}
}

func TestDeviceSubmitErrorMapping(t *testing.T) {
	device, queue := openNoop(t)
	d := NewFromHAL(device, failingQueue{Queue: queue, err: hal.ErrDeviceLost}, nil)
	defer d.Destroy()

	enc, err := d.CreateCommandEncoder("lost")
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	cmd, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	err = d.Submit(cmd)
	if !errors.Is(err, cells.ErrDeviceLost) {
		t.Errorf("Submit error = %v, want ErrDeviceLost", err)
	}
}

func TestDeviceDestroyReleasesAll(t *testing.T) {
	d := newNoopDevice(t)
	if _, err := buildComputePipeline(t, d, [3]uint32{8, 8, 1}); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if _, err := d.CreateBuffer(&gpucore.BufferDesc{Size: 4, Usage: gpucore.BufferUsageUniform}); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if d.Live() != 5 {
		t.Errorf("Live() = %d, want 5", d.Live())
	}
	d.Destroy()
	if d.Live() != 0 {
		t.Errorf("Live() after Destroy = %d, want 0", d.Live())
	}
}

// =============================================================================
// Error Mapping
// =============================================================================

func TestMapError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{hal.ErrSurfaceOutdated, cells.ErrSurfaceOutdated},
		{hal.ErrZeroArea, cells.ErrSurfaceOutdated},
		{hal.ErrSurfaceLost, cells.ErrSurfaceLost},
		{hal.ErrTimeout, cells.ErrTimeout},
		{hal.ErrDeviceOutOfMemory, cells.ErrOutOfMemory},
		{hal.ErrDeviceLost, cells.ErrDeviceLost},
	}
	for _, tt := range tests {
		if got := mapError(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	other := errors.New("other")
	if got := mapError(other); got != other {
		t.Errorf("mapError(other) = %v, want unchanged", got)
	}
}

// =============================================================================
// Surfaces
// =============================================================================

func TestSurfaceAcquirePresent(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()
	instance, _ := noop.API{}.CreateInstance(nil)
	hs, err := instance.CreateSurface(0, 0)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	s := NewSurface(d, hs, true)
	defer s.Release()

	if _, err := s.Acquire(); !errors.Is(err, cells.ErrSurfaceOutdated) {
		t.Errorf("Acquire before Configure error = %v, want ErrSurfaceOutdated", err)
	}
	if err := s.Configure(gpucore.SurfaceConfig{Width: 0, Height: 600, Format: gpucore.TextureFormatBGRA8Unorm}); !errors.Is(err, cells.ErrSurfaceOutdated) {
		t.Errorf("Configure(0x600) error = %v, want ErrSurfaceOutdated", err)
	}
	if err := s.Configure(gpucore.SurfaceConfig{Width: 800, Height: 600, Format: gpucore.TextureFormatBGRA8Unorm}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	view, err := s.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := s.Acquire(); !errors.Is(err, cells.ErrFrameOutstanding) {
		t.Errorf("second Acquire error = %v, want ErrFrameOutstanding", err)
	}
	if _, ok := d.lookupView(view); !ok {
		t.Error("acquired view is not registered with the device")
	}
	if err := s.Present(view); err != nil {
		t.Errorf("Present: %v", err)
	}
	if _, ok := d.lookupView(view); ok {
		t.Error("view still registered after Present")
	}
}

func TestSurfaceAcquireErrors(t *testing.T) {
	tests := []struct {
		halErr error
		want   error
	}{
		{hal.ErrSurfaceOutdated, cells.ErrSurfaceOutdated},
		{hal.ErrSurfaceLost, cells.ErrSurfaceLost},
		{hal.ErrTimeout, cells.ErrTimeout},
		{hal.ErrDeviceOutOfMemory, cells.ErrOutOfMemory},
	}
	for _, tt := range tests {
		t.Run(tt.halErr.Error(), func(t *testing.T) {
			d := newNoopDevice(t)
			defer d.Destroy()
			instance, _ := noop.API{}.CreateInstance(nil)
			hs, _ := instance.CreateSurface(0, 0)
			s := NewSurface(d, failingSurface{Surface: hs, err: tt.halErr}, false)
			if err := s.Configure(gpucore.SurfaceConfig{Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm}); err != nil {
				t.Fatalf("Configure: %v", err)
			}
			if _, err := s.Acquire(); !errors.Is(err, tt.want) {
				t.Errorf("Acquire error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOffscreenSurface(t *testing.T) {
	d := newNoopDevice(t)
	defer d.Destroy()
	s := NewOffscreenSurface(d)

	cfg := gpucore.SurfaceConfig{Width: 64, Height: 32, Format: gpucore.TextureFormatRGBA8Unorm}
	if err := s.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	first, err := s.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := s.Present(first); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := s.Configure(cfg); err != nil {
		t.Fatalf("Configure (same): %v", err)
	}
	again, _ := s.Acquire()
	if again != first {
		t.Errorf("view changed on identical Configure: %d -> %d", first, again)
	}
	_ = s.Present(again)

	s.Release()
	if _, err := s.Acquire(); !errors.Is(err, cells.ErrSurfaceOutdated) {
		t.Errorf("Acquire after Release error = %v, want ErrSurfaceOutdated", err)
	}
}

// =============================================================================
// Open
// =============================================================================

func TestOpenNoopBackend(t *testing.T) {
	d, err := Open(WithBackend(gputypes.BackendEmpty), WithAdapterName("noop"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Destroy()
	if d.Name() != "Noop Adapter" {
		t.Errorf("Name() = %q, want %q", d.Name(), "Noop Adapter")
	}
	if d.Limits().MaxComputeInvocationsPerWorkgroup != 256 {
		t.Errorf("MaxComputeInvocationsPerWorkgroup = %d, want 256", d.Limits().MaxComputeInvocationsPerWorkgroup)
	}
	s, err := d.CreateSurface(0, 0)
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	s.Release()
}

func TestOpenMissingBackend(t *testing.T) {
	_, err := Open(WithBackend(gputypes.BackendBrowserWebGPU))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Open error = %v, want ErrBackendUnavailable", err)
	}
}
