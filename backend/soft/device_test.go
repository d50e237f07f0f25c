package soft

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
)

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func storageLayout(t *testing.T, d *Device, types ...gpucore.BindingType) (gpucore.BindGroupLayoutID, gpucore.PipelineLayoutID) {
	t.Helper()
	entries := make([]gpucore.BindGroupLayoutEntry, len(types))
	for i, ty := range types {
		entries[i] = gpucore.BindGroupLayoutEntry{Binding: uint32(i), Visibility: gpucore.ShaderStageCompute | gpucore.ShaderStageFragment, Type: ty}
	}
	bgl, err := d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Label: "test", Entries: entries})
	mustNoErr(t, err)
	pl, err := d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{Label: "test", BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}})
	mustNoErr(t, err)
	return bgl, pl
}

// =============================================================================
// Buffers
// =============================================================================

func TestDevice_BufferRoundTrip(t *testing.T) {
	d := New()
	defer d.Destroy()

	id, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "b", Size: 8, Usage: gpucore.BufferUsageStorage})
	mustNoErr(t, err)
	mustNoErr(t, d.WriteBuffer(id, 2, []byte{1, 2, 3}))

	got, err := d.ReadBuffer(id, 0, 8)
	mustNoErr(t, err)
	want := []byte{0, 0, 1, 2, 3, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReadBuffer() = %v, want %v", got, want)
		}
	}
	if err := d.WriteBuffer(id, 6, []byte{1, 2, 3}); err == nil {
		t.Error("overflowing write should fail")
	}
}

func TestDevice_BufferLimits(t *testing.T) {
	limits := gpucore.DefaultLimits()
	limits.MaxBufferSize = 16
	d := New(WithLimits(limits))
	defer d.Destroy()

	_, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "big", Size: 32})
	if !errors.Is(err, cells.ErrLimitsExceeded) {
		t.Errorf("CreateBuffer() error = %v, want ErrLimitsExceeded", err)
	}
	if !cells.IsConfiguration(err) {
		t.Error("limit errors should be configuration errors")
	}
}

// =============================================================================
// Compute
// =============================================================================

func TestDevice_ComputeDispatch(t *testing.T) {
	d := New(WithWorkers(3))
	defer d.Destroy()

	const n = 37
	buf, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "data", Size: n * 4, Usage: gpucore.BufferUsageStorage})
	mustNoErr(t, err)
	bgl, pl := storageLayout(t, d, gpucore.BindingTypeStorageBuffer)

	mod, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "index",
		Kernels: &gpucore.Kernels{Compute: map[string]gpucore.ComputeKernel{
			"main": func(b gpucore.Bindings, gid [3]uint32) {
				if gid[0] >= n {
					return
				}
				binary.LittleEndian.PutUint32(b.Buffer(0, 0)[gid[0]*4:], gid[0]*gid[0])
			},
		}},
	})
	mustNoErr(t, err)
	pipe, err := d.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label: "index", Layout: pl, Module: mod, EntryPoint: "main", WorkgroupSize: [3]uint32{8, 1, 1},
	})
	mustNoErr(t, err)
	bg, err := d.CreateBindGroup(&gpucore.BindGroupDesc{Layout: bgl, Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf}}})
	mustNoErr(t, err)

	enc, err := d.CreateCommandEncoder("dispatch")
	mustNoErr(t, err)
	cp := enc.BeginComputePass("square")
	cp.SetPipeline(pipe)
	cp.SetBindGroup(0, bg)
	cp.Dispatch((n+7)/8, 1, 1)
	cp.End()
	cmd, err := enc.Finish()
	mustNoErr(t, err)
	mustNoErr(t, d.Submit(cmd))

	data, err := d.ReadBuffer(buf, 0, n*4)
	mustNoErr(t, err)
	for i := uint32(0); i < n; i++ {
		if got := binary.LittleEndian.Uint32(data[i*4:]); got != i*i {
			t.Fatalf("element %d = %d, want %d", i, got, i*i)
		}
	}
	if err := d.Submit(cmd); err == nil {
		t.Error("resubmitting a command buffer should fail")
	}
}

func TestDevice_MissingKernel(t *testing.T) {
	d := New()
	defer d.Destroy()

	_, pl := storageLayout(t, d)
	mod, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{Label: "empty", Kernels: &gpucore.Kernels{}})
	mustNoErr(t, err)
	_, err = d.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pl, Module: mod, EntryPoint: "main"})
	if !errors.Is(err, cells.ErrShaderCompile) {
		t.Errorf("error = %v, want ErrShaderCompile", err)
	}
	if _, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{Label: "gpu only"}); !errors.Is(err, cells.ErrShaderCompile) {
		t.Errorf("module without kernels: error = %v, want ErrShaderCompile", err)
	}
}

func TestDevice_DispatchWithoutPipeline(t *testing.T) {
	d := New()
	defer d.Destroy()

	enc, _ := d.CreateCommandEncoder("bad")
	cp := enc.BeginComputePass("bad")
	cp.Dispatch(1, 1, 1)
	cp.End()
	if _, err := enc.Finish(); err == nil {
		t.Error("Finish() should report the recording error")
	}
}

func TestDevice_FailSubmit(t *testing.T) {
	d := New()
	defer d.Destroy()

	d.FailSubmit(cells.ErrDeviceLost)
	enc, _ := d.CreateCommandEncoder("noop")
	cmd, err := enc.Finish()
	mustNoErr(t, err)
	if err := d.Submit(cmd); !cells.IsFatal(err) {
		t.Errorf("Submit() error = %v, want a fatal device error", err)
	}
}

// =============================================================================
// Render
// =============================================================================

func quadBuffers(t *testing.T, d *Device, indices []uint16) (vb, ib gpucore.BufferID) {
	t.Helper()
	verts := [][6]float32{
		{-1, -1, 0, 1, 0, 0},
		{1, -1, 0, 1, 1, 0},
		{1, 1, 0, 1, 1, 1},
		{-1, 1, 0, 1, 0, 1},
	}
	vdata := make([]byte, 0, len(verts)*24)
	for _, v := range verts {
		for _, f := range v {
			vdata = binary.LittleEndian.AppendUint32(vdata, math.Float32bits(f))
		}
	}
	idata := make([]byte, 0, 12)
	for _, i := range indices {
		idata = binary.LittleEndian.AppendUint16(idata, i)
	}
	var err error
	vb, err = d.CreateBuffer(&gpucore.BufferDesc{Label: "vb", Size: uint64(len(vdata)), Usage: gpucore.BufferUsageVertex})
	mustNoErr(t, err)
	mustNoErr(t, d.WriteBuffer(vb, 0, vdata))
	ib, err = d.CreateBuffer(&gpucore.BufferDesc{Label: "ib", Size: uint64(len(idata)), Usage: gpucore.BufferUsageIndex})
	mustNoErr(t, err)
	mustNoErr(t, d.WriteBuffer(ib, 0, idata))
	return vb, ib
}

func drawQuad(t *testing.T, indices []uint16, format gpucore.TextureFormat) *Surface {
	t.Helper()
	d := New()
	t.Cleanup(d.Destroy)
	s := NewSurface(d)
	mustNoErr(t, s.Configure(gpucore.SurfaceConfig{Width: 4, Height: 2, Format: format}))

	_, pl := storageLayout(t, d)
	mod, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "uv",
		Kernels: &gpucore.Kernels{Fragment: map[string]gpucore.FragmentKernel{
			"fs_main": func(_ gpucore.Bindings, in gpucore.FragmentInput) [4]float32 {
				return [4]float32{in.UV[0], in.UV[1], 1, 1}
			},
		}},
	})
	mustNoErr(t, err)
	pipe, err := d.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label: "uv", Layout: pl, Module: mod,
		VertexEntryPoint: "vs_main", FragmentEntryPoint: "fs_main",
		VertexBuffers: []gpucore.VertexBufferLayout{{ArrayStride: 24, Attributes: []gpucore.VertexAttribute{
			{Format: gpucore.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			{Format: gpucore.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 1},
		}}},
		TargetFormat: format,
		CullMode:     gpucore.CullModeBack,
		FrontFace:    gpucore.FrontFaceCCW,
	})
	mustNoErr(t, err)
	vb, ib := quadBuffers(t, d, indices)

	view, err := s.Acquire()
	mustNoErr(t, err)
	enc, _ := d.CreateCommandEncoder("frame")
	rp := enc.BeginRenderPass(&gpucore.RenderPassDesc{Target: view, ClearColor: gpucore.Color{A: 1}})
	rp.SetPipeline(pipe)
	rp.SetVertexBuffer(0, vb)
	rp.SetIndexBuffer(ib, gpucore.IndexFormatUint16)
	rp.DrawIndexed(uint32(len(indices)), 1)
	rp.End()
	cmd, err := enc.Finish()
	mustNoErr(t, err)
	mustNoErr(t, d.Submit(cmd))
	mustNoErr(t, s.Present(view))
	return s
}

func TestDevice_RenderQuadCoversTarget(t *testing.T) {
	for _, format := range []gpucore.TextureFormat{gpucore.TextureFormatRGBA8Unorm, gpucore.TextureFormatBGRA8Unorm} {
		t.Run(format.String(), func(t *testing.T) {
			s := drawQuad(t, []uint16{0, 1, 2, 2, 3, 0}, format)
			img := s.LastFrame()
			for y := 0; y < 2; y++ {
				for x := 0; x < 4; x++ {
					c := img.RGBAAt(x, y)
					if c.B != 255 {
						t.Fatalf("pixel (%d,%d) = %v, not covered by the quad", x, y, c)
					}
				}
			}
			// uv.x grows left to right, uv.y grows bottom to top.
			if left, right := img.RGBAAt(0, 0).R, img.RGBAAt(3, 0).R; left >= right {
				t.Errorf("R left=%d right=%d, want increasing", left, right)
			}
			if top, bottom := img.RGBAAt(0, 0).G, img.RGBAAt(0, 1).G; top <= bottom {
				t.Errorf("G top=%d bottom=%d, want top > bottom", top, bottom)
			}
		})
	}
}

func TestDevice_RenderCullsBackFaces(t *testing.T) {
	// Clockwise winding: both triangles are back faces.
	s := drawQuad(t, []uint16{0, 2, 1, 0, 3, 2}, gpucore.TextureFormatRGBA8Unorm)
	img := s.LastFrame()
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i+2] != 0 {
			t.Fatalf("pixel %d drawn, want only the clear color", i/4)
		}
	}
}

// =============================================================================
// Surface
// =============================================================================

func TestSurface_AcquireErrors(t *testing.T) {
	d := New()
	defer d.Destroy()
	s := NewSurface(d)

	if _, err := s.Acquire(); !errors.Is(err, cells.ErrSurfaceOutdated) {
		t.Errorf("Acquire() before Configure error = %v, want ErrSurfaceOutdated", err)
	}
	mustNoErr(t, s.Configure(gpucore.SurfaceConfig{Width: 2, Height: 2, Format: gpucore.TextureFormatRGBA8Unorm}))

	s.FailAcquire(cells.ErrSurfaceLost)
	if _, err := s.Acquire(); !errors.Is(err, cells.ErrSurfaceLost) {
		t.Errorf("Acquire() error = %v, want injected ErrSurfaceLost", err)
	}
	v, err := s.Acquire()
	mustNoErr(t, err)
	if _, err := s.Acquire(); !errors.Is(err, cells.ErrFrameOutstanding) {
		t.Errorf("second Acquire() error = %v, want ErrFrameOutstanding", err)
	}
	mustNoErr(t, s.Present(v))
	if s.Presents() != 1 {
		t.Errorf("Presents() = %d, want 1", s.Presents())
	}
	if err := s.Present(v); err == nil {
		t.Error("presenting twice should fail")
	}
}

func TestSurface_ConfigureValidation(t *testing.T) {
	d := New()
	defer d.Destroy()
	s := NewSurface(d)

	if err := s.Configure(gpucore.SurfaceConfig{Width: 0, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm}); err == nil {
		t.Error("zero width should fail")
	}
	if err := s.Configure(gpucore.SurfaceConfig{Width: 4, Height: 4}); !errors.Is(err, cells.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
	if s.Configures() != 0 {
		t.Errorf("Configures() = %d, want 0", s.Configures())
	}
}

func TestDevice_Live(t *testing.T) {
	d := New()
	defer d.Destroy()

	b, _ := d.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	bgl, pl := storageLayout(t, d)
	if d.Live() != 3 {
		t.Errorf("Live() = %d, want 3", d.Live())
	}
	d.DestroyPipelineLayout(pl)
	d.DestroyBindGroupLayout(bgl)
	d.DestroyBuffer(b)
	if d.Live() != 0 {
		t.Errorf("Live() = %d, want 0", d.Live())
	}
}
