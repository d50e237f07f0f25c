package soft

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/internal/parallel"
)

// Name is the backend registry name of the soft device.
const Name = "soft"

type buffer struct {
	desc gpucore.BufferDesc
	data []byte
}

type computePipeline struct {
	desc   gpucore.ComputePipelineDesc
	kernel gpucore.ComputeKernel
}

type renderPipeline struct {
	desc     gpucore.RenderPipelineDesc
	fragment gpucore.FragmentKernel
}

type target struct {
	img    *image.RGBA
	format gpucore.TextureFormat
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	mu     sync.Mutex
	limits gpucore.Limits
	pool   *parallel.WorkerPool
	nextID uint64

	buffers          map[gpucore.BufferID]*buffer
	modules          map[gpucore.ShaderModuleID]*gpucore.ShaderModuleDesc
	bindGroupLayouts map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc
	pipelineLayouts  map[gpucore.PipelineLayoutID]*gpucore.PipelineLayoutDesc
	computePipelines map[gpucore.ComputePipelineID]*computePipeline
	renderPipelines  map[gpucore.RenderPipelineID]*renderPipeline
	bindGroups       map[gpucore.BindGroupID]*gpucore.BindGroupDesc
	targets          map[gpucore.TextureViewID]*target

	submitErr error
	submits   int
}

// Option configures a Device.
type Option func(*Device)

// WithLimits overrides the reported device limits.
func WithLimits(l gpucore.Limits) Option {
	return func(d *Device) { d.limits = l }
}

// WithWorkers sets the number of worker goroutines (default GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(d *Device) {
		d.pool.Close()
		d.pool = parallel.NewWorkerPool(n)
	}
}

// New creates a soft device.
func New(opts ...Option) *Device {
	d := &Device{
		limits:           gpucore.DefaultLimits(),
		pool:             parallel.NewWorkerPool(0),
		buffers:          make(map[gpucore.BufferID]*buffer),
		modules:          make(map[gpucore.ShaderModuleID]*gpucore.ShaderModuleDesc),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*gpucore.PipelineLayoutDesc),
		computePipelines: make(map[gpucore.ComputePipelineID]*computePipeline),
		renderPipelines:  make(map[gpucore.RenderPipelineID]*renderPipeline),
		bindGroups:       make(map[gpucore.BindGroupID]*gpucore.BindGroupDesc),
		targets:          make(map[gpucore.TextureViewID]*target),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

// Name implements gpucore.Device.
func (d *Device) Name() string { return "soft" }

// Limits implements gpucore.Device.
func (d *Device) Limits() gpucore.Limits { return d.limits }

// FailSubmit makes every following Submit return err. Pass nil to clear.
func (d *Device) FailSubmit(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitErr = err
}

// Submits returns the number of command buffers executed so far.
func (d *Device) Submits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits
}

// Live returns the number of device resources not yet destroyed, surface
// targets excluded.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers) + len(d.modules) + len(d.bindGroupLayouts) +
		len(d.pipelineLayouts) + len(d.computePipelines) + len(d.renderPipelines) +
		len(d.bindGroups)
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("soft: buffer %q: zero size", desc.Label)
	}
	if desc.Size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("soft: buffer %q of %d bytes: %w", desc.Label, desc.Size, cells.ErrLimitsExceeded)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BufferID(d.id())
	d.buffers[id] = &buffer{desc: *desc, data: make([]byte, desc.Size)}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buffers, id)
}

func (d *Device) buffer(id gpucore.BufferID) (*buffer, error) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("soft: unknown buffer %d", id)
	}
	return b, nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.buffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("soft: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, b.desc.Label, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// ReadBuffer implements gpucore.Device.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.buffer(id)
	if err != nil {
		return nil, err
	}
	if offset+size > uint64(len(b.data)) {
		return nil, fmt.Errorf("soft: read of %d bytes at %d overflows buffer %q", size, offset, b.desc.Label)
	}
	out := make([]byte, size)
	copy(out, b.data[offset:offset+size])
	return out, nil
}

// CreateShaderModule implements gpucore.Device.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc.Kernels == nil {
		return gpucore.InvalidID, fmt.Errorf("soft: module %q has no CPU kernels: %w", desc.Label, cells.ErrShaderCompile)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.ShaderModuleID(d.id())
	m := *desc
	d.modules[id] = &m
	return id, nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.modules, id)
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.BindGroupLayoutID(d.id())
	l := *desc
	l.Entries = append([]gpucore.BindGroupLayoutEntry(nil), desc.Entries...)
	d.bindGroupLayouts[id] = &l
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroupLayouts, id)
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range desc.BindGroupLayouts {
		if _, ok := d.bindGroupLayouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("soft: pipeline layout %q: unknown bind group layout %d", desc.Label, l)
		}
	}
	id := gpucore.PipelineLayoutID(d.id())
	l := *desc
	l.BindGroupLayouts = append([]gpucore.BindGroupLayoutID(nil), desc.BindGroupLayouts...)
	d.pipelineLayouts[id] = &l
	return id, nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelineLayouts, id)
}

// CreateComputePipeline implements gpucore.Device.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.modules[desc.Module]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("soft: compute pipeline %q: unknown module %d", desc.Label, desc.Module)
	}
	kernel := m.Kernels.Compute[desc.EntryPoint]
	if kernel == nil {
		return gpucore.InvalidID, fmt.Errorf("soft: compute pipeline %q: no kernel for entry point %q: %w",
			desc.Label, desc.EntryPoint, cells.ErrShaderCompile)
	}
	wg := desc.WorkgroupSize
	for i := range wg {
		wg[i] = max(wg[i], 1)
	}
	if wg[0]*wg[1]*wg[2] > d.limits.MaxComputeInvocationsPerWorkgroup {
		return gpucore.InvalidID, fmt.Errorf("soft: compute pipeline %q: workgroup %v: %w", desc.Label, wg, cells.ErrLimitsExceeded)
	}
	p := &computePipeline{desc: *desc, kernel: kernel}
	p.desc.WorkgroupSize = wg
	id := gpucore.ComputePipelineID(d.id())
	d.computePipelines[id] = p
	return id, nil
}

// DestroyComputePipeline implements gpucore.Device.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.computePipelines, id)
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.modules[desc.Module]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("soft: render pipeline %q: unknown module %d", desc.Label, desc.Module)
	}
	frag := m.Kernels.Fragment[desc.FragmentEntryPoint]
	if frag == nil {
		return gpucore.InvalidID, fmt.Errorf("soft: render pipeline %q: no kernel for entry point %q: %w",
			desc.Label, desc.FragmentEntryPoint, cells.ErrShaderCompile)
	}
	switch desc.TargetFormat {
	case gpucore.TextureFormatRGBA8Unorm, gpucore.TextureFormatBGRA8Unorm:
	default:
		return gpucore.InvalidID, fmt.Errorf("soft: render pipeline %q: target %v: %w", desc.Label, desc.TargetFormat, cells.ErrUnsupportedFormat)
	}
	if len(desc.VertexBuffers) != 1 {
		return gpucore.InvalidID, fmt.Errorf("soft: render pipeline %q: want exactly one vertex buffer, got %d", desc.Label, len(desc.VertexBuffers))
	}
	p := &renderPipeline{desc: *desc, fragment: frag}
	id := gpucore.RenderPipelineID(d.id())
	d.renderPipelines[id] = p
	return id, nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.renderPipelines, id)
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("soft: bind group %q: unknown layout %d", desc.Label, desc.Layout)
	}
	if len(desc.Entries) != len(layout.Entries) {
		return gpucore.InvalidID, fmt.Errorf("soft: bind group %q: %d entries, layout has %d",
			desc.Label, len(desc.Entries), len(layout.Entries))
	}
	for _, e := range desc.Entries {
		b, err := d.buffer(e.Buffer)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("bind group %q binding %d: %w", desc.Label, e.Binding, err)
		}
		size := e.Size
		if size == 0 {
			size = b.desc.Size - e.Offset
		}
		if e.Offset+size > b.desc.Size {
			return gpucore.InvalidID, fmt.Errorf("soft: bind group %q binding %d: range exceeds buffer", desc.Label, e.Binding)
		}
	}
	id := gpucore.BindGroupID(d.id())
	g := *desc
	g.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[id] = &g
	return id, nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroups, id)
}

// CreateCommandEncoder implements gpucore.Device.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	return &commandEncoder{dev: d, cmd: &commandBuffer{label: label}}, nil
}

// Submit implements gpucore.Device. Command buffers run to completion
// before Submit returns.
func (d *Device) Submit(cmds ...gpucore.CommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitErr != nil {
		return d.submitErr
	}
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb.dev != d {
			return fmt.Errorf("soft: command buffer %q does not belong to this device", c.Label())
		}
		if cb.consumed {
			return fmt.Errorf("soft: command buffer %q submitted twice", cb.label)
		}
		cb.consumed = true
		for _, p := range cb.passes {
			if err := p.run(d); err != nil {
				return fmt.Errorf("soft: %s: %w", cb.label, err)
			}
		}
		d.submits++
	}
	return nil
}

// WaitIdle implements gpucore.Device. Submission is synchronous, so there is
// never outstanding work.
func (d *Device) WaitIdle(time.Duration) error { return nil }

// Destroy implements gpucore.Device.
func (d *Device) Destroy() {
	d.pool.Close()
}

// registerTarget makes img renderable through the returned view.
func (d *Device) registerTarget(img *image.RGBA, format gpucore.TextureFormat) gpucore.TextureViewID {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := gpucore.TextureViewID(d.id())
	d.targets[id] = &target{img: img, format: format}
	return id
}

func (d *Device) releaseTarget(id gpucore.TextureViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.targets, id)
}

// bindings resolves the bind groups set on a pass into byte slices.
type bindings map[[2]uint32][]byte

func (b bindings) Buffer(group, binding uint32) []byte {
	return b[[2]uint32{group, binding}]
}

func (d *Device) resolve(groups []gpucore.BindGroupID) (bindings, error) {
	out := make(bindings)
	for gi, gid := range groups {
		if gid == gpucore.InvalidID {
			continue
		}
		g, ok := d.bindGroups[gid]
		if !ok {
			return nil, fmt.Errorf("unknown bind group %d", gid)
		}
		for _, e := range g.Entries {
			b, err := d.buffer(e.Buffer)
			if err != nil {
				return nil, err
			}
			end := uint64(len(b.data))
			if e.Size != 0 {
				end = e.Offset + e.Size
			}
			out[[2]uint32{uint32(gi), e.Binding}] = b.data[e.Offset:end]
		}
	}
	return out, nil
}
