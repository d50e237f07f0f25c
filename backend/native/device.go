// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Name is the registry name of the hal backed device.
const Name = "native"

// pollInterval is how often WaitIdle polls the queue for completion.
const pollInterval = 200 * time.Microsecond

// Device implements gpucore.Device on top of gogpu/wgpu/hal.
//
// Thread Safety: resource maps are protected by a mutex, but command
// recording and submission are expected to happen on one goroutine.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	name   string
	limits gputypes.Limits

	// owned is set when the device was opened by this package and must be
	// destroyed together with the instance.
	owned    bool
	instance hal.Instance

	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]*buffer
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	computePipelines map[gpucore.ComputePipelineID]hal.ComputePipeline
	renderPipelines  map[gpucore.RenderPipelineID]hal.RenderPipeline
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	views            map[gpucore.TextureViewID]hal.TextureView

	// pending holds submitted command buffers until the queue reports them
	// complete.
	pending   []submission
	submitted uint64
}

type buffer struct {
	hal  hal.Buffer
	size uint64
}

type submission struct {
	index uint64
	cmds  []hal.CommandBuffer
}

// NewFromHAL wraps an already opened hal device and queue. The caller keeps
// ownership: Destroy releases the resources created through the wrapper but
// not the device itself. A nil limits uses the WebGPU defaults.
func NewFromHAL(device hal.Device, queue hal.Queue, limits *gputypes.Limits) *Device {
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}
	return newDevice(device, queue, "shared", lim)
}

func newDevice(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits) *Device {
	d := &Device{
		device:           device,
		queue:            queue,
		name:             name,
		limits:           limits,
		buffers:          make(map[gpucore.BufferID]*buffer),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		computePipelines: make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		renderPipelines:  make(map[gpucore.RenderPipelineID]hal.RenderPipeline),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		views:            make(map[gpucore.TextureViewID]hal.TextureView),
	}
	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)
	return d
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// HAL returns the underlying hal device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) {
	return d.device, d.queue
}

// === Capabilities ===

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// Limits returns the adapter limits translated to gpucore.
func (d *Device) Limits() gpucore.Limits {
	return convertLimits(d.limits)
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer size must be positive")
	}
	if desc.Size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q of %d bytes: %w", desc.Label, desc.Size, cells.ErrLimitsExceeded)
	}

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.BufferID(d.newID())
	d.mu.Lock()
	d.buffers[id] = &buffer{hal: buf, size: desc.Size}
	d.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	buf, ok := d.buffers[id]
	if ok {
		delete(d.buffers, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(buf.hal)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	buf, err := d.lookupBuffer(id)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("native: write of %d bytes at %d overflows buffer %d (%d bytes)", len(data), offset, id, buf.size)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(buf.hal, offset, data); err != nil {
		return fmt.Errorf("native: write buffer %d: %w", id, mapError(err))
	}
	return nil
}

// ReadBuffer copies a buffer range into a mappable staging buffer, waits for
// the queue and returns the bytes.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	buf, err := d.lookupBuffer(id)
	if err != nil {
		return nil, err
	}
	if size == 0 || offset+size > buf.size {
		return nil, fmt.Errorf("native: read of %d bytes at %d out of range for buffer %d", size, offset, id)
	}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "staging-readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", mapError(err))
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "buffer-read-encoder"})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", mapError(err))
	}
	if err := encoder.BeginEncoding("buffer-read"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", mapError(err))
	}
	encoder.CopyBufferToBuffer(buf.hal, staging, []hal.BufferCopy{{
		SrcOffset: offset,
		DstOffset: 0,
		Size:      size,
	}})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding: %w", mapError(err))
	}

	if err := d.submit([]hal.CommandBuffer{cmd}); err != nil {
		return nil, err
	}
	if err := d.WaitIdle(5 * time.Second); err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("native: map staging buffer: %w", mapError(err))
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("native: unmap staging buffer: %w", mapError(err))
	}
	return out, nil
}

func (d *Device) lookupBuffer(id gpucore.BufferID) (*buffer, error) {
	d.mu.RLock()
	buf, ok := d.buffers[id]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("native: buffer %d not found", id)
	}
	return buf, nil
}

// === Shaders and Pipelines ===

// CreateShaderModule creates a shader module from precompiled SPIR-V when
// present, otherwise from WGSL source. Go kernels are ignored.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil || desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("native: empty shader source: %w", cells.ErrShaderCompile)
	}

	source := hal.ShaderSource{WGSL: desc.WGSL}
	if len(desc.SPIRV) > 0 {
		source = hal.ShaderSource{SPIRV: desc.SPIRV}
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: source,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: shader module %q: %v: %w", desc.Label, err, cells.ErrShaderCompile)
	}

	id := gpucore.ShaderModuleID(d.newID())
	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	if ok {
		delete(d.shaderModules, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// CreateBindGroupLayout creates a bind group layout.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group layout descriptor")
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		entries[i] = convertBindGroupLayoutEntry(entry)
	}

	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.BindGroupLayoutID(d.newID())
	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	if ok {
		delete(d.bindGroupLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil pipeline layout descriptor")
	}

	d.mu.RLock()
	layouts := make([]hal.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, id := range desc.BindGroupLayouts {
		layout, ok := d.bindGroupLayouts[id]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group layout %d not found", id)
		}
		layouts[i] = layout
	}
	d.mu.RUnlock()

	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.PipelineLayoutID(d.newID())
	d.mu.Lock()
	d.pipelineLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	layout, ok := d.pipelineLayouts[id]
	if ok {
		delete(d.pipelineLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyPipelineLayout(layout)
	}
}

// CreateComputePipeline creates a compute pipeline. The workgroup size is
// checked against the adapter limits first.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil compute pipeline descriptor")
	}
	if err := checkWorkgroup(desc.WorkgroupSize, convertLimits(d.limits)); err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: compute pipeline %q: %w", desc.Label, err)
	}

	d.mu.RLock()
	layout, layoutOK := d.pipelineLayouts[desc.Layout]
	module, moduleOK := d.shaderModules[desc.Module]
	d.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %d not found", desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("native: shader module %d not found", desc.Module)
	}

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.ComputePipelineID(d.newID())
	d.mu.Lock()
	d.computePipelines[id] = pipeline
	d.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.mu.Lock()
	pipeline, ok := d.computePipelines[id]
	if ok {
		delete(d.computePipelines, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyComputePipeline(pipeline)
	}
}

// CreateRenderPipeline creates a render pipeline with a single color target
// and no blending.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil render pipeline descriptor")
	}
	format, err := convertTextureFormat(desc.TargetFormat)
	if err != nil {
		return gpucore.InvalidID, err
	}

	d.mu.RLock()
	layout, layoutOK := d.pipelineLayouts[desc.Layout]
	module, moduleOK := d.shaderModules[desc.Module]
	d.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %d not found", desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("native: shader module %d not found", desc.Module)
	}

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    convertVertexBuffers(desc.VertexBuffers),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: convertFrontFace(desc.FrontFace),
			CullMode:  convertCullMode(desc.CullMode),
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create render pipeline %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.RenderPipelineID(d.newID())
	d.mu.Lock()
	d.renderPipelines[id] = pipeline
	d.mu.Unlock()
	return id, nil
}

// DestroyRenderPipeline releases a render pipeline.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	pipeline, ok := d.renderPipelines[id]
	if ok {
		delete(d.renderPipelines, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyRenderPipeline(pipeline)
	}
}

// CreateBindGroup creates a bind group of buffer bindings.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group descriptor")
	}

	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		d.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("native: bind group layout %d not found", desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		buf, ok := d.buffers[entry.Buffer]
		if !ok {
			d.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q binding %d: buffer %d not found", desc.Label, entry.Binding, entry.Buffer)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding: entry.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.hal.NativeHandle(),
				Offset: entry.Offset,
				Size:   entry.Size,
			},
		}
	}
	d.mu.RUnlock()

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, mapError(err))
	}

	id := gpucore.BindGroupID(d.newID())
	d.mu.Lock()
	d.bindGroups[id] = group
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	if ok {
		delete(d.bindGroups, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// === Texture Views ===

// RegisterView makes a hal texture view usable as a render pass target. The
// view stays owned by the caller; ReleaseView only forgets the ID.
func (d *Device) RegisterView(view hal.TextureView) gpucore.TextureViewID {
	id := gpucore.TextureViewID(d.newID())
	d.mu.Lock()
	d.views[id] = view
	d.mu.Unlock()
	return id
}

// ReleaseView forgets a view registered with RegisterView.
func (d *Device) ReleaseView(id gpucore.TextureViewID) {
	d.mu.Lock()
	delete(d.views, id)
	d.mu.Unlock()
}

func (d *Device) lookupView(id gpucore.TextureViewID) (hal.TextureView, bool) {
	d.mu.RLock()
	view, ok := d.views[id]
	d.mu.RUnlock()
	return view, ok
}

// === Command Recording and Execution ===

// CreateCommandEncoder begins recording a command buffer.
func (d *Device) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", mapError(err))
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", mapError(err))
	}
	return &commandEncoder{dev: d, enc: enc, label: label}, nil
}

// Submit enqueues command buffers without waiting for the GPU.
func (d *Device) Submit(cmds ...gpucore.CommandBuffer) error {
	if len(cmds) == 0 {
		return nil
	}
	raw := make([]hal.CommandBuffer, 0, len(cmds))
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb.dev != d {
			return fmt.Errorf("native: command buffer %q belongs to another device", c.Label())
		}
		if cb.consumed {
			return fmt.Errorf("native: command buffer %q already submitted", cb.label)
		}
		cb.consumed = true
		raw = append(raw, cb.raw)
	}
	return d.submit(raw)
}

func (d *Device) submit(raw []hal.CommandBuffer) error {
	index, err := d.queue.Submit(raw)
	if err != nil {
		for _, cb := range raw {
			d.device.FreeCommandBuffer(cb)
		}
		return fmt.Errorf("native: submit: %w", mapError(err))
	}
	d.mu.Lock()
	d.pending = append(d.pending, submission{index: index, cmds: raw})
	d.submitted = index
	d.mu.Unlock()
	d.reclaim()
	return nil
}

// reclaim frees command buffers of completed submissions.
func (d *Device) reclaim() {
	done := d.queue.PollCompleted()
	d.mu.Lock()
	n := 0
	for _, s := range d.pending {
		if s.index > done {
			d.pending[n] = s
			n++
			continue
		}
		for _, cb := range s.cmds {
			d.device.FreeCommandBuffer(cb)
		}
	}
	clear(d.pending[n:])
	d.pending = d.pending[:n]
	d.mu.Unlock()
}

// WaitIdle polls the queue until every submission has completed.
func (d *Device) WaitIdle(timeout time.Duration) error {
	d.mu.RLock()
	target := d.submitted
	d.mu.RUnlock()

	deadline := time.Now().Add(timeout)
	for d.queue.PollCompleted() < target {
		if time.Now().After(deadline) {
			return fmt.Errorf("native: %d submissions still pending after %v: %w", target-d.queue.PollCompleted(), timeout, cells.ErrTimeout)
		}
		time.Sleep(pollInterval)
	}
	d.reclaim()
	return nil
}

// Destroy releases every resource still tracked, then the device and
// instance when they were opened by this package.
func (d *Device) Destroy() {
	_ = d.WaitIdle(5 * time.Second)

	d.mu.Lock()
	for id, g := range d.bindGroups {
		d.device.DestroyBindGroup(g)
		delete(d.bindGroups, id)
	}
	for id, p := range d.renderPipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.renderPipelines, id)
	}
	for id, p := range d.computePipelines {
		d.device.DestroyComputePipeline(p)
		delete(d.computePipelines, id)
	}
	for id, l := range d.pipelineLayouts {
		d.device.DestroyPipelineLayout(l)
		delete(d.pipelineLayouts, id)
	}
	for id, l := range d.bindGroupLayouts {
		d.device.DestroyBindGroupLayout(l)
		delete(d.bindGroupLayouts, id)
	}
	for id, m := range d.shaderModules {
		d.device.DestroyShaderModule(m)
		delete(d.shaderModules, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.hal)
		delete(d.buffers, id)
	}
	clear(d.views)
	d.mu.Unlock()

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

// Live returns the number of tracked resources, excluding texture views.
func (d *Device) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.buffers) + len(d.shaderModules) + len(d.bindGroupLayouts) +
		len(d.pipelineLayouts) + len(d.computePipelines) + len(d.renderPipelines) +
		len(d.bindGroups)
}

// checkWorkgroup validates a compute workgroup size against device limits.
func checkWorkgroup(size [3]uint32, lim gpucore.Limits) error {
	if size[0] == 0 || size[1] == 0 || size[2] == 0 {
		return fmt.Errorf("workgroup size %v has a zero dimension: %w", size, cells.ErrLimitsExceeded)
	}
	if size[0] > lim.MaxComputeWorkgroupSizeX || size[1] > lim.MaxComputeWorkgroupSizeY || size[2] > lim.MaxComputeWorkgroupSizeZ {
		return fmt.Errorf("workgroup size %v: %w", size, cells.ErrLimitsExceeded)
	}
	if size[0]*size[1]*size[2] > lim.MaxComputeInvocationsPerWorkgroup {
		return fmt.Errorf("workgroup size %v exceeds %d invocations: %w", size, lim.MaxComputeInvocationsPerWorkgroup, cells.ErrLimitsExceeded)
	}
	return nil
}

// Compile-time interface check.
var _ gpucore.Device = (*Device)(nil)
