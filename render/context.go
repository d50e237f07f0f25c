// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/internal/shader"
)

// Frame is a surface texture acquired for one tick. It is valid only until
// it is passed to Present.
type Frame struct {
	View   gpucore.TextureViewID
	Width  uint32
	Height uint32
}

// Option configures a Context.
type Option func(*Context)

// WithSurfaceFormat sets the swapchain format. Default: BGRA8Unorm.
func WithSurfaceFormat(f gpucore.TextureFormat) Option {
	return func(c *Context) { c.format = f }
}

// WithShaderValidation toggles naga validation of WGSL before module
// creation. Default: enabled.
func WithShaderValidation(on bool) Option {
	return func(c *Context) { c.validate = on }
}

// Context owns the surface and every GPU resource created through it.
//
// A Context is used from one goroutine.
type Context struct {
	dev     gpucore.Device
	surface gpucore.Surface

	format   gpucore.TextureFormat
	validate bool

	width, height uint32
	configured    bool
	outstanding   bool
	configures    int

	resources []resource
}

type resourceKind uint8

const (
	kindBuffer resourceKind = iota
	kindShaderModule
	kindBindGroupLayout
	kindPipelineLayout
	kindComputePipeline
	kindRenderPipeline
	kindBindGroup
)

type resource struct {
	kind resourceKind
	id   uint64
}

// New wraps a device and the surface frames are presented to. The surface
// is configured on the first Reconfigure with a non-zero size.
func New(dev gpucore.Device, surface gpucore.Surface, opts ...Option) (*Context, error) {
	if dev == nil || surface == nil {
		return nil, errors.New("render: device and surface are required")
	}
	c := &Context{
		dev:      dev,
		surface:  surface,
		format:   gpucore.TextureFormatBGRA8Unorm,
		validate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	switch c.format {
	case gpucore.TextureFormatBGRA8Unorm, gpucore.TextureFormatRGBA8Unorm:
	default:
		return nil, fmt.Errorf("render: surface format %v: %w", c.format, cells.ErrUnsupportedFormat)
	}
	return c, nil
}

// Device returns the device for command recording and buffer transfers.
func (c *Context) Device() gpucore.Device { return c.dev }

// Format returns the surface format render pipelines must target.
func (c *Context) Format() gpucore.TextureFormat { return c.format }

// Size returns the last configured surface size.
func (c *Context) Size() (width, height uint32) { return c.width, c.height }

// Configures returns how many surface configurations succeeded.
func (c *Context) Configures() int { return c.configures }

// Limits returns the device limits.
func (c *Context) Limits() gpucore.Limits { return c.dev.Limits() }

// === Surface ===

// Reconfigure resizes the surface. A zero width or height (a minimized
// window) is ignored, as is a call with the current size.
func (c *Context) Reconfigure(width, height uint32) error {
	if width == 0 || height == 0 {
		cells.Logger().Debug("render: ignoring zero-size reconfigure", "width", width, "height", height)
		return nil
	}
	if c.configured && width == c.width && height == c.height {
		return nil
	}
	return c.configure(width, height)
}

// Recover reconfigures the surface at its last known size after a lost or
// outdated error, even though the size has not changed.
func (c *Context) Recover() error {
	if c.width == 0 || c.height == 0 {
		return nil
	}
	return c.configure(c.width, c.height)
}

// configure records width x height as the last known size before touching
// the surface, so a failed configure is retried at that size by Recover.
func (c *Context) configure(width, height uint32) error {
	c.outstanding = false
	c.width, c.height = width, height
	err := c.surface.Configure(gpucore.SurfaceConfig{Width: width, Height: height, Format: c.format})
	if err != nil {
		c.configured = false
		return fmt.Errorf("render: configure %dx%d: %w", width, height, err)
	}
	c.configured = true
	c.configures++
	cells.Logger().Debug("render: surface configured", "width", width, "height", height, "format", c.format)
	return nil
}

// AcquireFrame returns the next texture to draw into. Errors are
// ErrSurfaceLost and ErrSurfaceOutdated (recoverable via Recover),
// ErrTimeout and ErrOutOfMemory (fatal), or ErrFrameOutstanding.
func (c *Context) AcquireFrame() (Frame, error) {
	if c.outstanding {
		return Frame{}, cells.ErrFrameOutstanding
	}
	if !c.configured {
		return Frame{}, fmt.Errorf("render: surface not configured: %w", cells.ErrSurfaceOutdated)
	}
	view, err := c.surface.Acquire()
	if err != nil {
		return Frame{}, fmt.Errorf("render: acquire: %w", err)
	}
	c.outstanding = true
	return Frame{View: view, Width: c.width, Height: c.height}, nil
}

// Present hands the frame back to the surface for display.
func (c *Context) Present(f Frame) error {
	if !c.outstanding {
		return errors.New("render: present without an acquired frame")
	}
	c.outstanding = false
	if err := c.surface.Present(f.View); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	return nil
}

// === Resources ===

// CreateBuffer creates a buffer owned by the context.
func (c *Context) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if limit := c.dev.Limits().MaxBufferSize; limit != 0 && size > limit {
		return gpucore.InvalidID, fmt.Errorf("render: buffer %q needs %d bytes, device allows %d: %w", label, size, limit, cells.ErrLimitsExceeded)
	}
	id, err := c.dev.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: size, Usage: usage})
	if err != nil {
		return gpucore.InvalidID, err
	}
	c.track(kindBuffer, uint64(id))
	return id, nil
}

// WriteBuffer uploads data through the queue.
func (c *Context) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	return c.dev.WriteBuffer(id, offset, data)
}

// DestroyBuffer releases a buffer created by CreateBuffer.
func (c *Context) DestroyBuffer(id gpucore.BufferID) {
	if c.untrack(kindBuffer, uint64(id)) {
		c.dev.DestroyBuffer(id)
	}
}

// ComputePipelineDesc describes a compute pipeline with one bind group.
type ComputePipelineDesc struct {
	Label         string
	WGSL          string
	EntryPoint    string
	WorkgroupSize [3]uint32
	Bindings      []gpucore.BindGroupLayoutEntry
	Kernels       *gpucore.Kernels
}

// ComputePipeline is a compute pipeline and the layout of its bind group.
type ComputePipeline struct {
	Pipeline gpucore.ComputePipelineID
	Layout   gpucore.BindGroupLayoutID

	module         gpucore.ShaderModuleID
	pipelineLayout gpucore.PipelineLayoutID
}

// CreateComputePipeline validates the shader and workgroup size and
// creates the pipeline. Limit violations are ErrLimitsExceeded.
func (c *Context) CreateComputePipeline(desc ComputePipelineDesc) (*ComputePipeline, error) {
	if err := checkWorkgroup(desc.WorkgroupSize, c.dev.Limits()); err != nil {
		return nil, fmt.Errorf("render: compute pipeline %q: %w", desc.Label, err)
	}

	module, err := c.createModule(desc.Label, desc.WGSL, desc.Kernels, func(m *shader.Module) error {
		ep, err := m.Require(desc.EntryPoint, shader.StageCompute)
		if err != nil {
			return err
		}
		if ep.Workgroup != desc.WorkgroupSize {
			return fmt.Errorf("entry point %q declares workgroup %v, pipeline uses %v: %w", desc.EntryPoint, ep.Workgroup, desc.WorkgroupSize, cells.ErrShaderCompile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p := &ComputePipeline{module: module}
	if p.Layout, p.pipelineLayout, err = c.createLayouts(desc.Label, desc.Bindings); err != nil {
		c.destroyModule(module)
		return nil, err
	}
	p.Pipeline, err = c.dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:         desc.Label,
		Layout:        p.pipelineLayout,
		Module:        module,
		EntryPoint:    desc.EntryPoint,
		WorkgroupSize: desc.WorkgroupSize,
	})
	if err != nil {
		c.destroyLayouts(p.Layout, p.pipelineLayout)
		c.destroyModule(module)
		return nil, fmt.Errorf("render: compute pipeline %q: %w", desc.Label, err)
	}
	c.track(kindComputePipeline, uint64(p.Pipeline))
	return p, nil
}

// DestroyComputePipeline releases a pipeline and its layouts and module.
func (c *Context) DestroyComputePipeline(p *ComputePipeline) {
	if p == nil {
		return
	}
	if c.untrack(kindComputePipeline, uint64(p.Pipeline)) {
		c.dev.DestroyComputePipeline(p.Pipeline)
	}
	c.destroyLayouts(p.Layout, p.pipelineLayout)
	c.destroyModule(p.module)
}

// RenderPipelineDesc describes a render pipeline with one bind group that
// draws into the surface format.
type RenderPipelineDesc struct {
	Label              string
	WGSL               string
	VertexEntryPoint   string
	FragmentEntryPoint string
	VertexBuffers      []gpucore.VertexBufferLayout
	Bindings           []gpucore.BindGroupLayoutEntry
	CullMode           gpucore.CullMode
	FrontFace          gpucore.FrontFace
	Kernels            *gpucore.Kernels
}

// RenderPipeline is a render pipeline and the layout of its bind group.
type RenderPipeline struct {
	Pipeline gpucore.RenderPipelineID
	Layout   gpucore.BindGroupLayoutID

	module         gpucore.ShaderModuleID
	pipelineLayout gpucore.PipelineLayoutID
}

// CreateRenderPipeline validates the shader and creates the pipeline.
func (c *Context) CreateRenderPipeline(desc RenderPipelineDesc) (*RenderPipeline, error) {
	module, err := c.createModule(desc.Label, desc.WGSL, desc.Kernels, func(m *shader.Module) error {
		if _, err := m.Require(desc.VertexEntryPoint, shader.StageVertex); err != nil {
			return err
		}
		_, err := m.Require(desc.FragmentEntryPoint, shader.StageFragment)
		return err
	})
	if err != nil {
		return nil, err
	}
	p := &RenderPipeline{module: module}
	if p.Layout, p.pipelineLayout, err = c.createLayouts(desc.Label, desc.Bindings); err != nil {
		c.destroyModule(module)
		return nil, err
	}
	p.Pipeline, err = c.dev.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:              desc.Label,
		Layout:             p.pipelineLayout,
		Module:             module,
		VertexEntryPoint:   desc.VertexEntryPoint,
		FragmentEntryPoint: desc.FragmentEntryPoint,
		VertexBuffers:      desc.VertexBuffers,
		TargetFormat:       c.format,
		CullMode:           desc.CullMode,
		FrontFace:          desc.FrontFace,
	})
	if err != nil {
		c.destroyLayouts(p.Layout, p.pipelineLayout)
		c.destroyModule(module)
		return nil, fmt.Errorf("render: render pipeline %q: %w", desc.Label, err)
	}
	c.track(kindRenderPipeline, uint64(p.Pipeline))
	return p, nil
}

// DestroyRenderPipeline releases a pipeline and its layouts and module.
func (c *Context) DestroyRenderPipeline(p *RenderPipeline) {
	if p == nil {
		return
	}
	if c.untrack(kindRenderPipeline, uint64(p.Pipeline)) {
		c.dev.DestroyRenderPipeline(p.Pipeline)
	}
	c.destroyLayouts(p.Layout, p.pipelineLayout)
	c.destroyModule(p.module)
}

// CreateBindGroup creates a bind group owned by the context.
func (c *Context) CreateBindGroup(label string, layout gpucore.BindGroupLayoutID, entries ...gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	id, err := c.dev.CreateBindGroup(&gpucore.BindGroupDesc{Label: label, Layout: layout, Entries: entries})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("render: bind group %q: %w", label, err)
	}
	c.track(kindBindGroup, uint64(id))
	return id, nil
}

// DestroyBindGroup releases a bind group created by CreateBindGroup.
func (c *Context) DestroyBindGroup(id gpucore.BindGroupID) {
	if c.untrack(kindBindGroup, uint64(id)) {
		c.dev.DestroyBindGroup(id)
	}
}

// === Submission ===

// Submit enqueues command buffers without waiting.
func (c *Context) Submit(cmds ...gpucore.CommandBuffer) error {
	return c.dev.Submit(cmds...)
}

// Drain blocks until all submitted work has completed.
func (c *Context) Drain(timeout time.Duration) error {
	return c.dev.WaitIdle(timeout)
}

// Live returns the number of resources still owned by the context.
func (c *Context) Live() int { return len(c.resources) }

// Release destroys every remaining resource in reverse creation order and
// then the surface swapchain. The device itself is left to its owner.
func (c *Context) Release() {
	for i := len(c.resources) - 1; i >= 0; i-- {
		c.destroy(c.resources[i])
	}
	c.resources = nil
	c.surface.Release()
	c.configured = false
	c.outstanding = false
}

// === Internals ===

func (c *Context) createModule(label, wgsl string, kernels *gpucore.Kernels, check func(*shader.Module) error) (gpucore.ShaderModuleID, error) {
	desc := &gpucore.ShaderModuleDesc{Label: label, WGSL: wgsl, Kernels: kernels}
	if c.validate {
		m, err := shader.Compile(label, wgsl)
		if err != nil {
			return gpucore.InvalidID, err
		}
		if err := check(m); err != nil {
			return gpucore.InvalidID, err
		}
		desc.SPIRV = m.SPIRV
	}
	id, err := c.dev.CreateShaderModule(desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("render: shader module %q: %w", label, err)
	}
	c.track(kindShaderModule, uint64(id))
	return id, nil
}

func (c *Context) destroyModule(id gpucore.ShaderModuleID) {
	if c.untrack(kindShaderModule, uint64(id)) {
		c.dev.DestroyShaderModule(id)
	}
}

func (c *Context) createLayouts(label string, entries []gpucore.BindGroupLayoutEntry) (gpucore.BindGroupLayoutID, gpucore.PipelineLayoutID, error) {
	bgl, err := c.dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Label: label, Entries: entries})
	if err != nil {
		return gpucore.InvalidID, gpucore.InvalidID, fmt.Errorf("render: bind group layout %q: %w", label, err)
	}
	c.track(kindBindGroupLayout, uint64(bgl))
	pl, err := c.dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{Label: label, BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}})
	if err != nil {
		c.destroyLayouts(bgl, gpucore.InvalidID)
		return gpucore.InvalidID, gpucore.InvalidID, fmt.Errorf("render: pipeline layout %q: %w", label, err)
	}
	c.track(kindPipelineLayout, uint64(pl))
	return bgl, pl, nil
}

func (c *Context) destroyLayouts(bgl gpucore.BindGroupLayoutID, pl gpucore.PipelineLayoutID) {
	if c.untrack(kindPipelineLayout, uint64(pl)) {
		c.dev.DestroyPipelineLayout(pl)
	}
	if c.untrack(kindBindGroupLayout, uint64(bgl)) {
		c.dev.DestroyBindGroupLayout(bgl)
	}
}

func (c *Context) track(kind resourceKind, id uint64) {
	c.resources = append(c.resources, resource{kind: kind, id: id})
}

// untrack removes a resource and reports whether it was tracked.
func (c *Context) untrack(kind resourceKind, id uint64) bool {
	for i := len(c.resources) - 1; i >= 0; i-- {
		if r := c.resources[i]; r.kind == kind && r.id == id {
			c.resources = append(c.resources[:i], c.resources[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Context) destroy(r resource) {
	switch r.kind {
	case kindBuffer:
		c.dev.DestroyBuffer(gpucore.BufferID(r.id))
	case kindShaderModule:
		c.dev.DestroyShaderModule(gpucore.ShaderModuleID(r.id))
	case kindBindGroupLayout:
		c.dev.DestroyBindGroupLayout(gpucore.BindGroupLayoutID(r.id))
	case kindPipelineLayout:
		c.dev.DestroyPipelineLayout(gpucore.PipelineLayoutID(r.id))
	case kindComputePipeline:
		c.dev.DestroyComputePipeline(gpucore.ComputePipelineID(r.id))
	case kindRenderPipeline:
		c.dev.DestroyRenderPipeline(gpucore.RenderPipelineID(r.id))
	case kindBindGroup:
		c.dev.DestroyBindGroup(gpucore.BindGroupID(r.id))
	}
}

// checkWorkgroup validates a compute workgroup size against device limits.
func checkWorkgroup(size [3]uint32, lim gpucore.Limits) error {
	if size[0] == 0 || size[1] == 0 || size[2] == 0 {
		return fmt.Errorf("workgroup size %v has a zero dimension: %w", size, cells.ErrLimitsExceeded)
	}
	if size[0] > lim.MaxComputeWorkgroupSizeX || size[1] > lim.MaxComputeWorkgroupSizeY || size[2] > lim.MaxComputeWorkgroupSizeZ {
		return fmt.Errorf("workgroup size %v exceeds per-dimension limits: %w", size, cells.ErrLimitsExceeded)
	}
	if size[0]*size[1]*size[2] > lim.MaxComputeInvocationsPerWorkgroup {
		return fmt.Errorf("workgroup size %v exceeds %d invocations: %w", size, lim.MaxComputeInvocationsPerWorkgroup, cells.ErrLimitsExceeded)
	}
	return nil
}
