package present

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/render"
)

// Option configures a Presenter.
type Option func(*Presenter)

// WithStyle sets the cell colors. The default is grid.DefaultStyle.
func WithStyle(s grid.Style) Option {
	return func(p *Presenter) { p.style = s }
}

// Presenter draws a grid.Store into surface frames as one indexed quad.
//
// It owns one bind group per cell buffer, so drawing either generation is
// a matter of picking the group.
type Presenter struct {
	ctx   *render.Context
	store *grid.Store
	style grid.Style

	pipeline *render.RenderPipeline
	vertices gpucore.BufferID
	indices  gpucore.BufferID
	styleBuf gpucore.BufferID
	groups   [2]gpucore.BindGroupID
}

// New uploads the quad and creates the render pipeline for the context's
// surface format. Front faces wind counter-clockwise and back faces are
// culled.
func New(ctx *render.Context, store *grid.Store, opts ...Option) (*Presenter, error) {
	p := &Presenter{ctx: ctx, store: store, style: grid.DefaultStyle()}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	p.pipeline, err = ctx.CreateRenderPipeline(render.RenderPipelineDesc{
		Label:              "cells-quad",
		WGSL:               quadWGSL,
		VertexEntryPoint:   vertexEntryPoint,
		FragmentEntryPoint: fragmentEntryPoint,
		VertexBuffers:      []gpucore.VertexBufferLayout{VertexLayout()},
		Bindings:           quadBindings(),
		CullMode:           gpucore.CullModeBack,
		FrontFace:          gpucore.FrontFaceCCW,
		Kernels: &gpucore.Kernels{Fragment: map[string]gpucore.FragmentKernel{
			fragmentEntryPoint: fragmentKernel,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("present: %w", err)
	}

	if p.vertices, err = p.upload("quad-vertices", gpucore.BufferUsageVertex, encodeVertices(QuadVertices())); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.indices, err = p.upload("quad-indices", gpucore.BufferUsageIndex, encodeIndices(QuadIndices)); err != nil {
		p.Destroy()
		return nil, err
	}
	if p.styleBuf, err = p.upload("style", gpucore.BufferUsageUniform, p.style.Bytes()); err != nil {
		p.Destroy()
		return nil, err
	}

	for i := range p.groups {
		p.groups[i], err = ctx.CreateBindGroup(fmt.Sprintf("cells-quad-%d", i), p.pipeline.Layout,
			gpucore.BindGroupEntry{Binding: bindingCells, Buffer: store.Buffer(i)},
			gpucore.BindGroupEntry{Binding: bindingParams, Buffer: store.ParamsBuffer()},
			gpucore.BindGroupEntry{Binding: bindingStyle, Buffer: p.styleBuf},
		)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("present: bind group %d: %w", i, err)
		}
	}
	cells.Logger().Debug("present: presenter ready", "format", ctx.Format().String())
	return p, nil
}

func (p *Presenter) upload(label string, usage gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	id, err := p.ctx.CreateBuffer(label, uint64(len(data)), usage|gpucore.BufferUsageCopyDst)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("present: %s: %w", label, err)
	}
	if err := p.ctx.WriteBuffer(id, 0, data); err != nil {
		p.ctx.DestroyBuffer(id)
		return gpucore.InvalidID, fmt.Errorf("present: upload %s: %w", label, err)
	}
	return id, nil
}

// Style returns the current colors.
func (p *Presenter) Style() grid.Style { return p.style }

// SetStyle uploads new colors for subsequent frames.
func (p *Presenter) SetStyle(s grid.Style) error {
	if err := p.ctx.WriteBuffer(p.styleBuf, 0, s.Bytes()); err != nil {
		return fmt.Errorf("present: upload style: %w", err)
	}
	p.style = s
	return nil
}

// Encode records a render pass that clears frame to the background color
// and draws cell buffer index over it.
func (p *Presenter) Encode(enc gpucore.CommandEncoder, frame render.Frame, index int) {
	bg := p.style.Background
	pass := enc.BeginRenderPass(&gpucore.RenderPassDesc{
		Label:      "cells-quad",
		Target:     frame.View,
		ClearColor: gpucore.Color{R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: float64(bg[3])},
	})
	pass.SetPipeline(p.pipeline.Pipeline)
	pass.SetBindGroup(0, p.groups[index&1])
	pass.SetVertexBuffer(0, p.vertices)
	pass.SetIndexBuffer(p.indices, gpucore.IndexFormatUint16)
	pass.DrawIndexed(uint32(len(QuadIndices)), 1)
	pass.End()
}

// Render records a command buffer drawing cell buffer index into frame.
func (p *Presenter) Render(frame render.Frame, index int) (gpucore.CommandBuffer, error) {
	enc, err := p.ctx.Device().CreateCommandEncoder("present")
	if err != nil {
		return nil, fmt.Errorf("present: %w", err)
	}
	p.Encode(enc, frame, index)
	cmd, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("present: %w", err)
	}
	return cmd, nil
}

// Destroy releases the pipeline, buffers and bind groups.
func (p *Presenter) Destroy() {
	for i := len(p.groups) - 1; i >= 0; i-- {
		if p.groups[i] != gpucore.InvalidID {
			p.ctx.DestroyBindGroup(p.groups[i])
			p.groups[i] = gpucore.InvalidID
		}
	}
	for _, id := range []*gpucore.BufferID{&p.styleBuf, &p.indices, &p.vertices} {
		if *id != gpucore.InvalidID {
			p.ctx.DestroyBuffer(*id)
			*id = gpucore.InvalidID
		}
	}
	if p.pipeline != nil {
		p.ctx.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
}
