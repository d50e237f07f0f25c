//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// commandBuffer is a finished hal command buffer awaiting submission.
type commandBuffer struct {
	dev      *Device
	raw      hal.CommandBuffer
	label    string
	consumed bool
}

func (c *commandBuffer) Label() string { return c.label }

// commandEncoder wraps hal.CommandEncoder and resolves gpucore IDs while
// recording. Lookup failures are collected and reported by Finish.
type commandEncoder struct {
	dev   *Device
	enc   hal.CommandEncoder
	label string
	errs  []error
	done  bool
}

func (e *commandEncoder) fail(err error) {
	e.errs = append(e.errs, err)
}

func (e *commandEncoder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	pass := e.enc.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	return &computePass{enc: e, pass: pass}
}

func (e *commandEncoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPassEncoder {
	view, ok := e.dev.lookupView(desc.Target)
	if !ok {
		e.fail(fmt.Errorf("native: render pass %q: texture view %d not found", desc.Label, desc.Target))
		return &renderPass{enc: e}
	}
	c := desc.ClearColor
	pass := e.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A},
		}},
	})
	return &renderPass{enc: e, pass: pass}
}

func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.done {
		return nil, fmt.Errorf("native: encoder %q already finished", e.label)
	}
	e.done = true
	if len(e.errs) > 0 {
		e.enc.DiscardEncoding()
		return nil, errors.Join(e.errs...)
	}
	raw, err := e.enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("native: end encoding %q: %w", e.label, mapError(err))
	}
	return &commandBuffer{dev: e.dev, raw: raw, label: e.label}, nil
}

func (e *commandEncoder) Discard() {
	if e.done {
		return
	}
	e.done = true
	e.enc.DiscardEncoding()
}

// === Compute Pass Encoder ===

type computePass struct {
	enc  *commandEncoder
	pass hal.ComputePassEncoder
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	p.enc.dev.mu.RLock()
	pipeline, ok := p.enc.dev.computePipelines[id]
	p.enc.dev.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("native: compute pipeline %d not found", id))
		return
	}
	p.pass.SetPipeline(pipeline)
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	p.enc.dev.mu.RLock()
	group, ok := p.enc.dev.bindGroups[id]
	p.enc.dev.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("native: bind group %d not found", id))
		return
	}
	p.pass.SetBindGroup(index, group, nil)
}

func (p *computePass) Dispatch(x, y, z uint32) {
	p.pass.Dispatch(x, y, z)
}

func (p *computePass) End() {
	p.pass.End()
}

// === Render Pass Encoder ===

// renderPass forwards to hal. pass is nil when the target could not be
// resolved; every call is then dropped and Finish reports the failure.
type renderPass struct {
	enc  *commandEncoder
	pass hal.RenderPassEncoder
}

func (p *renderPass) SetPipeline(id gpucore.RenderPipelineID) {
	if p.pass == nil {
		return
	}
	p.enc.dev.mu.RLock()
	pipeline, ok := p.enc.dev.renderPipelines[id]
	p.enc.dev.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("native: render pipeline %d not found", id))
		return
	}
	p.pass.SetPipeline(pipeline)
}

func (p *renderPass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.pass == nil {
		return
	}
	p.enc.dev.mu.RLock()
	group, ok := p.enc.dev.bindGroups[id]
	p.enc.dev.mu.RUnlock()
	if !ok {
		p.enc.fail(fmt.Errorf("native: bind group %d not found", id))
		return
	}
	p.pass.SetBindGroup(index, group, nil)
}

func (p *renderPass) SetVertexBuffer(slot uint32, id gpucore.BufferID) {
	if p.pass == nil {
		return
	}
	buf, err := p.enc.dev.lookupBuffer(id)
	if err != nil {
		p.enc.fail(err)
		return
	}
	p.pass.SetVertexBuffer(slot, buf.hal, 0)
}

func (p *renderPass) SetIndexBuffer(id gpucore.BufferID, format gpucore.IndexFormat) {
	if p.pass == nil {
		return
	}
	buf, err := p.enc.dev.lookupBuffer(id)
	if err != nil {
		p.enc.fail(err)
		return
	}
	p.pass.SetIndexBuffer(buf.hal, convertIndexFormat(format), 0)
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount uint32) {
	if p.pass == nil {
		return
	}
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *renderPass) End() {
	if p.pass == nil {
		return
	}
	p.pass.End()
}
