package soft

import (
	"errors"
	"fmt"

	"github.com/gogpu/cells/gpucore"
)

const maxBindGroups = 4

type pass interface {
	run(d *Device) error
}

type commandBuffer struct {
	dev      *Device
	label    string
	passes   []pass
	consumed bool
}

func (c *commandBuffer) Label() string { return c.label }

type commandEncoder struct {
	dev      *Device
	cmd      *commandBuffer
	err      error
	finished bool
}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *commandEncoder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	p := &computePass{label: label}
	e.cmd.passes = append(e.cmd.passes, p)
	return &computePassEncoder{enc: e, pass: p}
}

func (e *commandEncoder) BeginRenderPass(desc *gpucore.RenderPassDesc) gpucore.RenderPassEncoder {
	p := &renderPass{desc: *desc}
	e.cmd.passes = append(e.cmd.passes, p)
	return &renderPassEncoder{enc: e, pass: p}
}

func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, errors.New("soft: encoder already finished")
	}
	e.finished = true
	if e.err != nil {
		return nil, fmt.Errorf("soft: %s: %w", e.cmd.label, e.err)
	}
	e.cmd.dev = e.dev
	return e.cmd, nil
}

func (e *commandEncoder) Discard() {
	e.finished = true
	e.cmd.passes = nil
}

// === Compute ===

type dispatch struct {
	pipeline gpucore.ComputePipelineID
	groups   [maxBindGroups]gpucore.BindGroupID
	x, y, z  uint32
}

type computePass struct {
	label      string
	dispatches []dispatch
}

type computePassEncoder struct {
	enc      *commandEncoder
	pass     *computePass
	pipeline gpucore.ComputePipelineID
	groups   [maxBindGroups]gpucore.BindGroupID
	ended    bool
}

func (c *computePassEncoder) SetPipeline(p gpucore.ComputePipelineID) { c.pipeline = p }

func (c *computePassEncoder) SetBindGroup(index uint32, g gpucore.BindGroupID) {
	if index >= maxBindGroups {
		c.enc.fail(fmt.Errorf("bind group index %d out of range", index))
		return
	}
	c.groups[index] = g
}

func (c *computePassEncoder) Dispatch(x, y, z uint32) {
	if c.ended {
		c.enc.fail(errors.New("dispatch after End"))
		return
	}
	if c.pipeline == gpucore.InvalidID {
		c.enc.fail(errors.New("dispatch without a pipeline"))
		return
	}
	c.pass.dispatches = append(c.pass.dispatches, dispatch{pipeline: c.pipeline, groups: c.groups, x: x, y: y, z: z})
}

func (c *computePassEncoder) End() { c.ended = true }

func (p *computePass) run(d *Device) error {
	for _, ds := range p.dispatches {
		pipe, ok := d.computePipelines[ds.pipeline]
		if !ok {
			return fmt.Errorf("%s: unknown compute pipeline %d", p.label, ds.pipeline)
		}
		b, err := d.resolve(ds.groups[:])
		if err != nil {
			return fmt.Errorf("%s: %w", p.label, err)
		}
		wg := pipe.desc.WorkgroupSize
		groups := int(ds.x * ds.y * ds.z)
		d.pool.ForEach(groups, func(i int) {
			gx := uint32(i) % ds.x
			gy := (uint32(i) / ds.x) % ds.y
			gz := uint32(i) / (ds.x * ds.y)
			for lz := range wg[2] {
				for ly := range wg[1] {
					for lx := range wg[0] {
						pipe.kernel(b, [3]uint32{gx*wg[0] + lx, gy*wg[1] + ly, gz*wg[2] + lz})
					}
				}
			}
		})
	}
	return nil
}

// === Render ===

type draw struct {
	pipeline    gpucore.RenderPipelineID
	groups      [maxBindGroups]gpucore.BindGroupID
	vertex      gpucore.BufferID
	index       gpucore.BufferID
	indexFormat gpucore.IndexFormat
	indexCount  uint32
}

type renderPass struct {
	desc  gpucore.RenderPassDesc
	draws []draw
}

type renderPassEncoder struct {
	enc   *commandEncoder
	pass  *renderPass
	state draw
	ended bool
}

func (r *renderPassEncoder) SetPipeline(p gpucore.RenderPipelineID) { r.state.pipeline = p }

func (r *renderPassEncoder) SetBindGroup(index uint32, g gpucore.BindGroupID) {
	if index >= maxBindGroups {
		r.enc.fail(fmt.Errorf("bind group index %d out of range", index))
		return
	}
	r.state.groups[index] = g
}

func (r *renderPassEncoder) SetVertexBuffer(slot uint32, b gpucore.BufferID) {
	if slot != 0 {
		r.enc.fail(fmt.Errorf("vertex buffer slot %d unsupported", slot))
		return
	}
	r.state.vertex = b
}

func (r *renderPassEncoder) SetIndexBuffer(b gpucore.BufferID, format gpucore.IndexFormat) {
	r.state.index = b
	r.state.indexFormat = format
}

func (r *renderPassEncoder) DrawIndexed(indexCount, instanceCount uint32) {
	switch {
	case r.ended:
		r.enc.fail(errors.New("draw after End"))
	case r.state.pipeline == gpucore.InvalidID:
		r.enc.fail(errors.New("draw without a pipeline"))
	case r.state.vertex == gpucore.InvalidID || r.state.index == gpucore.InvalidID:
		r.enc.fail(errors.New("draw without vertex or index buffer"))
	case instanceCount == 0:
	default:
		d := r.state
		d.indexCount = indexCount
		r.pass.draws = append(r.pass.draws, d)
	}
}

func (r *renderPassEncoder) End() { r.ended = true }

func (p *renderPass) run(d *Device) error {
	t, ok := d.targets[p.desc.Target]
	if !ok {
		return fmt.Errorf("%s: unknown render target %d", p.desc.Label, p.desc.Target)
	}
	c := p.desc.ClearColor
	bg := packColor([4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}, t.format)
	pix := t.img.Pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], bg[:])
	}
	for _, dr := range p.draws {
		if err := d.rasterize(t, dr); err != nil {
			return fmt.Errorf("%s: %w", p.desc.Label, err)
		}
	}
	return nil
}
