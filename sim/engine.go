package sim

import (
	"fmt"

	"github.com/gogpu/cells"
	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/grid"
	"github.com/gogpu/cells/render"
)

// WorkgroupSize is the edge length of the square compute workgroup.
const WorkgroupSize = 8

// Transition selects the compute entry point a step runs.
type Transition struct {
	Label      string
	EntryPoint string
	Kernel     gpucore.ComputeKernel
}

// LifeLike applies the engine's Rule on a torus and decays trails.
func LifeLike() Transition {
	return Transition{Label: "step-life", EntryPoint: "step_life", Kernel: lifeKernel}
}

// Identity copies every cell unchanged.
func Identity() Transition {
	return Transition{Label: "step-identity", EntryPoint: "step_identity", Kernel: identityKernel}
}

// Option configures an Engine.
type Option func(*Engine)

// WithRule sets the life-like rule. The default is Conway.
func WithRule(r Rule) Option {
	return func(e *Engine) { e.rule = r }
}

// WithTransition sets the transition. The default is LifeLike.
func WithTransition(t Transition) Option {
	return func(e *Engine) { e.transition = t }
}

// Engine advances a grid.Store by one generation per step.
//
// It owns one bind group per read index: group i reads buffer i and writes
// buffer 1-i, so a step never has to rebuild bindings.
type Engine struct {
	ctx        *render.Context
	store      *grid.Store
	rule       Rule
	transition Transition

	pipeline *render.ComputePipeline
	ruleBuf  gpucore.BufferID
	groups   [2]gpucore.BindGroupID
	dispatch [3]uint32
}

// New creates the step pipeline for store. Device limits are checked here:
// a grid needing more workgroups per dimension, or a cell buffer larger
// than one storage binding, fails with ErrLimitsExceeded.
func New(ctx *render.Context, store *grid.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		ctx:        ctx,
		store:      store,
		rule:       Conway(),
		transition: LifeLike(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.dispatch = DispatchSize(store.Width(), store.Height())

	lim := ctx.Limits()
	if e.dispatch[0] > lim.MaxComputeWorkgroupsPerDimension || e.dispatch[1] > lim.MaxComputeWorkgroupsPerDimension {
		return nil, fmt.Errorf("sim: dispatch %dx%d exceeds %d workgroups per dimension: %w",
			e.dispatch[0], e.dispatch[1], lim.MaxComputeWorkgroupsPerDimension, cells.ErrLimitsExceeded)
	}
	if store.BufferSize() > lim.MaxStorageBufferBindingSize {
		return nil, fmt.Errorf("sim: cell buffer of %d bytes exceeds storage binding limit %d: %w",
			store.BufferSize(), lim.MaxStorageBufferBindingSize, cells.ErrLimitsExceeded)
	}

	var err error
	e.pipeline, err = ctx.CreateComputePipeline(render.ComputePipelineDesc{
		Label:         e.transition.Label,
		WGSL:          stepWGSL,
		EntryPoint:    e.transition.EntryPoint,
		WorkgroupSize: [3]uint32{WorkgroupSize, WorkgroupSize, 1},
		Bindings:      stepBindings(),
		Kernels: &gpucore.Kernels{Compute: map[string]gpucore.ComputeKernel{
			e.transition.EntryPoint: e.transition.Kernel,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	if e.ruleBuf, err = ctx.CreateBuffer("rule", RuleSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("sim: rule buffer: %w", err)
	}
	if err := ctx.WriteBuffer(e.ruleBuf, 0, e.rule.Bytes()); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("sim: upload rule: %w", err)
	}

	for i := range e.groups {
		e.groups[i], err = ctx.CreateBindGroup(fmt.Sprintf("%s-%d", e.transition.Label, i), e.pipeline.Layout,
			gpucore.BindGroupEntry{Binding: bindingParams, Buffer: store.ParamsBuffer()},
			gpucore.BindGroupEntry{Binding: bindingRule, Buffer: e.ruleBuf},
			gpucore.BindGroupEntry{Binding: bindingSrc, Buffer: store.Buffer(i)},
			gpucore.BindGroupEntry{Binding: bindingDst, Buffer: store.Buffer(1 - i)},
		)
		if err != nil {
			e.Destroy()
			return nil, fmt.Errorf("sim: bind group %d: %w", i, err)
		}
	}

	cells.Logger().Debug("sim: engine ready",
		"transition", e.transition.EntryPoint, "rule", e.rule.String(),
		"dispatch_x", e.dispatch[0], "dispatch_y", e.dispatch[1])
	return e, nil
}

// DispatchSize returns the workgroup counts covering a width x height grid.
func DispatchSize(width, height uint32) [3]uint32 {
	return [3]uint32{
		(width + WorkgroupSize - 1) / WorkgroupSize,
		(height + WorkgroupSize - 1) / WorkgroupSize,
		1,
	}
}

// Dispatch returns the workgroup counts of one step.
func (e *Engine) Dispatch() [3]uint32 { return e.dispatch }

// Rule returns the current rule.
func (e *Engine) Rule() Rule { return e.rule }

// SetRule uploads a new rule. It takes effect from the next submitted step.
func (e *Engine) SetRule(r Rule) error {
	if err := e.ctx.WriteBuffer(e.ruleBuf, 0, r.Bytes()); err != nil {
		return fmt.Errorf("sim: upload rule: %w", err)
	}
	e.rule = r
	return nil
}

// Encode records one step into enc, reading the store's current generation,
// and returns the index of the buffer it writes. The caller advances the
// store once the command buffer has been submitted.
func (e *Engine) Encode(enc gpucore.CommandEncoder) int {
	read := e.store.ReadIndex()
	pass := enc.BeginComputePass(e.transition.Label)
	pass.SetPipeline(e.pipeline.Pipeline)
	pass.SetBindGroup(0, e.groups[read])
	pass.Dispatch(e.dispatch[0], e.dispatch[1], e.dispatch[2])
	pass.End()
	return e.store.WriteIndex()
}

// Step encodes, submits and advances one generation.
func (e *Engine) Step() error {
	enc, err := e.ctx.Device().CreateCommandEncoder(e.transition.Label)
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	e.Encode(enc)
	cmd, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	if err := e.ctx.Submit(cmd); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	e.store.Advance()
	return nil
}

// Destroy releases the engine's pipeline, bind groups and rule buffer. The
// store is left alone.
func (e *Engine) Destroy() {
	for i := len(e.groups) - 1; i >= 0; i-- {
		if e.groups[i] != gpucore.InvalidID {
			e.ctx.DestroyBindGroup(e.groups[i])
			e.groups[i] = gpucore.InvalidID
		}
	}
	if e.ruleBuf != gpucore.InvalidID {
		e.ctx.DestroyBuffer(e.ruleBuf)
		e.ruleBuf = gpucore.InvalidID
	}
	if e.pipeline != nil {
		e.ctx.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
}
