package present

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/grid"
)

const (
	bindingCells  = 0
	bindingParams = 1
	bindingStyle  = 2
)

const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// quadWGSL samples one cell per fragment. UV y grows upward while grid
// rows grow downward, so the fragment stage flips it.
const quadWGSL = `
struct Cell {
    state: u32,
    trail: f32,
}

struct Params {
    width: u32,
    height: u32,
    _pad0: u32,
    _pad1: u32,
}

struct Style {
    background: vec4<f32>,
    alive: vec4<f32>,
    trail: vec4<f32>,
}

struct VertexInput {
    @location(0) position: vec4<f32>,
    @location(1) uv: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(0) var<storage, read> cells: array<Cell>;
@group(0) @binding(1) var<uniform> params: Params;
@group(0) @binding(2) var<uniform> style: Style;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = in.position;
    out.uv = in.uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let uv = clamp(in.uv, vec2<f32>(0.0, 0.0), vec2<f32>(1.0, 1.0));
    let x = min(u32(uv.x * f32(params.width)), params.width - 1u);
    let y = min(u32((1.0 - uv.y) * f32(params.height)), params.height - 1u);
    let c = cells[y * params.width + x];
    if (c.state != 0u) {
        return style.alive;
    }
    return mix(style.background, style.trail, clamp(c.trail, 0.0, 1.0));
}
`

func quadBindings() []gpucore.BindGroupLayoutEntry {
	return []gpucore.BindGroupLayoutEntry{
		{Binding: bindingCells, Visibility: gpucore.ShaderStageFragment, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
		{Binding: bindingParams, Visibility: gpucore.ShaderStageFragment, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: grid.ParamsSize},
		{Binding: bindingStyle, Visibility: gpucore.ShaderStageFragment, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: grid.StyleSize},
	}
}

// fragmentKernel is the CPU form of fs_main.
func fragmentKernel(b gpucore.Bindings, in gpucore.FragmentInput) [4]float32 {
	p := grid.DecodeParams(b.Buffer(0, bindingParams))
	style := grid.DecodeStyle(b.Buffer(0, bindingStyle))
	if p.Width == 0 || p.Height == 0 {
		return style.Background
	}
	u := min(max(in.UV[0], 0), 1)
	v := min(max(in.UV[1], 0), 1)
	x := min(uint32(u*float32(p.Width)), p.Width-1)
	y := min(uint32((1-v)*float32(p.Height)), p.Height-1)

	off := (y*p.Width + x) * grid.CellSize
	cs := b.Buffer(0, bindingCells)
	c := grid.Cell{
		State: binary.LittleEndian.Uint32(cs[off:]),
		Trail: math.Float32frombits(binary.LittleEndian.Uint32(cs[off+4:])),
	}
	return style.Shade(c)
}
