package sim

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/cells/gpucore"
	"github.com/gogpu/cells/grid"
)

// Binding indices of the step shader.
const (
	bindingParams = 0
	bindingRule   = 1
	bindingSrc    = 2
	bindingDst    = 3
)

// stepWGSL holds both transition entry points. Each invocation owns one
// cell; invocations outside the grid return immediately.
const stepWGSL = `
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

struct Rule {
    birth: u32,
    survive: u32,
    decay: f32,
    _pad: u32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<uniform> rule: Rule;
@group(0) @binding(2) var<storage, read> src: array<Cell>;
@group(0) @binding(3) var<storage, read_write> dst: array<Cell>;

fn wrap_index(x: i32, y: i32) -> u32 {
    let w = i32(params.width);
    let h = i32(params.height);
    let wx = (x % w + w) % w;
    let wy = (y % h + h) % h;
    return u32(wy * w + wx);
}

@compute @workgroup_size(8, 8, 1)
fn step_life(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= params.width || id.y >= params.height) {
        return;
    }
    let x = i32(id.x);
    let y = i32(id.y);

    var n: u32 = 0u;
    for (var dy: i32 = -1; dy <= 1; dy = dy + 1) {
        for (var dx: i32 = -1; dx <= 1; dx = dx + 1) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            n = n + min(src[wrap_index(x + dx, y + dy)].state, 1u);
        }
    }

    let i = id.y * params.width + id.x;
    let cur = src[i];
    let bit = 1u << n;
    var alive = false;
    if (cur.state != 0u) {
        alive = (rule.survive & bit) != 0u;
    } else {
        alive = (rule.birth & bit) != 0u;
    }

    if (alive) {
        dst[i] = Cell(1u, 1.0);
    } else {
        dst[i] = Cell(0u, cur.trail * rule.decay);
    }
}

@compute @workgroup_size(8, 8, 1)
fn step_identity(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= params.width || id.y >= params.height) {
        return;
    }
    let i = id.y * params.width + id.x;
    dst[i] = src[i];
}
`

func stepBindings() []gpucore.BindGroupLayoutEntry {
	return []gpucore.BindGroupLayoutEntry{
		{Binding: bindingParams, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: grid.ParamsSize},
		{Binding: bindingRule, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: RuleSize},
		{Binding: bindingSrc, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
		{Binding: bindingDst, Visibility: gpucore.ShaderStageCompute, Type: gpucore.BindingTypeStorageBuffer},
	}
}

// cellAt reads the cell at index i of an encoded cell buffer.
func cellAt(b []byte, i uint32) grid.Cell {
	off := i * grid.CellSize
	return grid.Cell{
		State: binary.LittleEndian.Uint32(b[off:]),
		Trail: math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:])),
	}
}

func putCell(b []byte, i uint32, c grid.Cell) {
	off := i * grid.CellSize
	binary.LittleEndian.PutUint32(b[off:], c.State)
	binary.LittleEndian.PutUint32(b[off+4:], math.Float32bits(c.Trail))
}

// lifeKernel is the CPU form of step_life.
func lifeKernel(b gpucore.Bindings, gid [3]uint32) {
	p := grid.DecodeParams(b.Buffer(0, bindingParams))
	if gid[0] >= p.Width || gid[1] >= p.Height {
		return
	}
	r := decodeRule(b.Buffer(0, bindingRule))
	src, dst := b.Buffer(0, bindingSrc), b.Buffer(0, bindingDst)

	w, h := int(p.Width), int(p.Height)
	x, y := int(gid[0]), int(gid[1])
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			wx := ((x+dx)%w + w) % w
			wy := ((y+dy)%h + h) % h
			if cellAt(src, uint32(wy*w+wx)).State != 0 {
				n++
			}
		}
	}

	i := gid[1]*p.Width + gid[0]
	cur := cellAt(src, i)
	if r.Next(cur.State != 0, n) {
		putCell(dst, i, grid.Alive())
	} else {
		putCell(dst, i, grid.Cell{Trail: cur.Trail * r.Decay})
	}
}

// identityKernel is the CPU form of step_identity.
func identityKernel(b gpucore.Bindings, gid [3]uint32) {
	p := grid.DecodeParams(b.Buffer(0, bindingParams))
	if gid[0] >= p.Width || gid[1] >= p.Height {
		return
	}
	i := gid[1]*p.Width + gid[0]
	putCell(b.Buffer(0, bindingDst), i, cellAt(b.Buffer(0, bindingSrc), i))
}
