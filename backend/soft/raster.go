package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/cells/gpucore"
)

type vertex struct {
	pos [4]float32
	uv  [2]float32
}

// rasterize draws one indexed triangle list into t. The vertex stage is a
// pass-through: location 0 is the clip-space position and location 1 is
// interpolated as the fragment UV.
func (d *Device) rasterize(t *target, dr draw) error {
	pipe, ok := d.renderPipelines[dr.pipeline]
	if !ok {
		return fmt.Errorf("unknown render pipeline %d", dr.pipeline)
	}
	b, err := d.resolve(dr.groups[:])
	if err != nil {
		return err
	}
	vb, err := d.buffer(dr.vertex)
	if err != nil {
		return err
	}
	ib, err := d.buffer(dr.index)
	if err != nil {
		return err
	}
	if uint64(dr.indexCount)*dr.indexFormat.Size() > uint64(len(ib.data)) {
		return errors.New("index count exceeds index buffer")
	}

	layout := pipe.desc.VertexBuffers[0]
	fetch := func(i uint32) (vertex, error) {
		var v vertex
		v.pos[3] = 1
		base := uint64(i) * layout.ArrayStride
		if base+layout.ArrayStride > uint64(len(vb.data)) {
			return v, fmt.Errorf("vertex %d out of range", i)
		}
		for _, a := range layout.Attributes {
			off := base + a.Offset
			switch a.ShaderLocation {
			case 0:
				for c := range a.Format.Components() {
					v.pos[c] = readF32(vb.data, off+uint64(c)*4)
				}
			case 1:
				v.uv[0] = readF32(vb.data, off)
				v.uv[1] = readF32(vb.data, off+4)
			}
		}
		return v, nil
	}
	index := func(n uint32) uint32 {
		if dr.indexFormat == gpucore.IndexFormatUint32 {
			return binary.LittleEndian.Uint32(ib.data[n*4:])
		}
		return uint32(binary.LittleEndian.Uint16(ib.data[n*2:]))
	}

	for n := uint32(0); n+2 < dr.indexCount; n += 3 {
		var tri [3]vertex
		for k := range tri {
			v, err := fetch(index(n + uint32(k)))
			if err != nil {
				return err
			}
			tri[k] = v
		}
		d.fillTriangle(t, pipe, b, tri)
	}
	return nil
}

func (d *Device) fillTriangle(t *target, pipe *renderPipeline, b bindings, tri [3]vertex) {
	w := float32(t.img.Rect.Dx())
	h := float32(t.img.Rect.Dy())

	// Screen space, y down.
	var sx, sy [3]float32
	for k, v := range tri {
		sx[k] = (v.pos[0]/v.pos[3] + 1) * 0.5 * w
		sy[k] = (1 - v.pos[1]/v.pos[3]) * 0.5 * h
	}
	area := edge(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if area == 0 {
		return
	}
	// A counter-clockwise triangle in NDC (y up) has negative area in
	// screen space (y down).
	ccw := area < 0
	front := ccw == (pipe.desc.FrontFace == gpucore.FrontFaceCCW)
	switch pipe.desc.CullMode {
	case gpucore.CullModeBack:
		if !front {
			return
		}
	case gpucore.CullModeFront:
		if front {
			return
		}
	}

	minX := clampInt(floor(min(sx[0], sx[1], sx[2])), 0, int(w))
	maxX := clampInt(ceil(max(sx[0], sx[1], sx[2])), 0, int(w))
	minY := clampInt(floor(min(sy[0], sy[1], sy[2])), 0, int(h))
	maxY := clampInt(ceil(max(sy[0], sy[1], sy[2])), 0, int(h))
	if minX >= maxX || minY >= maxY {
		return
	}

	stride := t.img.Stride
	d.pool.ForEach(maxY-minY, func(row int) {
		y := minY + row
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(sx[1], sy[1], sx[2], sy[2], px, py) / area
			w1 := edge(sx[2], sy[2], sx[0], sy[0], px, py) / area
			w2 := edge(sx[0], sy[0], sx[1], sy[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			in := gpucore.FragmentInput{
				FragCoord: [2]float32{px, py},
				UV: [2]float32{
					w0*tri[0].uv[0] + w1*tri[1].uv[0] + w2*tri[2].uv[0],
					w0*tri[0].uv[1] + w1*tri[1].uv[1] + w2*tri[2].uv[1],
				},
			}
			c := packColor(pipe.fragment(b, in), t.format)
			off := y*stride + x*4
			copy(t.img.Pix[off:off+4], c[:])
		}
	})
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func packColor(c [4]float32, format gpucore.TextureFormat) [4]byte {
	r, g, b, a := unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3])
	if format == gpucore.TextureFormatBGRA8Unorm {
		return [4]byte{b, g, r, a}
	}
	return [4]byte{r, g, b, a}
}

func unorm8(v float32) byte {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

func readF32(b []byte, off uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func floor(v float32) int { return int(math.Floor(float64(v))) }
func ceil(v float32) int  { return int(math.Ceil(float64(v))) }

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
